// Package csr implements a Compressed Sparse Row adjacency list, per
// spec.md §4.2 — a two-array representation of an unweighted directed graph
// over a dense id space [0, N).
//
// This replaces the Vec<Vec<u32>>-style adjacency the teacher's in-memory
// storage engine (pkg/storage.MemoryEngine) builds out of Go maps of sets:
// that shape is right for a mutable, label-indexed property graph with
// point CRUD, but every neighbor access pays a map lookup plus a pointer
// chase through a separate heap allocation per node. The category hierarchy
// and article-membership adjacency here are built once and read millions of
// times per query, so CSR's two contiguous slices and cache-friendly scans
// are worth the loss of mutability.
package csr

// Adjacency is an immutable, read-only compressed sparse row graph over
// dense ids [0, N).
type Adjacency struct {
	// offsets has length N+1; node i's neighbors are targets[offsets[i]:offsets[i+1]].
	offsets []uint32
	targets []uint32
}

// FromPairs builds an Adjacency over numNodes nodes from an unordered set of
// (source, destination) pairs, using the two-pass bucket-sort construction
// of spec.md §4.2: count out-degree per source, prefix-sum into offsets,
// then scatter each destination into its source's slot.
//
// Pairs whose source is >= numNodes are silently dropped. Duplicate pairs
// are preserved — the source data may legitimately repeat an edge.
func FromPairs(numNodes int, pairs [][2]uint32) *Adjacency {
	if numNodes < 0 {
		numNodes = 0
	}

	counts := make([]uint32, numNodes)
	for _, p := range pairs {
		src := p[0]
		if int(src) < numNodes {
			counts[src]++
		}
	}

	offsets := make([]uint32, numNodes+1)
	var running uint32
	for i, c := range counts {
		offsets[i] = running
		running += c
	}
	offsets[numNodes] = running

	targets := make([]uint32, running)
	cursors := make([]uint32, numNodes)
	copy(cursors, offsets[:numNodes])

	for _, p := range pairs {
		src, dst := p[0], p[1]
		if int(src) < numNodes {
			targets[cursors[src]] = dst
			cursors[src]++
		}
	}

	return &Adjacency{offsets: offsets, targets: targets}
}

// Neighbors returns a read-only view of id's out-neighbors. An out-of-range
// id returns an empty (nil) slice rather than panicking, matching spec.md
// §4.2's "out-of-range i returns an empty slice" contract.
func (a *Adjacency) Neighbors(id uint32) []uint32 {
	if int(id) >= len(a.offsets)-1 {
		return nil
	}
	start, end := a.offsets[id], a.offsets[id+1]
	return a.targets[start:end]
}

// NumNodes returns N, the size of the dense id space this adjacency was
// built over.
func (a *Adjacency) NumNodes() int {
	if len(a.offsets) == 0 {
		return 0
	}
	return len(a.offsets) - 1
}

// NumEdges returns the total number of (source, destination) entries.
func (a *Adjacency) NumEdges() int { return len(a.targets) }
