// Package denseid implements the direct-addressed external-QID-to-dense-id
// map described in spec.md §4.1.
//
// External QIDs are dense-ish small unsigned integers with a known upper
// bound per wiki, so a plain indexed slice beats a hash map on both lookup
// latency and memory once the fill ratio climbs past roughly 10% — the same
// trade this module's CSR adjacency (pkg/csr) makes against Vec<Vec<_>>.
package denseid

import "math"

// Absent is the sentinel value denoting "no dense id assigned to this QID".
const Absent = math.MaxUint32

// Map is a direct-addressed vector from external QID to dense id, and the
// inverse slice from dense id back to external QID. One Map instance holds
// one node kind (articles, or categories) for one wiki.
type Map struct {
	// qidToDense is indexed by QID; unset slots hold Absent.
	qidToDense []uint32
	// denseToQID is indexed by dense id, built up in insertion order.
	denseToQID []uint32
}

// New creates an empty Map. capacityHint sizes the initial backing slice to
// avoid repeated growth during a bulk load; it need not be exact.
func New(capacityHint int) *Map {
	if capacityHint < 0 {
		capacityHint = 0
	}
	return &Map{
		qidToDense: make([]uint32, 0, capacityHint),
		denseToQID: make([]uint32, 0, capacityHint),
	}
}

// Insert assigns the next dense id to qid and returns it. Calling Insert
// twice for the same qid reassigns it to a new dense id and orphans the old
// one — callers (the graph builder) never do this; each qid is inserted
// once, in source-file order, which is what makes the dense-id space a
// contiguous prefix per spec.md §3.
func (m *Map) Insert(qid uint32) uint32 {
	dense := uint32(len(m.denseToQID))
	m.denseToQID = append(m.denseToQID, qid)

	if int(qid) >= len(m.qidToDense) {
		grown := make([]uint32, int(qid)+1)
		for i := range grown {
			grown[i] = Absent
		}
		copy(grown, m.qidToDense)
		m.qidToDense = grown
	}
	m.qidToDense[qid] = dense
	return dense
}

// Get returns the dense id for qid, and whether it was present.
func (m *Map) Get(qid uint32) (uint32, bool) {
	if int(qid) >= len(m.qidToDense) {
		return 0, false
	}
	dense := m.qidToDense[qid]
	return dense, dense != Absent
}

// External returns the external QID for a dense id, and whether it was
// valid. Every dense id returned by Insert is valid by construction, so
// this only returns false for ids outside [0, Len).
func (m *Map) External(dense uint32) (uint32, bool) {
	if int(dense) >= len(m.denseToQID) {
		return 0, false
	}
	return m.denseToQID[dense], true
}

// Len returns N, the count of dense ids assigned so far.
func (m *Map) Len() int { return len(m.denseToQID) }

// Keys returns every external QID with an assigned dense id. Order is
// unspecified by the iteration order of the underlying slice.
func (m *Map) Keys() []uint32 {
	out := make([]uint32, 0, len(m.denseToQID))
	for qid, dense := range m.qidToDense {
		if dense != Absent {
			out = append(out, uint32(qid))
		}
	}
	return out
}
