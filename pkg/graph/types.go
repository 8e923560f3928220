// Package graph implements the category/article DAG described in spec.md
// §3–§4.3–§4.4: the Graph Builder (C3) that loads it from columnar
// snapshots, and the Wiki Graph (C4) that answers read-only topology
// queries over it.
package graph

// QID is a stable external identifier from the source wiki dataset for an
// article or category (the snapshots' qid column, distinct from page_id).
// QIDs never leak the internal dense-id
// numbering; every Graph method takes and returns QIDs.
type QID = uint32

// UnboundedDepth is the sentinel max_depth value meaning "traverse the
// entire reachable hierarchy", per spec.md §4.4 ("max_depth is a small
// unsigned integer; implementations may accept up to 255 to represent
// unbounded").
const UnboundedDepth = 255

// CategoryHit is one result of a depth-bounded category traversal: the
// external QID of a discovered category and its BFS hop distance from the
// start node.
type CategoryHit struct {
	QID   QID
	Depth int
}
