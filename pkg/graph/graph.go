package graph

import (
	"github.com/RoaringBitmap/roaring"

	"github.com/wikicorpus/graphengine/pkg/csr"
	"github.com/wikicorpus/graphengine/pkg/denseid"
)

// Graph is the read-only category/article DAG for one wiki (C4). It is
// built once by Build and never mutated afterward, so every method here is
// safe for concurrent use without locking — the same contract
// pkg/storage.MemoryEngine enforces with an RWMutex for its mutable graph,
// granted here for free by immutability.
type Graph struct {
	wiki string

	catIDs *denseid.Map
	artIDs *denseid.Map

	children *csr.Adjacency // category dense id -> child category dense ids
	parents  *csr.Adjacency // category dense id -> parent category dense ids

	catArticles []*roaring.Bitmap // category dense id -> member article dense ids (direct only)
	articleCats *csr.Adjacency    // article dense id -> category dense ids (direct only)

	numArticles   int
	numCategories int
}

// Wiki returns the wiki code this graph was built for.
func (g *Graph) Wiki() string { return g.wiki }

// NumCategories returns the number of distinct categories in the graph.
func (g *Graph) NumCategories() int { return g.numCategories }

// NumArticles returns the number of distinct articles in the graph.
func (g *Graph) NumArticles() int { return g.numArticles }

// ChildCategories returns the direct child categories of category qid. An
// unknown qid returns an empty slice, not an error — spec.md §4.4 treats a
// category with no recorded children identically to an unknown one for this
// query, since both yield "no children."
func (g *Graph) ChildCategories(qid QID) []QID {
	return g.directCategoryNeighbors(g.children, qid)
}

// ParentCategories returns the direct parent categories of category qid.
func (g *Graph) ParentCategories(qid QID) []QID {
	return g.directCategoryNeighbors(g.parents, qid)
}

func (g *Graph) directCategoryNeighbors(adj *csr.Adjacency, qid QID) []QID {
	dense, ok := g.catIDs.Get(qid)
	if !ok {
		return nil
	}
	neighbors := adj.Neighbors(dense)
	out := make([]QID, 0, len(neighbors))
	for _, d := range neighbors {
		ext, ok := g.catIDs.External(d)
		if ok {
			out = append(out, ext)
		}
	}
	return out
}

// DescendantCategories performs a breadth-first traversal of the child
// hierarchy starting at root, down to maxDepth hops (UnboundedDepth for the
// full reachable set), and returns every category reached along with its
// depth from root. root itself is not included.
//
// The traversal shape — a FIFO queue of (dense id, depth) pairs and a
// RoaringBitmap visited-set — mirrors original_source's wikigraph.rs
// exactly, which makes it tolerant of cycles in malformed input: a category
// is never enqueued twice, so a cycle simply stops expanding rather than
// looping forever.
func (g *Graph) DescendantCategories(root QID, maxDepth int) []CategoryHit {
	rootDense, ok := g.catIDs.Get(root)
	if !ok {
		return nil
	}

	visited := roaring.New()
	visited.Add(rootDense)

	type frame struct {
		dense uint32
		depth int
	}
	queue := []frame{{rootDense, 0}}

	var hits []CategoryHit
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		if cur.depth >= maxDepth {
			continue
		}

		for _, childDense := range g.children.Neighbors(cur.dense) {
			if visited.Contains(childDense) {
				continue
			}
			visited.Add(childDense)

			ext, ok := g.catIDs.External(childDense)
			if !ok {
				continue
			}
			hits = append(hits, CategoryHit{QID: ext, Depth: cur.depth + 1})
			queue = append(queue, frame{childDense, cur.depth + 1})
		}
	}
	return hits
}

// ArticlesInCategory returns every article directly or (if maxDepth > 0)
// transitively a member of category root, via the root category itself and
// its descendant categories down to maxDepth hops. The result has no
// duplicates even if an article belongs to more than one category in the
// traversed set.
func (g *Graph) ArticlesInCategory(root QID, maxDepth int) []QID {
	rootDense, ok := g.catIDs.Get(root)
	if !ok {
		return nil
	}

	cats := []uint32{rootDense}
	for _, hit := range g.DescendantCategories(root, maxDepth) {
		d, ok := g.catIDs.Get(hit.QID)
		if ok {
			cats = append(cats, d)
		}
	}

	seen := roaring.New()
	for _, catDense := range cats {
		if int(catDense) >= len(g.catArticles) {
			continue
		}
		seen.Or(g.catArticles[catDense])
	}

	out := make([]QID, 0, seen.GetCardinality())
	it := seen.Iterator()
	for it.HasNext() {
		artDense := it.Next()
		ext, ok := g.artIDs.External(artDense)
		if ok {
			out = append(out, ext)
		}
	}
	return out
}

// CategoriesForArticle returns the direct categories article qid belongs
// to — no traversal, a single adjacency lookup.
func (g *Graph) CategoriesForArticle(qid QID) []QID {
	dense, ok := g.artIDs.Get(qid)
	if !ok {
		return nil
	}
	neighbors := g.articleCats.Neighbors(dense)
	out := make([]QID, 0, len(neighbors))
	for _, d := range neighbors {
		ext, ok := g.catIDs.External(d)
		if ok {
			out = append(out, ext)
		}
	}
	return out
}

// DirectArticleMembers returns the article dense ids directly filed under
// category qid, with no descendant traversal, as dense ids rather than QIDs
// for callers that index per-article view vectors directly. An unknown qid
// yields an empty bitmap.
func (g *Graph) DirectArticleMembers(qid QID) *roaring.Bitmap {
	dense, ok := g.catIDs.Get(qid)
	if !ok || int(dense) >= len(g.catArticles) {
		return roaring.New()
	}
	return g.catArticles[dense]
}

// ArticleCategoriesDense returns the dense category ids article dense is a
// direct member of, without any QID translation. Used by the top_categories
// gather-then-scatter algorithm, which operates entirely in dense-id space
// for its hot inner loop.
func (g *Graph) ArticleCategoriesDense(dense uint32) []uint32 {
	return g.articleCats.Neighbors(dense)
}

// ArticleDense exposes the article QID -> dense id lookup for callers (the
// page-view engine) that index their own per-article vectors by dense id.
func (g *Graph) ArticleDense(qid QID) (uint32, bool) { return g.artIDs.Get(qid) }

// ArticleExternal is the inverse of ArticleDense.
func (g *Graph) ArticleExternal(dense uint32) (QID, bool) { return g.artIDs.External(dense) }

// CategoryDense exposes the category QID -> dense id lookup.
func (g *Graph) CategoryDense(qid QID) (uint32, bool) { return g.catIDs.Get(qid) }

// CategoryExternal is the inverse of CategoryDense.
func (g *Graph) CategoryExternal(dense uint32) (QID, bool) { return g.catIDs.External(dense) }

// AllCategoryQIDs returns every category QID known to the graph, in dense
// id (build/insertion) order.
func (g *Graph) AllCategoryQIDs() []QID {
	out := make([]QID, 0, g.numCategories)
	for d := uint32(0); int(d) < g.numCategories; d++ {
		ext, ok := g.catIDs.External(d)
		if ok {
			out = append(out, ext)
		}
	}
	return out
}

// DepthReport is the result of AnalyzeDepth, a diagnostic over the category
// hierarchy reachable from a root — supplemented from
// original_source/topictrend_cli/src/catanalysis.rs, not part of the
// production query surface. Operators run it once after a fresh build to
// sanity-check the shape of a new snapshot before trusting it for queries.
type DepthReport struct {
	Root               QID
	Reachable          int
	MaxDepth           int
	AverageDepth       float64
	DepthHistogram     map[int]int
	UnreachableFromAll int // categories in the graph not reachable from Root
}

// AnalyzeDepth walks the full descendant tree from root (unbounded depth)
// and summarizes its shape.
func (g *Graph) AnalyzeDepth(root QID) DepthReport {
	hits := g.DescendantCategories(root, UnboundedDepth)

	report := DepthReport{
		Root:           root,
		Reachable:      len(hits),
		DepthHistogram: make(map[int]int),
	}

	var depthSum int
	for _, h := range hits {
		report.DepthHistogram[h.Depth]++
		if h.Depth > report.MaxDepth {
			report.MaxDepth = h.Depth
		}
		depthSum += h.Depth
	}
	if len(hits) > 0 {
		report.AverageDepth = float64(depthSum) / float64(len(hits))
	}
	report.UnreachableFromAll = g.numCategories - (len(hits) + 1)
	if report.UnreachableFromAll < 0 {
		report.UnreachableFromAll = 0
	}
	return report
}
