package graph

import (
	"fmt"
	"path/filepath"

	"github.com/RoaringBitmap/roaring"
	"github.com/parquet-go/parquet-go"

	"github.com/wikicorpus/graphengine/pkg/csr"
	"github.com/wikicorpus/graphengine/pkg/denseid"
	"github.com/wikicorpus/graphengine/pkg/engineerr"
)

// nodeRow mirrors the shared categories.parquet / articles.parquet schema
// (spec.md §4.3 / §6). Only QID is consumed by the core; PageID and
// PageTitle exist in the file but title resolution is an external
// collaborator's job (spec.md §1), so they're read and discarded.
type nodeRow struct {
	PageID    uint32 `parquet:"page_id"`
	QID       uint32 `parquet:"qid"`
	PageTitle string `parquet:"page_title"`
}

type hierarchyRow struct {
	ParentQID uint32 `parquet:"parent_qid"`
	ChildQID  uint32 `parquet:"child_qid"`
}

type membershipRow struct {
	ArticleQID  uint32 `parquet:"article_qid"`
	CategoryQID uint32 `parquet:"category_qid"`
}

// Build loads the four columnar snapshot files for wiki from dataDir,
// following the deterministic procedure of spec.md §4.3, and returns a
// ready-to-query Graph. Build is the only place a Graph's topology is ever
// constructed; the result is immutable for the engine's lifetime.
//
// A missing file or a schema mismatch is fatal (IOFailure) — the spec treats
// an incomplete or malformed snapshot as "cannot serve this wiki" rather
// than serving a partial graph.
func Build(wiki, dataDir string) (*Graph, error) {
	wikiDir := filepath.Join(dataDir, wiki)

	catRows, err := readParquet[nodeRow](filepath.Join(wikiDir, "categories.parquet"))
	if err != nil {
		return nil, engineerr.New(engineerr.KindIOFailure, "graph.Build:categories", err)
	}
	artRows, err := readParquet[nodeRow](filepath.Join(wikiDir, "articles.parquet"))
	if err != nil {
		return nil, engineerr.New(engineerr.KindIOFailure, "graph.Build:articles", err)
	}

	catIDs := denseid.New(len(catRows))
	for _, r := range catRows {
		catIDs.Insert(r.QID)
	}
	artIDs := denseid.New(len(artRows))
	for _, r := range artRows {
		artIDs.Insert(r.QID)
	}

	numCats, numArts := catIDs.Len(), artIDs.Len()

	hierarchyRows, err := readParquet[hierarchyRow](filepath.Join(wikiDir, "category_graph.parquet"))
	if err != nil {
		return nil, engineerr.New(engineerr.KindIOFailure, "graph.Build:category_graph", err)
	}

	forward := make([][2]uint32, 0, len(hierarchyRows))
	backward := make([][2]uint32, 0, len(hierarchyRows))
	for _, r := range hierarchyRows {
		parentDense, ok1 := catIDs.Get(r.ParentQID)
		childDense, ok2 := catIDs.Get(r.ChildQID)
		if !ok1 || !ok2 {
			// Unknown QIDs point to namespaces this engine does not index;
			// silently dropped per spec.md §4.3.
			continue
		}
		forward = append(forward, [2]uint32{parentDense, childDense})
		backward = append(backward, [2]uint32{childDense, parentDense})
	}
	children := csr.FromPairs(numCats, forward)
	parents := csr.FromPairs(numCats, backward)

	membershipRows, err := readParquet[membershipRow](filepath.Join(wikiDir, "article_category.parquet"))
	if err != nil {
		return nil, engineerr.New(engineerr.KindIOFailure, "graph.Build:article_category", err)
	}

	catArticles := make([]*roaring.Bitmap, numCats)
	for i := range catArticles {
		catArticles[i] = roaring.New()
	}
	articleCatPairs := make([][2]uint32, 0, len(membershipRows))
	for _, r := range membershipRows {
		artDense, ok1 := artIDs.Get(r.ArticleQID)
		catDense, ok2 := catIDs.Get(r.CategoryQID)
		if !ok1 || !ok2 {
			continue
		}
		catArticles[catDense].Add(artDense)
		articleCatPairs = append(articleCatPairs, [2]uint32{artDense, catDense})
	}
	articleCats := csr.FromPairs(numArts, articleCatPairs)

	return &Graph{
		wiki:          wiki,
		catIDs:        catIDs,
		artIDs:        artIDs,
		children:      children,
		parents:       parents,
		catArticles:   catArticles,
		articleCats:   articleCats,
		numArticles:   numArts,
		numCategories: numCats,
	}, nil
}

// NewForTest assembles a Graph directly from its components, bypassing
// Build/parquet entirely. Exported for other packages' tests (pkg/pageview,
// pkg/registry) that need a hand-built small graph rather than parquet
// fixtures on disk.
func NewForTest(wiki string, catIDs, artIDs *denseid.Map, children, parents *csr.Adjacency, catArticles []*roaring.Bitmap, articleCats *csr.Adjacency) *Graph {
	return &Graph{
		wiki:          wiki,
		catIDs:        catIDs,
		artIDs:        artIDs,
		children:      children,
		parents:       parents,
		catArticles:   catArticles,
		articleCats:   articleCats,
		numArticles:   artIDs.Len(),
		numCategories: catIDs.Len(),
	}
}

// readParquet reads every row of a parquet file into memory as []T. Schema
// mismatches (a missing or mistyped column) surface through the parquet
// library's own decode error and are treated as fatal by the caller.
func readParquet[T any](path string) ([]T, error) {
	rows, err := parquet.ReadFile[T](path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return rows, nil
}
