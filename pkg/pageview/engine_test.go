package pageview

import (
	"testing"
	"time"

	"github.com/RoaringBitmap/roaring"

	"github.com/wikicorpus/graphengine/pkg/csr"
	"github.com/wikicorpus/graphengine/pkg/denseid"
	"github.com/wikicorpus/graphengine/pkg/graph"
)

// newScenarioGraph reproduces spec.md's Scenario A exactly, reused here for
// Scenarios B, C, E, F: hierarchy C1->C2->C3->C1 (cycle), membership
// A1,A2∈C1, A3∈C2, A4∈C3.
func newScenarioGraph(t *testing.T) *graph.Graph {
	t.Helper()

	cats := denseid.New(0)
	for _, qid := range []uint32{1, 2, 3} {
		cats.Insert(qid)
	}
	arts := denseid.New(0)
	for _, qid := range []uint32{1, 2, 3, 4} {
		arts.Insert(qid)
	}
	cd := func(qid uint32) uint32 { v, _ := cats.Get(qid); return v }
	ad := func(qid uint32) uint32 { v, _ := arts.Get(qid); return v }

	forward := [][2]uint32{{cd(1), cd(2)}, {cd(2), cd(3)}, {cd(3), cd(1)}}
	backward := make([][2]uint32, len(forward))
	for i, p := range forward {
		backward[i] = [2]uint32{p[1], p[0]}
	}
	children := csr.FromPairs(cats.Len(), forward)
	parents := csr.FromPairs(cats.Len(), backward)

	catArticles := make([]*roaring.Bitmap, cats.Len())
	for i := range catArticles {
		catArticles[i] = roaring.New()
	}
	catArticles[cd(1)].Add(ad(1))
	catArticles[cd(1)].Add(ad(2))
	catArticles[cd(2)].Add(ad(3))
	catArticles[cd(3)].Add(ad(4))

	articleCatPairs := [][2]uint32{
		{ad(1), cd(1)},
		{ad(2), cd(1)},
		{ad(3), cd(2)},
		{ad(4), cd(3)},
	}
	articleCats := csr.FromPairs(arts.Len(), articleCatPairs)

	return graph.NewForTest(
		"testwiki", cats, arts, children, parents, catArticles, articleCats,
	)
}

func mustNewEngine(t *testing.T, g *graph.Graph, dataDir string) *Engine {
	t.Helper()
	return NewEngine("testwiki", dataDir, g)
}

// TestCategoryTrend is Scenario B: add a day 2032-10-12 with views
// (A1=100, A2=200, A3=300, A4=600). category_trend(C1, 0, ...) => 300;
// depth=1 => 600; depth=255 => 1200.
func TestCategoryTrend(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 10, 12, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "testwiki", date, []uint32{100, 200, 300, 600})

	g := newScenarioGraph(t)
	e := mustNewEngine(t, g, dataDir)

	cases := []struct {
		depth int
		want  uint64
	}{
		{0, 300},
		{1, 600},
		{255, 1200},
	}
	for _, c := range cases {
		points, err := e.CategoryTrend(1, c.depth, date, date)
		if err != nil {
			t.Fatalf("depth=%d: %v", c.depth, err)
		}
		if len(points) != 1 || points[0].Total != c.want {
			t.Errorf("depth=%d: CategoryTrend = %+v, want total %d", c.depth, points, c.want)
		}
	}
}

// TestTopCategoriesDirectMembershipOnly is Scenario C: using Scenario B's
// views (A1=100, A2=200, A3=300, A4=600), top_categories scatters over
// direct membership only — C1=A1+A2=300, C2=A3=300, C3=A4=600 — ranked
// C3, C1, C2 with an insertion-order tie-break between the two 300s.
func TestTopCategoriesDirectMembershipOnly(t *testing.T) {
	dataDir := t.TempDir()
	date := time.Date(2032, 10, 12, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "testwiki", date, []uint32{100, 200, 300, 600})

	g := newScenarioGraph(t)
	e := mustNewEngine(t, g, dataDir)

	results, err := e.TopCategories(date, date, 10, date)
	if err != nil {
		t.Fatal(err)
	}
	if len(results) != 3 {
		t.Fatalf("TopCategories len = %d, want 3", len(results))
	}
	if results[0].CategoryQID != 3 || results[0].Total != 600 {
		t.Errorf("rank 0 = %+v, want C3=600", results[0])
	}
	if results[1].CategoryQID != 1 || results[1].Total != 300 {
		t.Errorf("rank 1 = %+v, want C1=300 (insertion-order tie-break)", results[1])
	}
	if results[2].CategoryQID != 2 || results[2].Total != 300 {
		t.Errorf("rank 2 = %+v, want C2=300", results[2])
	}
}

// TestTopCategoriesCacheHitWithinTTL is Scenario F: two identical calls
// within 15 minutes return identical results and the second is a cache hit.
func TestTopCategoriesCacheHitWithinTTL(t *testing.T) {
	dataDir := t.TempDir()
	today := time.Date(2032, 11, 1, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "testwiki", today, []uint32{10, 20, 30, 40})

	g := newScenarioGraph(t)
	e := mustNewEngine(t, g, dataDir)

	first, err := e.TopCategories(today, today, 10, today)
	if err != nil {
		t.Fatal(err)
	}
	_, missesBefore := e.cache.Stats()

	second, err := e.TopCategories(today, today, 10, today.Add(5*time.Minute))
	if err != nil {
		t.Fatal(err)
	}
	hitsAfter, missesAfter := e.cache.Stats()

	if missesAfter != missesBefore {
		t.Errorf("second call within TTL recorded a miss")
	}
	if hitsAfter == 0 {
		t.Errorf("second call within TTL did not register as a cache hit")
	}
	if len(first) != len(second) {
		t.Fatalf("cached result differs in length: %d vs %d", len(first), len(second))
	}
	for i := range first {
		if first[i].CategoryQID != second[i].CategoryQID || first[i].Total != second[i].Total {
			t.Errorf("cached result[%d] differs: %+v vs %+v", i, first[i], second[i])
		}
	}
}

// TestArticleDelta is Scenario E: baseline A1=100, impact A1=150 =>
// {baseline:100, impact:150, abs:50, pct:50.0}.
func TestArticleDelta(t *testing.T) {
	dataDir := t.TempDir()
	baselineDate := time.Date(2032, 9, 1, 0, 0, 0, 0, time.UTC)
	impactDate := time.Date(2032, 9, 2, 0, 0, 0, 0, time.UTC)
	writeDayFile(t, dataDir, "testwiki", baselineDate, []uint32{100, 0, 0, 0})
	writeDayFile(t, dataDir, "testwiki", impactDate, []uint32{150, 0, 0, 0})

	g := newScenarioGraph(t)
	e := mustNewEngine(t, g, dataDir)

	entries, err := e.ArticleDelta(1, baselineDate, baselineDate, impactDate, impactDate, 100, 0, impactDate)
	if err != nil {
		t.Fatal(err)
	}
	var a1 *DeltaEntry
	for i := range entries {
		if entries[i].QID == 1 {
			a1 = &entries[i]
		}
	}
	if a1 == nil {
		t.Fatal("article 1 missing from delta result")
	}
	if a1.BaselineViews != 100 || a1.ImpactViews != 150 || a1.AbsoluteDelta != 50 || a1.DeltaPct != 50.0 {
		t.Errorf("delta = %+v, want {100 150 50 50.0}", *a1)
	}
}
