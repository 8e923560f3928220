package pageview

import (
	"context"
	"sort"
	"time"

	"github.com/wikicorpus/graphengine/pkg/graph"
	"github.com/wikicorpus/graphengine/pkg/metrics"
)

const defaultTopNCacheSize = 256

// Engine is the Page-View Engine (C6): it fuses a Graph's topology (C4)
// with a Store's temporal view vectors (C5) to answer trend, top-N, and
// delta queries. One Engine exists per wiki, owned by the registry (C7).
type Engine struct {
	wiki     string
	graph    *graph.Graph
	store    *Store
	cache    *TopNCache
	recorder *metrics.Recorder
}

// NewEngine wires a built Graph to a fresh Store and top-N cache for wiki.
// Metrics are a no-op recorder until SetRecorder is called.
func NewEngine(wiki, dataDir string, g *graph.Graph) *Engine {
	return &Engine{
		wiki:     wiki,
		graph:    g,
		store:    NewStore(wiki, dataDir),
		cache:    NewTopNCache(defaultTopNCacheSize),
		recorder: metrics.NewNoop(),
	}
}

// SetRecorder wires a live metrics recorder into the engine (the registry
// does this at build time when config.Config.MetricsEnabled is set). A nil
// recorder is ignored, leaving the no-op default in place.
func (e *Engine) SetRecorder(r *metrics.Recorder) {
	if r != nil {
		e.recorder = r
	}
}

// Wiki returns the wiki code this engine serves.
func (e *Engine) Wiki() string { return e.wiki }

// Graph exposes the engine's underlying topology for callers that need
// direct C4 queries (child/parent/descendant categories, categories-for-
// article) alongside trend/top-N/delta analysis.
func (e *Engine) Graph() *graph.Graph { return e.graph }

// timeQuery records how long a named query operation took, for use as a
// defer'd call with the start time captured at entry: defer
// e.timeQuery("op", time.Now()).
func (e *Engine) timeQuery(operation string, start time.Time) {
	e.recorder.RecordQueryDuration(context.Background(), e.wiki, operation, time.Since(start).Seconds())
}

func eachDate(start, end time.Time, f func(time.Time)) {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		f(d)
	}
}

func sumOverArticleSet(day []uint32, articles []uint32) uint64 {
	var total uint64
	for _, a := range articles {
		if int(a) < len(day) {
			total += uint64(day[a])
		}
	}
	return total
}

// CategoryTrend implements category_trend(c, depth, [start,end]) per
// spec.md §4.6: resolve c's dense article set via articles_in_category,
// ensure the window is loaded, then sum per day.
func (e *Engine) CategoryTrend(c QID, depth int, start, end time.Time) ([]TrendPoint, error) {
	defer e.timeQuery("category_trend", time.Now())

	articleQIDs := e.graph.ArticlesInCategory(c, depth)
	dense := make([]uint32, 0, len(articleQIDs))
	for _, qid := range articleQIDs {
		if d, ok := e.graph.ArticleDense(qid); ok {
			dense = append(dense, d)
		}
	}
	sort.Slice(dense, func(i, j int) bool { return dense[i] < dense[j] })

	if len(dense) == 0 {
		return nil, nil
	}
	if err := e.store.EnsureLoaded(start, end); err != nil {
		return nil, err
	}

	var points []TrendPoint
	eachDate(start, end, func(d time.Time) {
		day, _ := e.store.View(d)
		points = append(points, TrendPoint{Date: d, Total: sumOverArticleSet(day, dense)})
	})
	return points, nil
}

// ArticleTrend implements article_trend(a, [start,end]) — category_trend
// with A = {dense(a)}.
func (e *Engine) ArticleTrend(a QID, start, end time.Time) ([]TrendPoint, error) {
	defer e.timeQuery("article_trend", time.Now())

	dense, ok := e.graph.ArticleDense(a)
	if !ok {
		return nil, nil
	}
	if err := e.store.EnsureLoaded(start, end); err != nil {
		return nil, err
	}

	set := []uint32{dense}
	var points []TrendPoint
	eachDate(start, end, func(d time.Time) {
		day, _ := e.store.View(d)
		points = append(points, TrendPoint{Date: d, Total: sumOverArticleSet(day, set)})
	})
	return points, nil
}

// TopArticlesInCategory implements top_articles_in_category(c, [start,end],
// depth, N): aggregate per-article totals restricted to c's (possibly
// transitive) article set, then keep the top N by total descending.
func (e *Engine) TopArticlesInCategory(c QID, start, end time.Time, depth, limit int) ([]ArticleTotal, error) {
	defer e.timeQuery("top_articles_in_category", time.Now())

	articleQIDs := e.graph.ArticlesInCategory(c, depth)
	if len(articleQIDs) == 0 {
		return nil, nil
	}
	if err := e.store.EnsureLoaded(start, end); err != nil {
		return nil, err
	}

	totals := make(map[QID]uint64, len(articleQIDs))
	eachDate(start, end, func(d time.Time) {
		day, ok := e.store.View(d)
		if !ok || len(day) == 0 {
			return
		}
		for _, qid := range articleQIDs {
			dense, ok := e.graph.ArticleDense(qid)
			if !ok || int(dense) >= len(day) {
				continue
			}
			totals[qid] += uint64(day[dense])
		}
	})

	out := make([]ArticleTotal, 0, len(totals))
	for qid, total := range totals {
		out = append(out, ArticleTotal{ArticleQID: qid, Total: total})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].ArticleQID < out[j].ArticleQID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// TopCategories implements top_categories([start,end], N) per spec.md
// §4.6 — the gather-then-scatter algorithm over direct membership only:
//
//  1. Aggregation phase: element-wise sum every loaded day's view vector
//     into article_totals, indexed by article dense id.
//  2. Scatter phase: for every article with a non-zero total, add its
//     total into every category it is a direct member of (via
//     article_cats), recording the contributing article too.
//  3. Ranking phase: sort categories by total descending, keep the top N,
//     and within each kept category sort its contributors descending and
//     keep the top N of those as representative articles.
//
// Results are served from the top-N cache when present and unexpired; a
// computed result is inserted with a TTL derived from the window's
// recency (see TTLForWindow).
func (e *Engine) TopCategories(start, end time.Time, limit int, now time.Time) ([]CategoryResult, error) {
	defer e.timeQuery("top_categories", time.Now())

	key := TopNKey(start, end, limit)
	if cached, ok := e.cache.Get(key, now); ok {
		e.recorder.RecordCacheHit(context.Background())
		return cached, nil
	}
	e.recorder.RecordCacheMiss(context.Background())

	if err := e.store.EnsureLoaded(start, end); err != nil {
		return nil, err
	}

	numArticles := e.graph.NumArticles()
	numCategories := e.graph.NumCategories()

	articleTotals := make([]uint64, numArticles)
	eachDate(start, end, func(d time.Time) {
		day, ok := e.store.View(d)
		if !ok {
			return
		}
		n := len(day)
		if n > numArticles {
			n = numArticles
		}
		for i := 0; i < n; i++ {
			articleTotals[i] += uint64(day[i])
		}
	})

	catTotals := make([]uint64, numCategories)
	catContributors := make([][]ArticleTotal, numCategories)

	for artDense := 0; artDense < numArticles; artDense++ {
		total := articleTotals[artDense]
		if total == 0 {
			continue
		}
		artQID, ok := e.graph.ArticleExternal(uint32(artDense))
		if !ok {
			continue
		}
		for _, catDense := range e.graph.ArticleCategoriesDense(uint32(artDense)) {
			if int(catDense) >= numCategories {
				continue
			}
			catTotals[catDense] += total
			catContributors[catDense] = append(catContributors[catDense], ArticleTotal{ArticleQID: artQID, Total: total})
		}
	}

	type rankedCat struct {
		dense uint32
		total uint64
	}
	ranked := make([]rankedCat, 0, numCategories)
	for d := 0; d < numCategories; d++ {
		if catTotals[d] > 0 {
			ranked = append(ranked, rankedCat{dense: uint32(d), total: catTotals[d]})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].total != ranked[j].total {
			return ranked[i].total > ranked[j].total
		}
		return ranked[i].dense < ranked[j].dense // insertion-order tie-break
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]CategoryResult, 0, len(ranked))
	for _, rc := range ranked {
		catQID, ok := e.graph.CategoryExternal(rc.dense)
		if !ok {
			continue
		}
		contributors := catContributors[rc.dense]
		sort.Slice(contributors, func(i, j int) bool {
			if contributors[i].Total != contributors[j].Total {
				return contributors[i].Total > contributors[j].Total
			}
			return contributors[i].ArticleQID < contributors[j].ArticleQID
		})
		if len(contributors) > limit {
			contributors = contributors[:limit]
		}
		results = append(results, CategoryResult{CategoryQID: catQID, Total: rc.total, TopArticles: contributors})
	}

	e.cache.Put(key, results, TTLForWindow(end, now), now)
	return results, nil
}
