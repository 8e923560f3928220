package pageview

import "time"

// QID is a stable external page identifier, re-exported from pkg/graph's
// convention so callers of this package never need to import pkg/graph
// just to name an id.
type QID = uint32

// TitleResolver is the boundary to the external metadata collaborator that
// owns title lookup (spec.md §1, §2: "Titles for the returned QIDs are
// fetched through an external metadata collaborator" — never implemented
// in this core). Callers needing titles supply an implementation; this
// package ships only a synthetic fallback for tests and CLI use.
type TitleResolver interface {
	Title(wiki string, qid QID) (string, bool)
}

// SyntheticTitleResolver resolves every QID to "Q<id>", for callers with no
// real metadata source wired up.
type SyntheticTitleResolver struct{}

func (SyntheticTitleResolver) Title(_ string, qid QID) (string, bool) {
	return syntheticTitle(qid), true
}

func syntheticTitle(qid QID) string {
	return "Q" + itoa(qid)
}

func itoa(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = byte('0' + v%10)
		v /= 10
	}
	return string(buf[i:])
}

// TrendPoint is one (date, total_views) sample from category_trend or
// article_trend.
type TrendPoint struct {
	Date  time.Time
	Total uint64
}

// ArticleTotal is one ranked entry of top_articles_in_category.
type ArticleTotal struct {
	ArticleQID QID
	Total      uint64
}

// CategoryResult is one ranked entry of top_categories, carrying its top
// contributing articles alongside the category total.
type CategoryResult struct {
	CategoryQID QID
	Total       uint64
	TopArticles []ArticleTotal
}

// DeltaEntry is one ranked row of a category_delta or article_delta result.
type DeltaEntry struct {
	QID           QID
	BaselineViews uint64
	ImpactViews   uint64
	AbsoluteDelta int64
	DeltaPct      float64
}
