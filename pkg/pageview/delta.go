package pageview

import (
	"sort"
	"time"
)

// deltaFrom is the shared math of spec.md §4.6 step 4: given a QID's total
// in the baseline and impact windows, produce the full delta row. The
// convention for baseline=0 avoids a division by zero while still
// signalling "this appeared from nothing."
func deltaFrom(qid QID, baseline, impact uint64) DeltaEntry {
	absDelta := int64(impact) - int64(baseline)
	var pct float64
	switch {
	case baseline == 0 && impact > 0:
		pct = 100
	case baseline == 0:
		pct = 0
	default:
		pct = 100 * float64(absDelta) / float64(baseline)
	}
	return DeltaEntry{
		QID:           qid,
		BaselineViews: baseline,
		ImpactViews:   impact,
		AbsoluteDelta: absDelta,
		DeltaPct:      pct,
	}
}

func sortByAbsDeltaDesc(entries []DeltaEntry) {
	sort.Slice(entries, func(i, j int) bool {
		ai, aj := absI64(entries[i].AbsoluteDelta), absI64(entries[j].AbsoluteDelta)
		if ai != aj {
			return ai > aj
		}
		return entries[i].QID < entries[j].QID
	})
}

func absI64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

func sumTrend(points []TrendPoint) uint64 {
	var total uint64
	for _, p := range points {
		total += p.Total
	}
	return total
}

// CategoryDelta implements category_delta: compare the top-N categories of
// a baseline window against an impact window, bringing in windowed totals
// (via category_trend at the given depth) for any category present in only
// one of the two top-N sets.
func (e *Engine) CategoryDelta(baselineStart, baselineEnd, impactStart, impactEnd time.Time, limit, depth int, now time.Time) ([]DeltaEntry, error) {
	baselineTop, err := e.TopCategories(baselineStart, baselineEnd, limit, now)
	if err != nil {
		return nil, err
	}
	impactTop, err := e.TopCategories(impactStart, impactEnd, limit, now)
	if err != nil {
		return nil, err
	}

	baseline := make(map[QID]uint64, len(baselineTop))
	for _, c := range baselineTop {
		baseline[c.CategoryQID] = c.Total
	}
	impact := make(map[QID]uint64, len(impactTop))
	for _, c := range impactTop {
		impact[c.CategoryQID] = c.Total
	}

	union := make(map[QID]struct{}, len(baseline)+len(impact))
	for qid := range baseline {
		union[qid] = struct{}{}
	}
	for qid := range impact {
		union[qid] = struct{}{}
	}

	entries := make([]DeltaEntry, 0, len(union))
	for qid := range union {
		b, bOK := baseline[qid]
		if !bOK {
			points, err := e.CategoryTrend(qid, depth, baselineStart, baselineEnd)
			if err != nil {
				return nil, err
			}
			b = sumTrend(points)
		}
		i, iOK := impact[qid]
		if !iOK {
			points, err := e.CategoryTrend(qid, depth, impactStart, impactEnd)
			if err != nil {
				return nil, err
			}
			i = sumTrend(points)
		}
		entries = append(entries, deltaFrom(qid, b, i))
	}

	sortByAbsDeltaDesc(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

// ArticleDelta implements article_delta: compare the top-N articles within
// category c between a baseline window and an impact window, backfilling
// windowed totals (via article_trend) for any article present in only one
// side's top-N set.
func (e *Engine) ArticleDelta(c QID, baselineStart, baselineEnd, impactStart, impactEnd time.Time, limit, depth int, now time.Time) ([]DeltaEntry, error) {
	baselineTop, err := e.TopArticlesInCategory(c, baselineStart, baselineEnd, depth, limit)
	if err != nil {
		return nil, err
	}
	impactTop, err := e.TopArticlesInCategory(c, impactStart, impactEnd, depth, limit)
	if err != nil {
		return nil, err
	}

	baseline := make(map[QID]uint64, len(baselineTop))
	for _, a := range baselineTop {
		baseline[a.ArticleQID] = a.Total
	}
	impact := make(map[QID]uint64, len(impactTop))
	for _, a := range impactTop {
		impact[a.ArticleQID] = a.Total
	}

	union := make(map[QID]struct{}, len(baseline)+len(impact))
	for qid := range baseline {
		union[qid] = struct{}{}
	}
	for qid := range impact {
		union[qid] = struct{}{}
	}

	entries := make([]DeltaEntry, 0, len(union))
	for qid := range union {
		b, bOK := baseline[qid]
		if !bOK {
			points, err := e.ArticleTrend(qid, baselineStart, baselineEnd)
			if err != nil {
				return nil, err
			}
			b = sumTrend(points)
		}
		i, iOK := impact[qid]
		if !iOK {
			points, err := e.ArticleTrend(qid, impactStart, impactEnd)
			if err != nil {
				return nil, err
			}
			i = sumTrend(points)
		}
		entries = append(entries, deltaFrom(qid, b, i))
	}

	sortByAbsDeltaDesc(entries)
	if len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}
