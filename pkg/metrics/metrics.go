// Package metrics wires OpenTelemetry metrics instruments into the graph
// build pipeline, the page-view engine, and the top-N query cache — the
// DOMAIN STACK's observability surface. Tracing setup is explicitly out of
// scope (spec.md §1's non-goal list); this package only ever registers
// metric instruments and an optional Prometheus exporter.
package metrics

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

const meterName = "github.com/wikicorpus/graphengine"

// Recorder holds the instruments this module emits. A zero-value Recorder
// (as returned by NewNoop) is safe to use everywhere; every Record* method
// silently no-ops if the underlying instrument is nil.
type Recorder struct {
	provider *sdkmetric.MeterProvider

	cacheHits    metric.Int64Counter
	cacheMisses  metric.Int64Counter
	buildSeconds metric.Float64Histogram
	querySeconds metric.Float64Histogram
}

// NewNoop returns a Recorder whose Record* calls are all no-ops, for
// callers that haven't enabled metrics (config.Config.MetricsEnabled =
// false).
func NewNoop() *Recorder { return &Recorder{} }

// NewPrometheus builds a Recorder backed by a Prometheus exporter, and
// returns an http.Handler serving the exposition format at the caller's
// chosen path (conventionally /metrics).
func NewPrometheus() (*Recorder, http.Handler, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return nil, nil, fmt.Errorf("metrics: create prometheus exporter: %w", err)
	}
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter(meterName)

	r := &Recorder{provider: provider}

	r.cacheHits, err = meter.Int64Counter("topn_cache_hits_total",
		metric.WithDescription("top-N query cache hits"))
	if err != nil {
		return nil, nil, err
	}
	r.cacheMisses, err = meter.Int64Counter("topn_cache_misses_total",
		metric.WithDescription("top-N query cache misses"))
	if err != nil {
		return nil, nil, err
	}
	r.buildSeconds, err = meter.Float64Histogram("graph_build_seconds",
		metric.WithDescription("wall-clock time to build one wiki's graph"))
	if err != nil {
		return nil, nil, err
	}
	r.querySeconds, err = meter.Float64Histogram("query_seconds",
		metric.WithDescription("wall-clock time per page-view query, by operation"))
	if err != nil {
		return nil, nil, err
	}

	return r, promHTTPHandler(), nil
}

// RecordCacheHit increments the top-N cache hit counter.
func (r *Recorder) RecordCacheHit(ctx context.Context) {
	if r.cacheHits != nil {
		r.cacheHits.Add(ctx, 1)
	}
}

// RecordCacheMiss increments the top-N cache miss counter.
func (r *Recorder) RecordCacheMiss(ctx context.Context) {
	if r.cacheMisses != nil {
		r.cacheMisses.Add(ctx, 1)
	}
}

// RecordBuildDuration records how long a graph.Build call took for wiki.
func (r *Recorder) RecordBuildDuration(ctx context.Context, wiki string, seconds float64) {
	if r.buildSeconds != nil {
		r.buildSeconds.Record(ctx, seconds, metric.WithAttributes(wikiAttr(wiki)))
	}
}

// RecordQueryDuration records how long a named page-view operation took
// for wiki.
func (r *Recorder) RecordQueryDuration(ctx context.Context, wiki, operation string, seconds float64) {
	if r.querySeconds != nil {
		r.querySeconds.Record(ctx, seconds, metric.WithAttributes(wikiAttr(wiki), operationAttr(operation)))
	}
}

// Shutdown flushes and stops the underlying meter provider, if any.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.provider == nil {
		return nil
	}
	return r.provider.Shutdown(ctx)
}
