package metrics

import (
	"context"
	"testing"
)

func TestNoopRecorderNeverPanics(t *testing.T) {
	r := NewNoop()
	ctx := context.Background()

	r.RecordCacheHit(ctx)
	r.RecordCacheMiss(ctx)
	r.RecordBuildDuration(ctx, "enwiki", 1.5)
	r.RecordQueryDuration(ctx, "enwiki", "top_categories", 0.02)

	if err := r.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown on noop recorder = %v, want nil", err)
	}
}

func TestNewPrometheusRegistersInstruments(t *testing.T) {
	r, handler, err := NewPrometheus()
	if err != nil {
		t.Fatalf("NewPrometheus() error = %v", err)
	}
	if handler == nil {
		t.Fatal("NewPrometheus() returned a nil handler")
	}

	ctx := context.Background()
	r.RecordCacheHit(ctx)
	r.RecordCacheMiss(ctx)
	r.RecordBuildDuration(ctx, "enwiki", 2.0)
	r.RecordQueryDuration(ctx, "enwiki", "category_trend", 0.01)

	if err := r.Shutdown(ctx); err != nil {
		t.Errorf("Shutdown() error = %v", err)
	}
}
