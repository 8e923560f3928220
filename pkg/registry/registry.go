// Package registry implements the Engine Registry (C7) of spec.md §4.7: a
// process-wide map from wiki code to a shared, lazily-built page-view
// engine. Builds are serialized per wiki but never block other wikis, via
// the double-checked-locking shape the teacher's storage engines use for
// lazy singleton initialization (pkg/cache.GlobalQueryCache's sync.Once,
// generalized here to a per-key variant since the key space is open-ended
// wiki codes rather than a single global instance).
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/wikicorpus/graphengine/pkg/engineerr"
	"github.com/wikicorpus/graphengine/pkg/graph"
	"github.com/wikicorpus/graphengine/pkg/metrics"
	"github.com/wikicorpus/graphengine/pkg/pageview"
)

// buildFunc constructs a fully built engine for wiki, given the data root.
// Exposed as a field so tests can substitute a cheap fake builder instead
// of parquet.ReadFile against real snapshot files.
type buildFunc func(wiki, dataDir string) (*pageview.Engine, error)

// Registry owns one *pageview.Engine per wiki, built on first access and
// kept for the process lifetime. Nothing is ever evicted in the baseline
// design (spec.md §4.7); a production deployment may layer an LRU on top.
type Registry struct {
	mu      sync.Mutex
	dataDir string
	engines map[string]*pageview.Engine

	// building holds an in-flight build's completion signal per wiki, so
	// concurrent GetOrBuild calls for the same wiki wait on the same
	// build instead of racing to build it twice.
	building map[string]*buildWait
	build    buildFunc
	recorder *metrics.Recorder
}

type buildWait struct {
	done   chan struct{}
	engine *pageview.Engine
	err    error
}

// New creates a registry that builds engines from snapshot files under
// dataDir using the default graph.Build + pageview.NewEngine pipeline.
func New(dataDir string) *Registry {
	r := &Registry{
		dataDir:  dataDir,
		engines:  make(map[string]*pageview.Engine),
		building: make(map[string]*buildWait),
		recorder: metrics.NewNoop(),
	}
	r.build = r.defaultBuild
	return r
}

// SetRecorder wires a live metrics recorder into the registry: every engine
// built from this point on (and the build duration of the build itself)
// reports through it. A nil recorder is ignored.
func (r *Registry) SetRecorder(rec *metrics.Recorder) {
	if rec != nil {
		r.recorder = rec
	}
}

func (r *Registry) defaultBuild(wiki, dataDir string) (*pageview.Engine, error) {
	start := time.Now()
	g, err := graph.Build(wiki, dataDir)
	r.recorder.RecordBuildDuration(context.Background(), wiki, time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	e := pageview.NewEngine(wiki, dataDir, g)
	e.SetRecorder(r.recorder)
	return e, nil
}

// GetOrBuild returns the existing engine for wiki, or synchronously builds
// one on first access. The registry's own lock is held only for the map
// operations (checking/recording the in-flight build), never across the
// multi-second build itself, per spec.md §5's "must not block reads for
// other wikis" requirement. A second caller for the same wiki while a
// build is already in flight waits on that build rather than starting its
// own.
func (r *Registry) GetOrBuild(wiki string) (*pageview.Engine, error) {
	r.mu.Lock()
	if e, ok := r.engines[wiki]; ok {
		r.mu.Unlock()
		return e, nil
	}
	if w, ok := r.building[wiki]; ok {
		r.mu.Unlock()
		<-w.done
		return w.engine, w.err
	}

	w := &buildWait{done: make(chan struct{})}
	r.building[wiki] = w
	r.mu.Unlock()

	engine, err := r.build(wiki, r.dataDir)

	r.mu.Lock()
	delete(r.building, wiki)
	if err == nil {
		r.engines[wiki] = engine
	}
	r.mu.Unlock()

	w.engine, w.err = engine, err
	close(w.done)
	return engine, err
}

// Get returns the already-built engine for wiki without triggering a
// build, or engineerr.NotFound if none exists yet.
func (r *Registry) Get(wiki string) (*pageview.Engine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.engines[wiki]
	if !ok {
		return nil, engineerr.New(engineerr.KindNotFound, "registry.Get", nil)
	}
	return e, nil
}

// Wikis returns the codes of every wiki with a built engine, for operator
// diagnostics.
func (r *Registry) Wikis() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.engines))
	for wiki := range r.engines {
		out = append(out, wiki)
	}
	return out
}
