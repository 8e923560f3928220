package registry

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikicorpus/graphengine/pkg/engineerr"
	"github.com/wikicorpus/graphengine/pkg/pageview"
)

func fakeEngine(wiki string) *pageview.Engine {
	return pageview.NewEngine(wiki, "", nil)
}

func TestGetOrBuildBuildsOnce(t *testing.T) {
	r := New("")
	var calls int64
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		atomic.AddInt64(&calls, 1)
		time.Sleep(10 * time.Millisecond)
		return fakeEngine(wiki), nil
	}

	const n = 20
	var wg sync.WaitGroup
	results := make([]*pageview.Engine, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			e, err := r.GetOrBuild("enwiki")
			require.NoError(t, err)
			results[i] = e
		}(i)
	}
	wg.Wait()

	assert.EqualValues(t, 1, atomic.LoadInt64(&calls), "build function should run exactly once for a concurrently-requested wiki")
	for _, e := range results {
		assert.Same(t, results[0], e, "every caller must observe the same engine instance")
	}
}

func TestGetOrBuildDifferentWikisConcurrent(t *testing.T) {
	r := New("")
	release := make(chan struct{})
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		<-release
		return fakeEngine(wiki), nil
	}

	done := make(chan struct{})
	go func() {
		_, _ = r.GetOrBuild("enwiki")
		close(done)
	}()

	// A build for a different wiki must not be blocked by enwiki's
	// in-flight build: the registry lock is held only for map ops.
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		return fakeEngine(wiki), nil
	}
	e, err := r.GetOrBuild("dewiki")
	require.NoError(t, err)
	assert.Equal(t, "dewiki", e.Wiki())

	close(release)
	<-done
}

func TestGetReturnsNotFoundBeforeBuild(t *testing.T) {
	r := New("")
	_, err := r.Get("frwiki")
	assert.ErrorIs(t, err, engineerr.NotFound)
}

func TestGetAfterBuildSucceeds(t *testing.T) {
	r := New("")
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		return fakeEngine(wiki), nil
	}
	_, err := r.GetOrBuild("frwiki")
	require.NoError(t, err)

	e, err := r.Get("frwiki")
	require.NoError(t, err)
	assert.Equal(t, "frwiki", e.Wiki())
}
