package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wikicorpus/graphengine/pkg/pageview"
)

func TestLoadWikiList(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wikis.yaml")
	require.NoError(t, os.WriteFile(path, []byte("wikis:\n  - enwiki\n  - dewiki\n"), 0o644))

	list, err := LoadWikiList(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"enwiki", "dewiki"}, list.Wikis)
}

func TestWarmBuildsEveryListedWiki(t *testing.T) {
	r := New("")
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		return fakeEngine(wiki), nil
	}

	errs := r.Warm([]string{"enwiki", "dewiki", "frwiki"})
	assert.Empty(t, errs)
	assert.ElementsMatch(t, []string{"enwiki", "dewiki", "frwiki"}, r.Wikis())
}

func TestWarmCollectsPerWikiErrors(t *testing.T) {
	r := New("")
	r.build = func(wiki, dataDir string) (*pageview.Engine, error) {
		if wiki == "badwiki" {
			return nil, assert.AnError
		}
		return fakeEngine(wiki), nil
	}

	errs := r.Warm([]string{"enwiki", "badwiki"})
	assert.Len(t, errs, 1)
	assert.Contains(t, errs, "badwiki")
}
