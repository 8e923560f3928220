package registry

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// WikiList is the optional wikis.yaml bootstrap file naming which wikis to
// warm at process start. Listing a wiki here only changes when its engine
// gets built — eagerly at startup instead of on first query — never the
// underlying lazy-build-once-keep-forever semantics of GetOrBuild.
type WikiList struct {
	Wikis []string `yaml:"wikis"`
}

// LoadWikiList reads and parses a wikis.yaml bootstrap file.
func LoadWikiList(path string) (WikiList, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return WikiList{}, fmt.Errorf("registry: read wiki list %s: %w", path, err)
	}
	var list WikiList
	if err := yaml.Unmarshal(raw, &list); err != nil {
		return WikiList{}, fmt.Errorf("registry: parse wiki list %s: %w", path, err)
	}
	return list, nil
}

// Warm builds an engine for every wiki in the list concurrently, so a
// cold-start deployment can pay the multi-second build cost for its known
// wikis up front rather than on a user's first query. Errors are collected
// per wiki rather than aborting the whole warm-up.
func (r *Registry) Warm(wikis []string) map[string]error {
	errs := make(map[string]error)
	var mu sync.Mutex
	var wg sync.WaitGroup

	for _, wiki := range wikis {
		wg.Add(1)
		go func(wiki string) {
			defer wg.Done()
			if _, err := r.GetOrBuild(wiki); err != nil {
				mu.Lock()
				errs[wiki] = err
				mu.Unlock()
			}
		}(wiki)
	}
	wg.Wait()
	return errs
}
