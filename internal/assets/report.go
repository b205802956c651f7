package assets

import (
	"sort"
	"time"

	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
)

// Report summarizes one BuildAll pass.
type Report struct {
	ID       string
	Started  time.Time
	Duration time.Duration
	Results  map[string]*bundle.BuildResult
	Failed   []string
}

// Status condenses the pass into failed, built or skipped.
func (r *Report) Status() string {
	if len(r.Failed) > 0 {
		return "failed"
	}
	for _, res := range r.Results {
		if res.Status == bundle.BuildStatusBuilt {
			return "built"
		}
	}
	return "skipped"
}

// Count returns how many bundles ended with status s.
func (r *Report) Count(s bundle.BuildStatus) int {
	n := 0
	for _, res := range r.Results {
		if res.Status == s {
			n++
		}
	}
	return n
}

// Names lists the bundles with a result in sorted order.
func (r *Report) Names() []string {
	names := make([]string, 0, len(r.Results))
	for n := range r.Results {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Sources returns every source file read during the pass, deduplicated and
// sorted.
func (r *Report) Sources() []string {
	seen := map[string]bool{}
	var out []string
	for _, res := range r.Results {
		for _, s := range res.Sources {
			if !seen[s] {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	sort.Strings(out)
	return out
}
