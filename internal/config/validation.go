package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/filter"
	"git.home.luguber.info/inful/assetbuilder/internal/retry"
)

type problem struct {
	field  string
	reason string
}

// configurationValidator collects every problem in one pass.
type configurationValidator struct {
	config   *Config
	problems []problem
}

// Validate checks the whole configuration. The first problem is returned as
// a validation error; any further ones are logged.
func Validate(cfg *Config) error {
	v := &configurationValidator{config: cfg}
	v.validateLogging()
	v.validateDurations()
	v.validateEvents()
	v.validateFilters()
	v.validateBundles()
	v.validateCycles()

	if len(v.problems) == 0 {
		return nil
	}
	for _, p := range v.problems[1:] {
		slog.Warn("Additional configuration problem", slog.String("field", p.field), slog.String("reason", p.reason))
	}
	first := v.problems[0]
	return aerrors.ValidationFailed(first.field, first.reason)
}

func (v *configurationValidator) addf(field, format string, args ...any) {
	v.problems = append(v.problems, problem{field: field, reason: fmt.Sprintf(format, args...)})
}

func (v *configurationValidator) validateLogging() {
	if _, err := ParseLogLevel(v.config.Logging.Level); err != nil {
		v.addf("logging.level", "%v", err)
	}
	if _, err := ParseLogFormat(v.config.Logging.Format); err != nil {
		v.addf("logging.format", "%v", err)
	}
}

func (v *configurationValidator) validateDurations() {
	if v.config.Build.FilterTimeout < 0 {
		v.addf("build.filter_timeout", "must not be negative")
	}
	if v.config.Watch.Debounce < 0 {
		v.addf("watch.debounce", "must not be negative")
	}
	if v.config.Watch.Interval < 0 {
		v.addf("watch.interval", "must not be negative")
	}
}

func (v *configurationValidator) validateEvents() {
	ev := v.config.Events
	if _, err := retry.ParseMode(ev.RetryBackoff); err != nil {
		v.addf("events.retry_backoff", "%v", err)
	}
	if ev.RetryInitial < 0 || ev.RetryMax < 0 {
		v.addf("events.retry_initial", "retry delays must not be negative")
	}
	if ev.MaxRetries != nil && *ev.MaxRetries < 0 {
		v.addf("events.max_retries", "must not be negative")
	}
}

func (v *configurationValidator) validateFilters() {
	for _, name := range sortedKeys(v.config.Filters) {
		field := "filters." + name
		if _, builtin := filter.Lookup(name); builtin {
			v.addf(field, "name shadows the predefined %q filter", name)
		}
		steps := v.config.Filters[name]
		if len(steps) == 0 {
			v.addf(field, "filter has no steps")
		}
		for i, s := range steps {
			if _, err := filter.ParseStep(s.Command, s.Mode); err != nil {
				v.addf(fmt.Sprintf("%s[%d]", field, i), "%s", reasonOf(err))
			}
		}
	}
}

func (v *configurationValidator) validateBundles() {
	if len(v.config.Bundles) == 0 {
		v.addf("bundles", "at least one bundle must be configured")
		return
	}
	for _, name := range sortedKeys(v.config.Bundles) {
		b := v.config.Bundles[name]
		field := "bundles." + name
		if strings.TrimSpace(name) == "" {
			v.addf("bundles", "bundle name cannot be empty")
		}
		if len(b.Contents) == 0 {
			v.addf(field+".contents", "bundle has no contents")
		}
		for i, c := range b.Contents {
			switch {
			case c.IsBundle():
				if _, ok := v.config.Bundles[c.Bundle]; !ok {
					v.addf(fmt.Sprintf("%s.contents[%d]", field, i), "unknown bundle %q", c.Bundle)
				}
			case strings.TrimSpace(c.Path) == "":
				v.addf(fmt.Sprintf("%s.contents[%d]", field, i), "entry is empty")
			}
		}
		if n := strings.Count(b.Output, bundle.Placeholder); n > 1 {
			v.addf(field+".output", "pattern has %d placeholders, at most one allowed", n)
		}
		for _, f := range b.Filters {
			if _, ok := v.config.chain(f); !ok {
				v.addf(field+".filters", "unknown filter %q", f)
			}
		}
	}
}

// validateCycles reports bundles that contain themselves through nesting.
func (v *configurationValidator) validateCycles() {
	const (
		unvisited = iota
		visiting
		done
	)
	state := map[string]int{}
	var visit func(name string, path []string)
	visit = func(name string, path []string) {
		switch state[name] {
		case visiting:
			v.addf("bundles."+name+".contents", "nesting cycle: %s", strings.Join(append(path, name), " -> "))
			return
		case done:
			return
		}
		state[name] = visiting
		for _, c := range v.config.Bundles[name].Contents {
			if c.IsBundle() {
				if _, ok := v.config.Bundles[c.Bundle]; ok {
					visit(c.Bundle, append(path, name))
				}
			}
		}
		state[name] = done
	}
	for _, name := range sortedKeys(v.config.Bundles) {
		if state[name] == unvisited {
			visit(name, nil)
		}
	}
}

func reasonOf(err error) string {
	if ae, ok := aerrors.As(err); ok {
		if r, ok := ae.Context["reason"].(string); ok {
			return r
		}
	}
	return err.Error()
}

func sortedKeys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
