// Package assets keeps a named collection of bundles sharing one host
// environment and builds them together.
package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/events"
	"git.home.luguber.info/inful/assetbuilder/internal/filter"
	"git.home.luguber.info/inful/assetbuilder/internal/incremental"
	"git.home.luguber.info/inful/assetbuilder/internal/logfields"
	"git.home.luguber.info/inful/assetbuilder/internal/manifest"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
	"git.home.luguber.info/inful/assetbuilder/internal/observability"
)

// Registry is a named collection of bundles.
type Registry struct {
	mu      sync.RWMutex
	bundles map[string]*bundle.Bundle

	host      bundle.Host
	runner    *filter.Runner
	cache     *incremental.MTimeCache
	recorder  metrics.Recorder
	publisher events.Publisher
}

// Option configures a Registry.
type Option func(*Registry)

// WithFilterRunner sets the runner used for every bundle's filters.
func WithFilterRunner(r *filter.Runner) Option { return func(reg *Registry) { reg.runner = r } }

// WithRecorder sets the metrics recorder.
func WithRecorder(rec metrics.Recorder) Option {
	return func(reg *Registry) {
		if rec != nil {
			reg.recorder = rec
		}
	}
}

// WithPublisher sets where build events go.
func WithPublisher(p events.Publisher) Option {
	return func(reg *Registry) {
		if p != nil {
			reg.publisher = p
		}
	}
}

// NewRegistry creates an empty registry bound to host.
func NewRegistry(host bundle.Host, opts ...Option) *Registry {
	r := &Registry{
		bundles:   map[string]*bundle.Bundle{},
		host:      host,
		recorder:  metrics.NoopRecorder{},
		publisher: events.NoopPublisher{},
	}
	for _, o := range opts {
		o(r)
	}
	r.cache = incremental.NewMTimeCache().WithRecorder(r.recorder)
	if r.runner == nil {
		r.runner = filter.NewRunner(filter.WithRecorder(r.recorder))
	}
	return r
}

// Register adds a bundle under name. Names are unique.
func (r *Registry) Register(name string, b *bundle.Bundle) error {
	if name == "" {
		return aerrors.ValidationFailed("bundles", "bundle name is empty")
	}
	if b == nil {
		return aerrors.ValidationFailed("bundles."+name, "bundle is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.bundles[name]; exists {
		return aerrors.ValidationFailed("bundles."+name, "bundle already registered")
	}
	r.bundles[name] = b
	return nil
}

// Get returns the bundle registered under name.
func (r *Registry) Get(name string) (*bundle.Bundle, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.bundles[name]
	return b, ok
}

// Names lists registered bundle names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.bundles))
	for n := range r.bundles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Options resolves the build options for a registered bundle.
func (r *Registry) Options(name string) (bundle.Options, error) {
	b, ok := r.Get(name)
	if !ok {
		return bundle.Options{}, unknownBundle(name)
	}
	return r.optionsFor(b), nil
}

func (r *Registry) optionsFor(b *bundle.Bundle) bundle.Options {
	opts := bundle.ResolveOptions(r.host, b)
	opts.Filters = r.runner
	opts.Cache = r.cache
	opts.Recorder = r.recorder
	return opts
}

// URLs returns the URLs of a registered bundle; see bundle.Bundle.URLs.
func (r *Registry) URLs(name string, debug *bool) ([]string, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, unknownBundle(name)
	}
	return b.URLs(r.optionsFor(b), debug)
}

// Build builds one registered bundle and publishes its outcome.
func (r *Registry) Build(ctx context.Context, name string) (*bundle.BuildResult, error) {
	b, ok := r.Get(name)
	if !ok {
		return nil, unknownBundle(name)
	}
	opts := r.optionsFor(b)
	res, err := b.Build(observability.WithBundle(ctx, name), opts)
	if err != nil {
		return nil, fmt.Errorf("bundle %s: %w", name, err)
	}
	if res.Bundle == "" {
		res.Bundle = name
	}
	r.publish(ctx, name, b, opts, res)
	return res, nil
}

// BuildAll builds every bundle sequentially in name order. A failing bundle
// does not stop the others; all failures are joined into the returned error.
func (r *Registry) BuildAll(ctx context.Context) (*Report, error) {
	return r.BuildNames(ctx, r.Names())
}

// BuildNames builds the named bundles in the given order with the same
// failure handling as BuildAll. Unknown names fail before anything is built.
func (r *Registry) BuildNames(ctx context.Context, names []string) (*Report, error) {
	for _, name := range names {
		if _, ok := r.Get(name); !ok {
			return nil, unknownBundle(name)
		}
	}
	report := &Report{ID: uuid.NewString(), Started: time.Now(), Results: map[string]*bundle.BuildResult{}}
	ctx = observability.WithBuildID(ctx, report.ID)

	var errs []error
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		res, err := r.Build(ctx, name)
		if err != nil {
			report.Failed = append(report.Failed, name)
			errs = append(errs, err)
			continue
		}
		report.Results[name] = res
	}
	report.Duration = time.Since(report.Started)

	observability.InfoContext(ctx, "Build pass complete",
		logfields.Status(report.Status()),
		logfields.DurationMS(float64(report.Duration.Microseconds())/1000))
	return report, errors.Join(errs...)
}

func (r *Registry) publish(ctx context.Context, name string, b *bundle.Bundle, opts bundle.Options, res *bundle.BuildResult) {
	if res.Status != bundle.BuildStatusBuilt {
		return
	}
	ev := events.BundleEvent{
		Type:       events.TypeBundleBuilt,
		BuildID:    res.BuildID,
		Bundle:     name,
		Status:     string(res.Status),
		Output:     res.OutputPath,
		Hash:       res.Hash,
		Sources:    len(res.Sources),
		DurationMS: res.Duration.Milliseconds(),
	}
	if res.Written {
		debug := false
		if urls, err := b.URLs(opts, &debug); err == nil && len(urls) == 1 {
			ev.URL = urls[0]
		}
	}
	if err := r.publisher.Publish(ctx, ev); err != nil {
		observability.WarnContext(ctx, "Failed to publish bundle event", logfields.Bundle(name), logfields.Error(err))
	}
}

// Manifest describes the current artifact of every registered bundle.
// Bundles skipped in this pass, or left out of it, report the artifact left
// by an earlier build.
func (r *Registry) Manifest(report *Report) *manifest.BuildManifest {
	m := manifest.New(report.ID, report.Started.UTC())
	m.Status = report.Status()
	m.Duration = report.Duration.Milliseconds()

	failed := make(map[string]bool, len(report.Failed))
	for _, name := range report.Failed {
		failed[name] = true
	}
	for _, name := range r.Names() {
		b, _ := r.Get(name)
		opts := r.optionsFor(b)
		entry := manifest.Entry{Status: string(bundle.BuildStatusSkipped)}
		if failed[name] {
			entry.Status = "failed"
		}

		if res, ok := report.Results[name]; ok {
			entry.BuildID = res.BuildID
			entry.Status = string(res.Status)
			entry.Sources = res.Sources
			entry.Hash = res.Hash
		}
		if p, ok := b.LatestCombinedPath(opts); ok {
			entry.Output = p
			if entry.Hash == "" {
				entry.Hash, _ = b.HashFromPath(opts, p)
			}
		}
		debug := false
		if urls, err := b.URLs(opts, &debug); err == nil {
			if entry.Output != "" && len(urls) == 1 {
				entry.URL = urls[0]
			} else {
				entry.URLs = urls
			}
		}
		m.Bundles[name] = entry
	}
	return m
}

// IsArtifact reports whether path is something a registered bundle writes:
// a combined output or an mtime cache file.
func (r *Registry) IsArtifact(path string) bool {
	for _, name := range r.Names() {
		b, _ := r.Get(name)
		opts := r.optionsFor(b)
		if c := b.CachePath(opts); c != "" && filepath.Clean(path) == c {
			return true
		}
		if b.Output() == "" {
			continue
		}
		if _, ok := b.HashFromPath(opts, path); ok {
			return true
		}
		if !b.HasPlaceholder() && b.OutputPath(opts, nil) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

func unknownBundle(name string) error {
	return aerrors.ValidationFailed("bundle", fmt.Sprintf("unknown bundle %q", name))
}
