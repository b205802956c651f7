package bundle

import (
	"fmt"
	"strings"
	"sync"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/filter"
)

// Placeholder marks where the content hash goes in an output pattern.
const Placeholder = "%s"

// Bundle is an immutable asset bundle definition.
type Bundle struct {
	name      string
	contents  []Content
	output    string
	filters   []filter.Chain
	baseDir   string
	urlPrefix string
	debug     *bool
	build     bool
	cacheFile string

	// mu serializes Build; held by pointer so copies share it.
	mu *sync.Mutex
}

// Option configures a Bundle at construction time.
type Option func(*Bundle)

// WithName labels the bundle in logs, metrics and manifests.
func WithName(name string) Option { return func(b *Bundle) { b.name = name } }

// WithOutput sets the output pattern. At most one %s placeholder is allowed.
func WithOutput(pattern string) Option { return func(b *Bundle) { b.output = pattern } }

// WithFilters appends filter chains, applied in order.
func WithFilters(chains ...filter.Chain) Option {
	return func(b *Bundle) { b.filters = append(b.filters, chains...) }
}

// WithBaseDir overrides the host base directory.
func WithBaseDir(dir string) Option { return func(b *Bundle) { b.baseDir = dir } }

// WithURLPrefix overrides the host URL prefix.
func WithURLPrefix(prefix string) Option { return func(b *Bundle) { b.urlPrefix = prefix } }

// WithDebug pins the debug flag instead of inheriting it from the host.
func WithDebug(debug bool) Option {
	return func(b *Bundle) { b.debug = &debug }
}

// WithBuild enables or disables building. Bundles build by default.
func WithBuild(enabled bool) Option { return func(b *Bundle) { b.build = enabled } }

// WithCacheFile sets the staleness cache location, relative to the base
// directory unless absolute.
func WithCacheFile(path string) Option { return func(b *Bundle) { b.cacheFile = path } }

// New validates and creates a bundle.
func New(contents []Content, opts ...Option) (*Bundle, error) {
	b := &Bundle{
		contents: append([]Content(nil), contents...),
		build:    true,
		mu:       &sync.Mutex{},
	}
	for _, o := range opts {
		o(b)
	}
	if err := b.validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// MustNew is New for static declarations; it panics on invalid input.
func MustNew(contents []Content, opts ...Option) *Bundle {
	b, err := New(contents, opts...)
	if err != nil {
		panic(err)
	}
	return b
}

func (b *Bundle) validate() error {
	field := func(f string) string {
		if b.name == "" {
			return f
		}
		return fmt.Sprintf("bundles.%s.%s", b.name, f)
	}

	if n := strings.Count(b.output, Placeholder); n > 1 {
		return aerrors.ValidationFailed(field("output"), fmt.Sprintf("pattern %q has %d placeholders, at most one allowed", b.output, n))
	}
	for i, c := range b.contents {
		switch c.kind {
		case KindFile, KindGlob:
			if strings.TrimSpace(c.spec) == "" {
				return aerrors.ValidationFailed(field("contents"), fmt.Sprintf("entry %d is empty", i))
			}
		case KindNested:
			if c.bundle == nil {
				return aerrors.ValidationFailed(field("contents"), fmt.Sprintf("entry %d references a nil bundle", i))
			}
			if c.bundle == b {
				return aerrors.ValidationFailed(field("contents"), "bundle cannot contain itself")
			}
		default:
			return aerrors.ValidationFailed(field("contents"), fmt.Sprintf("entry %d has unknown kind %s", i, c.kind))
		}
	}
	for _, chain := range b.filters {
		for _, step := range chain {
			if _, err := filter.ParseStep(step.Command, string(step.Mode)); err != nil {
				return err
			}
		}
	}
	return nil
}

// Name returns the bundle label, possibly empty.
func (b *Bundle) Name() string { return b.name }

// Contents returns a copy of the declared contents.
func (b *Bundle) Contents() []Content { return append([]Content(nil), b.contents...) }

// Output returns the output pattern.
func (b *Bundle) Output() string { return b.output }

// Filters returns a copy of the filter chains.
func (b *Bundle) Filters() []filter.Chain { return append([]filter.Chain(nil), b.filters...) }

// BuildEnabled reports whether Build produces output.
func (b *Bundle) BuildEnabled() bool { return b.build }

// CacheFile returns the configured cache path as declared.
func (b *Bundle) CacheFile() string { return b.cacheFile }

// CachePath resolves the cache file against opts, or "" when unset.
func (b *Bundle) CachePath(opts Options) string { return opts.path(b.cacheFile) }

// Debug returns the pinned debug flag, nil when inherited.
func (b *Bundle) Debug() *bool {
	if b.debug == nil {
		return nil
	}
	d := *b.debug
	return &d
}

// HasPlaceholder reports whether the output pattern is content addressed.
func (b *Bundle) HasPlaceholder() bool { return strings.Contains(b.output, Placeholder) }

func (b *Bundle) label() string {
	if b.name != "" {
		return b.name
	}
	return "<anonymous>"
}
