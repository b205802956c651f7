package bundle

import (
	"path/filepath"

	"git.home.luguber.info/inful/assetbuilder/internal/filter"
	"git.home.luguber.info/inful/assetbuilder/internal/incremental"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// Host supplies defaults for bundles that do not pin their own values.
type Host interface {
	BaseDir() string
	URLPrefix() string
	Debug() bool
}

// StaticHost is a Host with fixed values.
type StaticHost struct {
	Root    string
	Prefix  string
	IsDebug bool
}

func (h StaticHost) BaseDir() string   { return h.Root }
func (h StaticHost) URLPrefix() string { return h.Prefix }
func (h StaticHost) Debug() bool       { return h.IsDebug }

// Options is the resolved environment a bundle builds and reports URLs in.
type Options struct {
	BaseDir   string
	URLPrefix string
	Debug     bool

	// Filters runs filter chains; nil uses a default Runner.
	Filters *filter.Runner
	// Cache checks and persists source mtimes; nil uses a default MTimeCache.
	Cache *incremental.MTimeCache
	// Recorder receives build metrics; nil disables them.
	Recorder metrics.Recorder

	host Host
}

// ResolveOptions merges a bundle's own settings over the host defaults. A nil
// host behaves like an empty StaticHost rooted at the working directory.
func ResolveOptions(host Host, b *Bundle) Options {
	if host == nil {
		host = StaticHost{}
	}
	o := Options{
		BaseDir:   host.BaseDir(),
		URLPrefix: host.URLPrefix(),
		Debug:     host.Debug(),
		host:      host,
	}
	if b != nil {
		if b.baseDir != "" {
			o.BaseDir = b.baseDir
		}
		if b.urlPrefix != "" {
			o.URLPrefix = b.urlPrefix
		}
		if b.debug != nil {
			o.Debug = *b.debug
		}
	}
	if abs, err := filepath.Abs(o.BaseDir); err == nil {
		o.BaseDir = abs
	}
	return o
}

// For resolves options for a nested bundle against the same host, carrying
// over the runtime collaborators.
func (o Options) For(nested *Bundle) Options {
	n := ResolveOptions(o.hostOrSelf(), nested)
	n.Filters = o.Filters
	n.Cache = o.Cache
	n.Recorder = o.Recorder
	return n
}

func (o Options) hostOrSelf() Host {
	if o.host != nil {
		return o.host
	}
	return StaticHost{Root: o.BaseDir, Prefix: o.URLPrefix, IsDebug: o.Debug}
}

func (o Options) filters() *filter.Runner {
	if o.Filters == nil {
		return filter.NewRunner(filter.WithWorkingDir(o.BaseDir), filter.WithRecorder(o.recorder()))
	}
	return o.Filters
}

func (o Options) cache() *incremental.MTimeCache {
	if o.Cache == nil {
		return incremental.NewMTimeCache().WithRecorder(o.recorder())
	}
	return o.Cache
}

func (o Options) recorder() metrics.Recorder {
	if o.Recorder == nil {
		return metrics.NoopRecorder{}
	}
	return o.Recorder
}

// path joins p onto the base directory unless it is absolute.
func (o Options) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(o.BaseDir, p)
}
