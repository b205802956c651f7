package config

import (
	"git.home.luguber.info/inful/assetbuilder/internal/assets"
	"git.home.luguber.info/inful/assetbuilder/internal/bundle"
	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/filter"
	"git.home.luguber.info/inful/assetbuilder/internal/metrics"
)

// chain resolves a filter name against custom filters, then predefined ones.
func (c *Config) chain(name string) (filter.Chain, bool) {
	if steps, ok := c.Filters[name]; ok {
		chain := make(filter.Chain, 0, len(steps))
		for _, s := range steps {
			step, err := filter.ParseStep(s.Command, s.Mode)
			if err != nil {
				return nil, false
			}
			chain = append(chain, step)
		}
		return chain, true
	}
	return filter.Lookup(name)
}

// HostDefaults returns the host defaults bundles inherit.
func (c *Config) HostDefaults() bundle.StaticHost {
	return bundle.StaticHost{Root: c.BaseDir(), Prefix: c.Host.URLPrefix, IsDebug: c.Host.Debug}
}

// FilterRunner creates the runner all bundles share.
func (c *Config) FilterRunner(rec metrics.Recorder) *filter.Runner {
	return filter.NewRunner(
		filter.WithTimeout(c.Build.FilterTimeout),
		filter.WithWorkingDir(c.BaseDir()),
		filter.WithRecorder(rec),
	)
}

// BuildBundles turns every bundle declaration into a bundle.Bundle. Nested
// references share the same instance.
func (c *Config) BuildBundles() (map[string]*bundle.Bundle, error) {
	built := make(map[string]*bundle.Bundle, len(c.Bundles))
	var buildOne func(name string, stack map[string]bool) (*bundle.Bundle, error)
	buildOne = func(name string, stack map[string]bool) (*bundle.Bundle, error) {
		if b, ok := built[name]; ok {
			return b, nil
		}
		bc, ok := c.Bundles[name]
		if !ok {
			return nil, aerrors.ValidationFailed("bundles", "unknown bundle "+name)
		}
		if stack[name] {
			return nil, aerrors.ValidationFailed("bundles."+name+".contents", "nesting cycle")
		}
		stack[name] = true
		defer delete(stack, name)

		contents := make([]bundle.Content, 0, len(bc.Contents))
		for _, entry := range bc.Contents {
			if entry.IsBundle() {
				nested, err := buildOne(entry.Bundle, stack)
				if err != nil {
					return nil, err
				}
				contents = append(contents, bundle.Nested(nested))
				continue
			}
			contents = append(contents, bundle.Parse(entry.Path))
		}

		opts := []bundle.Option{
			bundle.WithName(name),
			bundle.WithOutput(bc.Output),
			bundle.WithCacheFile(bc.CacheFile),
			bundle.WithURLPrefix(bc.URLPrefix),
		}
		if bc.BaseDir != "" {
			opts = append(opts, bundle.WithBaseDir(c.Resolve(bc.BaseDir)))
		}
		if bc.Debug != nil {
			opts = append(opts, bundle.WithDebug(*bc.Debug))
		}
		if bc.Build != nil {
			opts = append(opts, bundle.WithBuild(*bc.Build))
		}
		for _, f := range bc.Filters {
			chain, ok := c.chain(f)
			if !ok {
				return nil, aerrors.ValidationFailed("bundles."+name+".filters", "unknown filter "+f)
			}
			opts = append(opts, bundle.WithFilters(chain))
		}

		b, err := bundle.New(contents, opts...)
		if err != nil {
			return nil, err
		}
		built[name] = b
		return b, nil
	}

	for _, name := range sortedKeys(c.Bundles) {
		if _, err := buildOne(name, map[string]bool{}); err != nil {
			return nil, err
		}
	}
	return built, nil
}

// NewRegistry builds every bundle and registers it under its configured name.
func (c *Config) NewRegistry(opts ...assets.Option) (*assets.Registry, error) {
	bundles, err := c.BuildBundles()
	if err != nil {
		return nil, err
	}
	reg := assets.NewRegistry(c.HostDefaults(), opts...)
	for _, name := range sortedKeys(bundles) {
		if err := reg.Register(name, bundles[name]); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
