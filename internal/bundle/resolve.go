package bundle

import (
	"fmt"
	"os"
	"path/filepath"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
)

// Source is one resolved content entry: an absolute file path or a nested
// bundle.
type Source struct {
	Path   string
	Bundle *Bundle
}

// IsBundle reports whether the source is a nested bundle.
func (s Source) IsBundle() bool { return s.Bundle != nil }

// Resolve expands the declared contents into sources, preserving declared
// order. Globs expand to the files they match, nested bundles are kept as
// references and literal paths must name an existing file.
func (b *Bundle) Resolve(opts Options) ([]Source, error) {
	var out []Source
	for _, c := range b.contents {
		switch c.kind {
		case KindNested:
			out = append(out, Source{Bundle: c.bundle})
		case KindGlob:
			matches, err := expandGlob(opts.BaseDir, c.spec)
			if err != nil {
				return nil, aerrors.Wrap(err, aerrors.CategorySource, aerrors.SeverityFatal, "glob expansion failed").
					WithContext("source", c.spec)
			}
			for _, m := range matches {
				p, ok := realFile(m)
				if !ok {
					continue
				}
				out = append(out, Source{Path: p})
			}
		case KindFile:
			p, err := resolveFile(opts, c.spec)
			if err != nil {
				return nil, err
			}
			out = append(out, Source{Path: p})
		default:
			return nil, aerrors.InternalError(fmt.Sprintf("unknown content kind %s", c.kind), nil)
		}
	}
	return out, nil
}

// Flatten returns every file contributing to the bundle, expanding nested
// bundles depth first.
func (b *Bundle) Flatten(opts Options) ([]string, error) {
	return b.flatten(opts, map[*Bundle]bool{})
}

func (b *Bundle) flatten(opts Options, visiting map[*Bundle]bool) ([]string, error) {
	if visiting[b] {
		return nil, cycleError(b)
	}
	visiting[b] = true
	defer delete(visiting, b)

	sources, err := b.Resolve(opts)
	if err != nil {
		return nil, err
	}
	files := make([]string, 0, len(sources))
	for _, s := range sources {
		if !s.IsBundle() {
			files = append(files, s.Path)
			continue
		}
		nested, err := s.Bundle.flatten(opts.For(s.Bundle), visiting)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}

func cycleError(b *Bundle) error {
	return aerrors.ValidationFailed("contents", fmt.Sprintf("bundle %s is nested inside itself", b.label()))
}

// resolveFile looks for spec under the base directory first, then relative
// to the working directory.
func resolveFile(opts Options, spec string) (string, error) {
	candidates := []string{opts.path(spec)}
	if !filepath.IsAbs(spec) {
		if abs, err := filepath.Abs(spec); err == nil {
			candidates = append(candidates, abs)
		}
	}
	for _, c := range candidates {
		if p, ok := realFile(c); ok {
			return p, nil
		}
	}
	return "", aerrors.SourceNotFound(spec)
}

// realFile evaluates symlinks and reports whether the target is a regular file.
func realFile(path string) (string, bool) {
	real, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	info, err := os.Stat(real)
	if err != nil || !info.Mode().IsRegular() {
		return "", false
	}
	return real, true
}
