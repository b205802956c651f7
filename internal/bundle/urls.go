package bundle

import (
	"path/filepath"
	"strings"
)

// URLs lists the public URLs for the bundle. In debug mode every flattened
// source gets its own URL; otherwise the latest combined artifact is
// returned, falling back to the source listing when nothing was built yet.
// A nil debug uses opts.Debug.
func (b *Bundle) URLs(opts Options, debug *bool) ([]string, error) {
	d := opts.Debug
	if debug != nil {
		d = *debug
	}
	if !d {
		if p, ok := b.LatestCombinedPath(opts); ok {
			return []string{urlFor(opts, p)}, nil
		}
	}
	files, err := b.Flatten(opts)
	if err != nil {
		return nil, err
	}
	urls := make([]string, 0, len(files))
	for _, f := range files {
		urls = append(urls, urlFor(opts, f))
	}
	return urls, nil
}

// urlFor maps a file path to prefix + path relative to the base directory.
// Paths outside the base directory keep their absolute form.
func urlFor(opts Options, path string) string {
	base := realPath(opts.BaseDir)
	p := realPath(path)

	rel := filepath.ToSlash(p)
	if r, err := filepath.Rel(base, p); err == nil && r != ".." && !strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		rel = "/" + filepath.ToSlash(r)
	} else if !strings.HasPrefix(rel, "/") {
		rel = "/" + rel
	}
	return strings.TrimRight(opts.URLPrefix, "/") + rel
}

func realPath(p string) string {
	abs, err := filepath.Abs(p)
	if err != nil {
		abs = p
	}
	if real, err := filepath.EvalSymlinks(abs); err == nil {
		return real
	}
	return abs
}
