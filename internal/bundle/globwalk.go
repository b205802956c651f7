package bundle

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

const globMeta = "*?[{\\"

// expandGlob returns the regular files matching spec under base in lexical
// walk order. Only spec is a pattern; base is matched literally. `*`, `?`
// and `[...]` stay within one path segment; `**` crosses directories.
// Wildcards skip dot-prefixed names unless the pattern spells out a leading
// dot. A pattern whose fixed prefix does not exist matches nothing.
func expandGlob(base, spec string) ([]string, error) {
	slashed := filepath.ToSlash(spec)
	segments := strings.Split(slashed, "/")
	fixed := 0
	for fixed < len(segments)-1 && !strings.ContainsAny(segments[fixed], globMeta) {
		fixed++
	}
	rest := segments[fixed:]

	prefix := filepath.FromSlash(strings.Join(segments[:fixed], "/"))
	var root string
	switch {
	case filepath.IsAbs(spec):
		root = prefix
		if root == "" {
			root = string(filepath.Separator)
		}
	default:
		root = filepath.Join(base, prefix)
	}
	if abs, err := filepath.Abs(root); err == nil {
		root = abs
	}

	rootSlash := strings.TrimSuffix(filepath.ToSlash(root), "/")
	g, err := glob.Compile(glob.QuoteMeta(rootSlash)+"/"+strings.Join(rest, "/"), '/')
	if err != nil {
		return nil, fmt.Errorf("invalid glob pattern %q: %w", spec, err)
	}

	maxDepth := -1
	if !strings.Contains(slashed, "**") {
		maxDepth = len(rest)
	}
	allowHidden := false
	for _, seg := range rest {
		if strings.HasPrefix(seg, ".") {
			allowHidden = true
		}
	}

	var matches []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root && errors.Is(walkErr, fs.ErrNotExist) {
				return nil
			}
			return walkErr
		}
		if path != root && !allowHidden && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if maxDepth >= 0 && path != root && depth(root, path) >= maxDepth {
				return fs.SkipDir
			}
			return nil
		}
		if g.Match(filepath.ToSlash(path)) {
			matches = append(matches, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("expanding %q: %w", spec, err)
	}
	return matches, nil
}

func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return 0
	}
	return strings.Count(filepath.ToSlash(rel), "/") + 1
}
