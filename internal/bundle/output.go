package bundle

import (
	"crypto/md5" //nolint:gosec // fingerprint only
	"encoding/hex"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	aerrors "git.home.luguber.info/inful/assetbuilder/internal/errors"
	"git.home.luguber.info/inful/assetbuilder/internal/workspace"
)

const hashLen = 8

// Hash fingerprints data: the first eight hex characters of its MD5 digest.
func Hash(data []byte) string {
	sum := md5.Sum(data) //nolint:gosec // fingerprint only
	return hex.EncodeToString(sum[:])[:hashLen]
}

// OutputPath returns where data would be written, or "" without an output
// pattern.
func (b *Bundle) OutputPath(opts Options, data []byte) string {
	if b.output == "" {
		return ""
	}
	if !b.HasPlaceholder() {
		return opts.path(b.output)
	}
	return opts.path(strings.Replace(b.output, Placeholder, Hash(data), 1))
}

// outputParts returns the joined output path before and after the
// placeholder. Only the pattern is searched, so a base directory containing
// the placeholder text stays literal.
func (b *Bundle) outputParts(opts Options) (string, string) {
	const mark = "\x00"
	joined := opts.path(strings.Replace(b.output, Placeholder, mark, 1))
	parts := strings.SplitN(joined, mark, 2)
	if len(parts) < 2 {
		return joined, ""
	}
	return parts[0], parts[1]
}

// LatestCombinedPath returns the most recently written artifact. Fixed
// patterns return their path when it exists; hashed patterns return the
// newest file matching the pattern with any eight characters in place of
// the placeholder.
func (b *Bundle) LatestCombinedPath(opts Options) (string, bool) {
	if b.output == "" {
		return "", false
	}
	if !b.HasPlaceholder() {
		p := opts.path(b.output)
		if info, err := os.Stat(p); err == nil && info.Mode().IsRegular() {
			return p, true
		}
		return "", false
	}

	prefix, suffix := b.outputParts(opts)
	pattern := escapeGlob(prefix) + strings.Repeat("?", hashLen) + escapeGlob(suffix)
	matches, err := filepath.Glob(pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}

	type candidate struct {
		path  string
		mtime int64
	}
	var found []candidate
	for _, m := range matches {
		info, err := os.Stat(m)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		found = append(found, candidate{m, info.ModTime().UnixNano()})
	}
	if len(found) == 0 {
		return "", false
	}
	sort.Slice(found, func(i, j int) bool {
		if found[i].mtime != found[j].mtime {
			return found[i].mtime > found[j].mtime
		}
		return found[i].path > found[j].path
	})
	return found[0].path, true
}

func writeOutput(path string, data []byte) error {
	if err := workspace.WriteFileAtomic(path, data, 0o644); err != nil {
		return aerrors.OutputWrite(path, err)
	}
	return nil
}

func escapeGlob(s string) string {
	if runtime.GOOS == "windows" {
		return s
	}
	var sb strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[\`, r) {
			sb.WriteByte('\\')
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// HashFromPath extracts the fingerprint from an artifact path produced by a
// placeholder pattern.
func (b *Bundle) HashFromPath(opts Options, path string) (string, bool) {
	if !b.HasPlaceholder() {
		return "", false
	}
	prefix, suffix := b.outputParts(opts)
	if len(path) != len(prefix)+hashLen+len(suffix) ||
		!strings.HasPrefix(path, prefix) || !strings.HasSuffix(path, suffix) {
		return "", false
	}
	return path[len(prefix) : len(prefix)+hashLen], true
}
