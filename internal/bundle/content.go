package bundle

import (
	"fmt"
	"strings"
)

// ContentKind discriminates the variants of Content.
type ContentKind int

const (
	KindFile ContentKind = iota
	KindGlob
	KindNested
)

func (k ContentKind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindGlob:
		return "glob"
	case KindNested:
		return "bundle"
	default:
		return fmt.Sprintf("ContentKind(%d)", int(k))
	}
}

// Content is one declared entry of a bundle: a file path, a glob pattern or
// a nested bundle.
type Content struct {
	kind   ContentKind
	spec   string
	bundle *Bundle
}

// File declares a literal file path.
func File(path string) Content { return Content{kind: KindFile, spec: path} }

// Glob declares a glob pattern expanded at resolve time.
func Glob(pattern string) Content { return Content{kind: KindGlob, spec: pattern} }

// Nested declares another bundle whose output is embedded.
func Nested(b *Bundle) Content { return Content{kind: KindNested, bundle: b} }

// Parse classifies a raw string as a glob when it contains glob
// metacharacters, otherwise as a file.
func Parse(raw string) Content {
	if strings.ContainsAny(raw, "*?[") {
		return Glob(raw)
	}
	return File(raw)
}

// Kind returns the content variant.
func (c Content) Kind() ContentKind { return c.kind }

// Spec returns the path or pattern; empty for nested bundles.
func (c Content) Spec() string { return c.spec }

// Bundle returns the nested bundle; nil for files and globs.
func (c Content) Bundle() *Bundle { return c.bundle }

func (c Content) String() string {
	if c.kind == KindNested {
		if c.bundle != nil && c.bundle.name != "" {
			return "bundle:" + c.bundle.name
		}
		return "bundle:<anonymous>"
	}
	return c.kind.String() + ":" + c.spec
}
