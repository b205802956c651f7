package bundle

import "time"

// BuildStatus represents the outcome of a bundle build.
type BuildStatus string

const (
	// BuildStatusBuilt indicates sources were combined, filtered and written.
	BuildStatusBuilt BuildStatus = "built"

	// BuildStatusSkipped indicates the cache proved every source unchanged.
	BuildStatusSkipped BuildStatus = "skipped"

	// BuildStatusDisabled indicates the bundle has building turned off.
	BuildStatusDisabled BuildStatus = "disabled"
)

// BuildResult describes one Build call. Bundles keep no build state of their
// own; everything a caller needs afterwards is here.
type BuildResult struct {
	// BuildID uniquely identifies this build in logs, events and manifests.
	BuildID string

	// Bundle is the bundle name, possibly empty.
	Bundle string

	Status BuildStatus

	// Data holds the combined and filtered bytes. Empty when skipped or
	// disabled at the top level.
	Data []byte

	// OutputPath is the artifact path, "" when the bundle has no output
	// pattern or nothing was produced.
	OutputPath string

	// Written reports whether OutputPath was written in this build.
	Written bool

	// Hash is the fingerprint of Data.
	Hash string

	// Sources lists every flattened source file.
	Sources []string

	StartTime time.Time
	Duration  time.Duration

	// SkipReason explains why nothing was built.
	SkipReason string
}
