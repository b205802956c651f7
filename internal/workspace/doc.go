// Package workspace manages scratch directories for filter runs and provides
// atomic file replacement for build outputs.
//
// A Manager creates one ephemeral directory (e.g. assetbuilder-filter-1234)
// that holds the $IN/$OUT files of a single filter pipeline run and is
// removed afterwards. WriteFileAtomic writes next to the target and renames
// it into place, so a failed build never leaves a truncated artifact or
// cache record behind.
package workspace
