// Package bundle implements asset bundles: declarative lists of files, glob
// patterns and nested bundles that are combined, run through external
// filters and written to a content-addressed output file.
//
// A Bundle is immutable once created. Everything that depends on the host
// environment (base directory, URL prefix, debug flag, filter runner, cache)
// arrives through an explicit Options value built by ResolveOptions.
package bundle
