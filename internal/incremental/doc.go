// Package incremental decides whether a bundle rebuild can be skipped by
// comparing the modification times of its flattened source files with a
// persisted record from the last successful build.
//
// The record is a flat JSON object keyed by absolute source path:
//
//	{"/static/a.css": {"mtime": 1718000000.123456}}
//
// A missing, unreadable or unparseable record never surfaces as an error
// from IsUnchanged; it simply means "unknown, rebuild".
package incremental
