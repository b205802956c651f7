package errors

import "fmt"

// Convenience functions for common error patterns

// Config errors

func ConfigNotFound(path string) *AssetError {
	return New(CategoryConfig, SeverityFatal, "configuration file not found").
		WithContext("path", path)
}

func ConfigInvalid(path string, cause error) *AssetError {
	return Wrap(cause, CategoryConfig, SeverityFatal, "configuration file invalid").
		WithContext("path", path)
}

func ValidationFailed(field, reason string) *AssetError {
	return New(CategoryValidation, SeverityFatal, fmt.Sprintf("invalid %s: %s", field, reason)).
		WithContext("field", field).
		WithContext("reason", reason)
}

// Build errors

// SourceNotFound reports a literal content spec that resolves to no existing file.
func SourceNotFound(spec string) *AssetError {
	return New(CategorySource, SeverityFatal, "cannot find source file").
		WithContext("source", spec)
}

// CacheRead reports a cache file that exists but cannot be read or parsed.
// It is only ever logged; callers treat it as "stale".
func CacheRead(path string, cause error) *AssetError {
	return Wrap(cause, CategoryCache, SeverityWarning, "unable to read cache file").
		WithContext("path", path)
}

func FilterExecution(step int, command string, cause error) *AssetError {
	return Wrap(cause, CategoryFilter, SeverityFatal, "filter step failed").
		WithContext("step", step).
		WithContext("command", command)
}

func OutputWrite(path string, cause error) *AssetError {
	return Wrap(cause, CategoryOutput, SeverityFatal, "cannot write output file").
		WithContext("path", path)
}

// Runtime errors

func EventPublish(subject string, cause error) *AssetError {
	return Wrap(cause, CategoryEvents, SeverityWarning, "event publish failed").
		WithContext("subject", subject)
}

func InternalError(message string, cause error) *AssetError {
	return Wrap(cause, CategoryInternal, SeverityFatal, message)
}
