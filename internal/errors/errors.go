// Package errors provides a lightweight structured error type (AssetError)
// for category-based classification of bundle build failures in the engine and CLI.
package errors

import (
	stderrors "errors"
	"fmt"
)

// ErrorCategory represents the category of an asset build error for classification
type ErrorCategory string

const (
	// User-facing configuration and input errors
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"

	// Bundle build errors
	CategorySource ErrorCategory = "source"
	CategoryCache  ErrorCategory = "cache"
	CategoryFilter ErrorCategory = "filter"
	CategoryOutput ErrorCategory = "output"

	// Runtime and infrastructure errors
	CategoryEvents   ErrorCategory = "events"
	CategoryRuntime  ErrorCategory = "runtime"
	CategoryInternal ErrorCategory = "internal"
)

// ErrorSeverity indicates how critical an error is
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"   // Stops execution
	SeverityError   ErrorSeverity = "error"   // Error, but not fatal
	SeverityWarning ErrorSeverity = "warning" // Continues with degraded functionality
	SeverityInfo    ErrorSeverity = "info"    // Informational, no impact
)

// AssetError is a structured error with category, severity, and context
type AssetError struct {
	Category ErrorCategory `json:"category"`
	Severity ErrorSeverity `json:"severity"`
	Message  string        `json:"message"`
	Cause    error         `json:"cause,omitempty"`
	Context  ContextFields `json:"context,omitempty"`
}

// ContextFields carries structured context for AssetError
type ContextFields map[string]any

// Error implements the error interface
func (e *AssetError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Category, e.Severity, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Category, e.Severity, e.Message)
}

// Unwrap implements error unwrapping for Go 1.13+ error handling
func (e *AssetError) Unwrap() error {
	return e.Cause
}

// WithContext adds context information to the error
func (e *AssetError) WithContext(key string, value any) *AssetError {
	if e.Context == nil {
		e.Context = make(ContextFields)
	}
	e.Context[key] = value
	return e
}

// New creates a new AssetError
func New(category ErrorCategory, severity ErrorSeverity, message string) *AssetError {
	return &AssetError{
		Category: category,
		Severity: severity,
		Message:  message,
	}
}

// Wrap creates a new AssetError that wraps an existing error
func Wrap(err error, category ErrorCategory, severity ErrorSeverity, message string) *AssetError {
	return &AssetError{
		Category: category,
		Severity: severity,
		Message:  message,
		Cause:    err,
	}
}

// As returns the outermost AssetError in err's chain.
func As(err error) (*AssetError, bool) {
	var ae *AssetError
	if stderrors.As(err, &ae) {
		return ae, true
	}
	return nil, false
}

// IsCategory checks if an error (or anything it wraps) belongs to a specific category
func IsCategory(err error, category ErrorCategory) bool {
	if ae, ok := As(err); ok {
		return ae.Category == category
	}
	return false
}

// GetCategory extracts the category from an error, or returns CategoryInternal if not an AssetError
func GetCategory(err error) ErrorCategory {
	if ae, ok := As(err); ok {
		return ae.Category
	}
	return CategoryInternal
}

// IsSourceNotFound reports whether err is a missing literal source.
func IsSourceNotFound(err error) bool { return IsCategory(err, CategorySource) }

// IsFilterExecution reports whether err is a failed filter step.
func IsFilterExecution(err error) bool { return IsCategory(err, CategoryFilter) }

// IsOutputWrite reports whether err is a failed artifact or cache write.
func IsOutputWrite(err error) bool { return IsCategory(err, CategoryOutput) }

// IsCacheRead reports whether err is an unreadable cache record.
func IsCacheRead(err error) bool { return IsCategory(err, CategoryCache) }
