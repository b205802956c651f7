package errors

import (
	"context"
	"fmt"
	"log/slog"
	"os"
)

// CLIErrorAdapter handles error presentation and exit code determination for CLI applications.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
}

// NewCLIErrorAdapter creates a new CLI error adapter.
func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{
		verbose: verbose,
		logger:  logger,
	}
}

// ExitCodeFor determines the appropriate exit code for an error.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}

	if ae, ok := As(err); ok {
		return a.exitCodeFromAsset(ae)
	}

	return 1
}

// exitCodeFromAsset maps AssetError to exit codes.
func (a *CLIErrorAdapter) exitCodeFromAsset(err *AssetError) int {
	switch err.Category {
	case CategoryValidation:
		return 2 // Invalid usage
	case CategoryConfig:
		return 7 // Configuration error
	case CategorySource:
		return 3 // Missing input
	case CategoryFilter:
		return 4 // External filter failure
	case CategoryOutput, CategoryCache:
		return 11 // Build output error
	case CategoryEvents, CategoryRuntime:
		return 12 // Runtime error
	case CategoryInternal:
		return 10 // Internal error
	default:
		return 1 // General error
	}
}

// FormatError formats an error for user-friendly display.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}

	if ae, ok := As(err); ok {
		return a.formatAsset(ae)
	}

	return fmt.Sprintf("Error: %v", err)
}

// formatAsset formats an AssetError for display.
func (a *CLIErrorAdapter) formatAsset(err *AssetError) string {
	if a.verbose {
		return err.Error()
	}

	switch err.Category {
	case CategoryValidation:
		return err.Message
	case CategoryConfig:
		if path, ok := err.Context["path"]; ok {
			return fmt.Sprintf("%s: %v", err.Message, path)
		}
		return err.Message
	case CategorySource:
		return fmt.Sprintf("%s: %v", err.Message, err.Context["source"])
	default:
		return fmt.Sprintf("%s: %s", err.Category, err.Message)
	}
}

// HandleError processes an error and exits the program with appropriate code.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}

	exitCode := a.ExitCodeFor(err)
	message := a.FormatError(err)

	if a.shouldLog(err) {
		a.logError(err)
	}

	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(exitCode)
}

// shouldLog determines if an error should be logged.
func (a *CLIErrorAdapter) shouldLog(err error) bool {
	if a.verbose {
		return true
	}

	if ae, ok := As(err); ok {
		return ae.Category == CategoryInternal ||
			ae.Category == CategoryRuntime ||
			ae.Category == CategoryFilter
	}

	return true
}

// logError logs an error with appropriate level and context.
func (a *CLIErrorAdapter) logError(err error) {
	if ae, ok := As(err); ok {
		level := slogLevelFromSeverity(ae.Severity)
		attrs := []slog.Attr{
			slog.String("category", string(ae.Category)),
		}
		for k, v := range ae.Context {
			attrs = append(attrs, slog.Any(k, v))
		}
		if ae.Cause != nil {
			attrs = append(attrs, slog.String("cause", ae.Cause.Error()))
		}

		a.logger.LogAttrs(context.Background(), level, ae.Message, attrs...)
		return
	}

	a.logger.Error("Unclassified error", "error", err)
}

// slogLevelFromSeverity converts AssetError severity to slog level.
func slogLevelFromSeverity(severity ErrorSeverity) slog.Level {
	switch severity {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}
