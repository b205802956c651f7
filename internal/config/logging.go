package config

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// LogLevel enumerates supported logging levels.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

var logLevels = map[string]LogLevel{
	"debug":   LogLevelDebug,
	"info":    LogLevelInfo,
	"warn":    LogLevelWarn,
	"warning": LogLevelWarn,
	"error":   LogLevelError,
}

// NormalizeLogLevel maps raw input to a LogLevel, defaulting to info.
func NormalizeLogLevel(raw string) LogLevel {
	if l, err := ParseLogLevel(raw); err == nil {
		return l
	}
	return LogLevelInfo
}

// ParseLogLevel maps raw input to a LogLevel or reports the valid choices.
func ParseLogLevel(raw string) (LogLevel, error) {
	if l, ok := logLevels[normalize(raw)]; ok {
		return l, nil
	}
	return "", fmt.Errorf("invalid value %q, valid options: %v", raw, keys(logLevels))
}

// Slog converts the level for slog handlers.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// LogFormat enumerates supported log output formats.
type LogFormat string

const (
	LogFormatJSON LogFormat = "json"
	LogFormatText LogFormat = "text"
)

var logFormats = map[string]LogFormat{
	"json": LogFormatJSON,
	"text": LogFormatText,
}

// NormalizeLogFormat maps raw input to a LogFormat, defaulting to text.
func NormalizeLogFormat(raw string) LogFormat {
	if f, err := ParseLogFormat(raw); err == nil {
		return f
	}
	return LogFormatText
}

// ParseLogFormat maps raw input to a LogFormat or reports the valid choices.
func ParseLogFormat(raw string) (LogFormat, error) {
	if f, ok := logFormats[normalize(raw)]; ok {
		return f, nil
	}
	return "", fmt.Errorf("invalid value %q, valid options: %v", raw, keys(logFormats))
}

func normalize(s string) string { return strings.ToLower(strings.TrimSpace(s)) }

func keys[T any](m map[string]T) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
