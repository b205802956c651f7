package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyBundle     = "bundle"
	KeyBuildID    = "build_id"
	KeyStage      = "stage"
	KeyStatus     = "status"
	KeyDurationMS = "duration_ms"
	KeyPath       = "path"
	KeyOutput     = "output"
	KeyHash       = "hash"
	KeySources    = "sources"
	KeyBytes      = "bytes"
	KeyFilterStep = "filter_step"
	KeyCommand    = "command"
	KeySubject    = "subject"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func Bundle(name string) slog.Attr    { return slog.String(KeyBundle, name) }
func BuildID(id string) slog.Attr     { return slog.String(KeyBuildID, id) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Status(s string) slog.Attr       { return slog.String(KeyStatus, s) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Output(p string) slog.Attr       { return slog.String(KeyOutput, p) }
func Hash(h string) slog.Attr         { return slog.String(KeyHash, h) }
func Sources(n int) slog.Attr         { return slog.Int(KeySources, n) }
func Bytes(n int) slog.Attr           { return slog.Int(KeyBytes, n) }
func FilterStep(i int) slog.Attr      { return slog.Int(KeyFilterStep, i) }
func Command(c string) slog.Attr      { return slog.String(KeyCommand, c) }
func Subject(s string) slog.Attr      { return slog.String(KeySubject, s) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
