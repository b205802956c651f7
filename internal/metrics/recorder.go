package metrics

import "time"

// OutcomeLabel enumerates bundle build outcomes for counters.
type OutcomeLabel string

const (
	OutcomeBuilt    OutcomeLabel = "built"
	OutcomeSkipped  OutcomeLabel = "skipped"
	OutcomeDisabled OutcomeLabel = "disabled"
	OutcomeFailed   OutcomeLabel = "failed"
)

// Recorder defines observability hooks for bundle and stage metrics. Implementations
// may forward to Prometheus, OpenTelemetry, etc.
type Recorder interface {
	ObserveStageDuration(stage string, d time.Duration)
	ObserveBuildDuration(bundle string, d time.Duration)
	IncBuildOutcome(bundle string, outcome OutcomeLabel)
	ObserveFilterStepDuration(mode string, d time.Duration, success bool)
	IncCacheCheck(unchanged bool)
}

// NoopRecorder is a Recorder that does nothing (default when metrics not configured).
type NoopRecorder struct{}

func (NoopRecorder) ObserveStageDuration(string, time.Duration)            {}
func (NoopRecorder) ObserveBuildDuration(string, time.Duration)            {}
func (NoopRecorder) IncBuildOutcome(string, OutcomeLabel)                  {}
func (NoopRecorder) ObserveFilterStepDuration(string, time.Duration, bool) {}
func (NoopRecorder) IncCacheCheck(bool)                                    {}
