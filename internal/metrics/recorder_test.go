package metrics

import (
	"testing"
	"time"
)

var (
	_ Recorder = NoopRecorder{}
	_ Recorder = (*PrometheusRecorder)(nil)
)

func TestNoopRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.ObserveStageDuration("combine", time.Millisecond)
	r.ObserveBuildDuration("css", time.Millisecond)
	r.IncBuildOutcome("css", OutcomeBuilt)
	r.ObserveFilterStepDuration("f-", time.Millisecond, false)
	r.IncCacheCheck(true)
}
