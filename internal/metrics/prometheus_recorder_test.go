package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("combine", 150*time.Millisecond)
	pr.ObserveBuildDuration("css", 500*time.Millisecond)
	pr.IncBuildOutcome("css", OutcomeBuilt)
	pr.ObserveFilterStepDuration("--", 20*time.Millisecond, true)
	pr.IncCacheCheck(false)

	mfs, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, mf := range mfs {
		names[mf.GetName()] = true
	}
	assert.True(t, names["assetbuilder_build_outcomes_total"])
	assert.True(t, names["assetbuilder_stage_duration_seconds"])
	assert.True(t, names["assetbuilder_cache_checks_total"])
}

func TestPrometheusRecorder_WriteTextfile(t *testing.T) {
	pr := NewPrometheusRecorder(nil)
	pr.IncBuildOutcome("js", OutcomeSkipped)

	path := filepath.Join(t.TempDir(), "assetbuilder.prom")
	require.NoError(t, pr.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `assetbuilder_build_outcomes_total{bundle="js",outcome="skipped"} 1`)
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var pr *PrometheusRecorder
	pr.IncBuildOutcome("x", OutcomeFailed)
	pr.ObserveStageDuration("write", time.Second)
	assert.NoError(t, pr.WriteTextfile("unused"))
}
