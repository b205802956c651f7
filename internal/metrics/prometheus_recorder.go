package metrics

import (
	"fmt"
	"sync"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	once          sync.Once
	reg           *prom.Registry
	stageDuration *prom.HistogramVec
	buildDuration *prom.HistogramVec
	buildOutcome  *prom.CounterVec
	filterStep    *prom.HistogramVec
	cacheChecks   *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers Prometheus metrics (idempotent).
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{reg: reg}
	pr.once.Do(func() {
		pr.stageDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assetbuilder",
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual bundle build stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"})
		pr.buildDuration = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assetbuilder",
			Name:      "build_duration_seconds",
			Help:      "Total bundle build duration",
			Buckets:   prom.DefBuckets,
		}, []string{"bundle"})
		pr.buildOutcome = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetbuilder",
			Name:      "build_outcomes_total",
			Help:      "Bundle build outcomes by final status",
		}, []string{"bundle", "outcome"})
		pr.filterStep = prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "assetbuilder",
			Name:      "filter_step_duration_seconds",
			Help:      "Duration of external filter steps by IO mode",
			Buckets:   prom.DefBuckets,
		}, []string{"mode", "result"})
		pr.cacheChecks = prom.NewCounterVec(prom.CounterOpts{
			Namespace: "assetbuilder",
			Name:      "cache_checks_total",
			Help:      "Staleness cache checks by decision",
		}, []string{"result"})
		reg.MustRegister(pr.stageDuration, pr.buildDuration, pr.buildOutcome, pr.filterStep, pr.cacheChecks)
	})
	return pr
}

// Registry returns the registry the recorder's collectors live in.
func (p *PrometheusRecorder) Registry() *prom.Registry { return p.reg }

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil || p.stageDuration == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) ObserveBuildDuration(bundle string, d time.Duration) {
	if p == nil || p.buildDuration == nil {
		return
	}
	p.buildDuration.WithLabelValues(bundle).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(bundle string, outcome OutcomeLabel) {
	if p == nil || p.buildOutcome == nil {
		return
	}
	p.buildOutcome.WithLabelValues(bundle, string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveFilterStepDuration(mode string, d time.Duration, success bool) {
	if p == nil || p.filterStep == nil {
		return
	}
	res := "failed"
	if success {
		res = "success"
	}
	p.filterStep.WithLabelValues(mode, res).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncCacheCheck(unchanged bool) {
	if p == nil || p.cacheChecks == nil {
		return
	}
	res := "stale"
	if unchanged {
		res = "unchanged"
	}
	p.cacheChecks.WithLabelValues(res).Inc()
}

// WriteTextfile writes the recorder's registry in the Prometheus text format.
// The write goes through a temp file and rename, so scrapers never see a partial file.
func (p *PrometheusRecorder) WriteTextfile(path string) error {
	if p == nil || p.reg == nil {
		return nil
	}
	if err := prom.WriteToTextfile(path, p.reg); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}
