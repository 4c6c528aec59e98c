// Package metrics exposes Prometheus instrumentation for the extraction
// pipeline and the ingest API.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds every collector the pipeline reports to. Register once at
// startup; all methods are safe for concurrent use.
type Metrics struct {
	jobsProcessed  *prometheus.CounterVec
	warpFailures   *prometheus.CounterVec
	reviewReasons  *prometheus.CounterVec
	ingestOutcomes *prometheus.CounterVec
	stageDuration  *prometheus.HistogramVec
	blueprintFetch *prometheus.CounterVec
	registry       *prometheus.Registry
}

// New creates and registers all collectors on the given registry.
func New(registry *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		registry: registry,
		jobsProcessed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetscan_jobs_processed_total",
			Help: "Extraction jobs processed, by terminal outcome.",
		}, []string{"outcome"}),
		warpFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetscan_warp_failures_total",
			Help: "Perspective rectification failures, by requested mode.",
		}, []string{"mode"}),
		reviewReasons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetscan_review_reasons_total",
			Help: "Manual review escalations, by reason code.",
		}, []string{"reason"}),
		ingestOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetscan_ingest_requests_total",
			Help: "Ingest API requests, by next action or rejection.",
		}, []string{"next_action"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sheetscan_stage_duration_seconds",
			Help:    "Wall time spent per pipeline stage.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"stage"}),
		blueprintFetch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sheetscan_blueprint_fetches_total",
			Help: "Blueprint lookups, by source (cache, remote, legacy).",
		}, []string{"source"}),
	}

	collectors := []prometheus.Collector{
		m.jobsProcessed, m.warpFailures, m.reviewReasons,
		m.ingestOutcomes, m.stageDuration, m.blueprintFetch,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("registering collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the backing registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// JobProcessed records a completed job. outcome is DONE or FAILED.
func (m *Metrics) JobProcessed(outcome string) {
	m.jobsProcessed.WithLabelValues(outcome).Inc()
}

// WarpFailure records a failed rectification attempt for a mode.
func (m *Metrics) WarpFailure(mode string) {
	m.warpFailures.WithLabelValues(mode).Inc()
}

// ReviewReasons records each escalation reason from a routed decision.
func (m *Metrics) ReviewReasons(reasons []string) {
	for _, r := range reasons {
		m.reviewReasons.WithLabelValues(r).Inc()
	}
}

// IngestOutcome records one ingest API request by its next action, or
// "rejected" for validation failures.
func (m *Metrics) IngestOutcome(nextAction string) {
	m.ingestOutcomes.WithLabelValues(nextAction).Inc()
}

// ObserveStage records wall time for one pipeline stage.
func (m *Metrics) ObserveStage(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}

// BlueprintFetch records where a blueprint lookup was served from.
func (m *Metrics) BlueprintFetch(source string) {
	m.blueprintFetch.WithLabelValues(source).Inc()
}
