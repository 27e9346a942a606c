package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TrackingMetrics records scan pipeline outcomes and chain submission latency.
type TrackingMetrics struct {
	scansAccepted *prometheus.CounterVec
	scansRejected *prometheus.CounterVec
	stepFailures  *prometheus.CounterVec
	chainLatency  *prometheus.HistogramVec
}

// NewTrackingMetrics registers the tracking metrics on the provided registerer.
func NewTrackingMetrics(reg prometheus.Registerer) *TrackingMetrics {
	if reg == nil {
		return &TrackingMetrics{}
	}
	accepted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_accepted_total",
		Help: "Scans that passed transition validation.",
	}, []string{"stage", "action"})
	rejected := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scans_rejected_total",
		Help: "Scans rejected by transition validation.",
	}, []string{"stage", "reason"})
	stepFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "scan_step_failures_total",
		Help: "Per-step failures inside the scan write pipeline.",
	}, []string{"step"})
	chainLatency := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chain_submission_seconds",
		Help:    "Latency of blockchain submissions, including confirmation wait.",
		Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
	}, []string{"method"})
	reg.MustRegister(accepted, rejected, stepFailures, chainLatency)
	return &TrackingMetrics{
		scansAccepted: accepted,
		scansRejected: rejected,
		stepFailures:  stepFailures,
		chainLatency:  chainLatency,
	}
}

// IncAccepted counts a scan that passed validation.
func (m *TrackingMetrics) IncAccepted(stage, action string) {
	if m == nil || m.scansAccepted == nil {
		return
	}
	m.scansAccepted.WithLabelValues(normalizeLabel(stage), normalizeLabel(action)).Inc()
}

// IncRejected counts a scan rejected by a validation guard.
func (m *TrackingMetrics) IncRejected(stage, reason string) {
	if m == nil || m.scansRejected == nil {
		return
	}
	m.scansRejected.WithLabelValues(normalizeLabel(stage), normalizeLabel(reason)).Inc()
}

// IncStepFailure counts a partial failure of one pipeline step.
func (m *TrackingMetrics) IncStepFailure(step string) {
	if m == nil || m.stepFailures == nil {
		return
	}
	m.stepFailures.WithLabelValues(normalizeLabel(step)).Inc()
}

// ObserveChainLatency records one chain submission round trip.
func (m *TrackingMetrics) ObserveChainLatency(method string, duration time.Duration) {
	if m == nil || m.chainLatency == nil {
		return
	}
	m.chainLatency.WithLabelValues(normalizeLabel(method)).Observe(duration.Seconds())
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
