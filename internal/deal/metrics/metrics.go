package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the deal pipeline.
type Metrics struct {
	// Pipeline decisions by approval status and priority tier
	Decisions *prometheus.CounterVec

	// Overrides recorded, by reason
	Overrides *prometheus.CounterVec

	// End-to-end pipeline latency
	PipelineDuration prometheus.Histogram
}

// New creates a new Metrics instance with all deal metrics registered.
func New() *Metrics {
	return &Metrics{
		Decisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_deal_decisions_total",
			Help: "Total routing decisions by approval status and priority",
		}, []string{"status", "priority"}),
		Overrides: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_deal_overrides_total",
			Help: "Total decision overrides by reason",
		}, []string{"reason"}),
		PipelineDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "dealdesk_deal_pipeline_duration_seconds",
			Help:    "Duration of the full intake-to-decision pipeline",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

// RecordDecision counts one routing decision.
func (m *Metrics) RecordDecision(status, priority string) {
	if m != nil {
		m.Decisions.WithLabelValues(status, priority).Inc()
	}
}

// RecordOverride counts one override.
func (m *Metrics) RecordOverride(reason string) {
	if m != nil {
		m.Overrides.WithLabelValues(reason).Inc()
	}
}

// ObservePipeline records one pipeline run's duration.
func (m *Metrics) ObservePipeline(d time.Duration) {
	if m != nil {
		m.PipelineDuration.Observe(d.Seconds())
	}
}
