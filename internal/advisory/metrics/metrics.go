package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the advisory module.
type Metrics struct {
	// Clause analyses by outcome: "ok", "fallback", "cache_hit"
	Analyses *prometheus.CounterVec
}

// New creates a new Metrics instance with all advisory metrics registered.
func New() *Metrics {
	return &Metrics{
		Analyses: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "dealdesk_advisory_analyses_total",
			Help: "Total clause analyses by outcome",
		}, []string{"outcome"}),
	}
}

// IncrementAnalyses records one analysis outcome.
func (m *Metrics) IncrementAnalyses(outcome string) {
	if m != nil {
		m.Analyses.WithLabelValues(outcome).Inc()
	}
}
