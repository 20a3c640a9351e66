package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the orchestrator's Prometheus metrics.
type Metrics struct {
	OutcomesTotal       *prometheus.CounterVec
	RegistryReadSeconds *prometheus.HistogramVec
}

// New creates and registers all validation metrics.
func New() *Metrics {
	return &Metrics{
		OutcomesTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "beamgate_validation_outcomes_total",
			Help: "Validation outcomes by kind",
		}, []string{"outcome"}),
		RegistryReadSeconds: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "beamgate_registry_read_seconds",
			Help:    "Latency of registry reads issued by the orchestrator",
			Buckets: prometheus.DefBuckets,
		}, []string{"read"}),
	}
}

func (m *Metrics) IncrementOutcome(outcome string) {
	if m == nil {
		return
	}
	m.OutcomesTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveRegistryRead(read string, d time.Duration) {
	if m == nil {
		return
	}
	m.RegistryReadSeconds.WithLabelValues(read).Observe(d.Seconds())
}
