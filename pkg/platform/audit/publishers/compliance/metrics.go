package compliance

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	outcomePersisted = "persisted"
	outcomeFailed    = "failed"
	outcomeRejected  = "rejected"
)

// Metrics counts compliance writes per action and outcome. A nil *Metrics
// records nothing.
type Metrics struct {
	Events       *prometheus.CounterVec
	WriteLatency prometheus.Histogram
}

func NewMetrics() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfile_audit_compliance_events_total",
			Help: "Compliance audit events by action and outcome",
		}, []string{"action", "outcome"}),
		WriteLatency: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxfile_audit_compliance_write_seconds",
			Help:    "Latency of compliance audit store writes",
			Buckets: []float64{.001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2},
		}),
	}
}

func (m *Metrics) observe(action, outcome string) {
	if m == nil {
		return
	}
	if action == "" {
		action = "unknown"
	}
	m.Events.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) observeLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.WriteLatency.Observe(d.Seconds())
}
