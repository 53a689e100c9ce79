package ops

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of one tracked event.
const (
	outcomeStored        = "stored"
	outcomeSampledOut    = "sampled_out"
	outcomeBreakerOpen   = "breaker_open"
	outcomePersistFailed = "persist_failed"
	outcomeEvicted       = "evicted"
)

// Metrics counts what happened to each ops event, by action.
type Metrics struct {
	Events      *prometheus.CounterVec
	BreakerOpen prometheus.Gauge
}

// NewMetrics registers the ops tracker metrics.
func NewMetrics() *Metrics {
	return &Metrics{
		Events: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfile_audit_ops_events_total",
			Help: "Operational audit events by action and outcome and outcome",
		}, []string{"action", "outcome"}),
		BreakerOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "taxfile_audit_ops_breaker_open",
			Help: "1 while the ops audit circuit breaker is open",
		}),
	}
}

func (m *Metrics) observe(action, outcome string) {
	if m == nil {
		return
	}
	m.Events.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) setBreakerOpen(open bool) {
	if m == nil {
		return
	}
	v := 0.0
	if open {
		v = 1
	}
	m.BreakerOpen.Set(v)
}
