package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the filing module.
// All methods are safe to call on a nil *Metrics.
type Metrics struct {
	SessionsStarted    prometheus.Counter
	StepTransitions    *prometheus.CounterVec
	ValidationFailures *prometheus.CounterVec
	Submissions        *prometheus.CounterVec
	SubmitDuration     prometheus.Histogram
	RehydrateFailures  prometheus.Counter
	StepSaveFailures   prometheus.Counter
}

// New creates a new Metrics instance with all filing metrics registered.
func New() *Metrics {
	return &Metrics{
		SessionsStarted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxfile_filing_sessions_started_total",
			Help: "Total number of wizard sessions started",
		}),
		StepTransitions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfile_filing_step_transitions_total",
			Help: "Total number of step transitions by direction and target step",
		}, []string{"direction", "step"}),
		ValidationFailures: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfile_filing_validation_failures_total",
			Help: "Total number of blocked transitions by failing step",
		}, []string{"step"}),
		Submissions: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "taxfile_filing_submissions_total",
			Help: "Total number of submit attempts by outcome",
		}, []string{"outcome"}),
		SubmitDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "taxfile_filing_submit_duration_seconds",
			Help:    "Duration of Submit operations including the submission collaborator",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
		RehydrateFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxfile_filing_rehydrate_failures_total",
			Help: "Total number of step-data fetches that failed while resuming a filing",
		}),
		StepSaveFailures: promauto.NewCounter(prometheus.CounterOpts{
			Name: "taxfile_filing_step_save_failures_total",
			Help: "Total number of step-data saves that failed after a valid transition",
		}),
	}
}

func (m *Metrics) IncSessionStarted() {
	if m == nil {
		return
	}
	m.SessionsStarted.Inc()
}

// IncStepTransition records a move in direction ("next", "back", "goto") to step.
func (m *Metrics) IncStepTransition(direction, step string) {
	if m == nil {
		return
	}
	m.StepTransitions.WithLabelValues(direction, step).Inc()
}

func (m *Metrics) IncValidationFailure(step string) {
	if m == nil {
		return
	}
	m.ValidationFailures.WithLabelValues(step).Inc()
}

// IncSubmission records a submit outcome: "accepted", "rejected", "failed", "conflict" or "duplicate".
func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(outcome).Inc()
}

// ObserveSubmit records the duration of a Submit operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveSubmit(start time.Time) {
	if m == nil {
		return
	}
	m.SubmitDuration.Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncRehydrateFailure() {
	if m == nil {
		return
	}
	m.RehydrateFailures.Inc()
}

func (m *Metrics) IncStepSaveFailure() {
	if m == nil {
		return
	}
	m.StepSaveFailures.Inc()
}
