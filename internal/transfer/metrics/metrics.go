// Package metrics exposes Prometheus instruments for the transfer engine.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for executed transfers.
const (
	OutcomeCompleted    = "completed"
	OutcomeFailed       = "failed"
	OutcomeRejected     = "rejected"
	OutcomeReplayed     = "replayed"
	OutcomeInconsistent = "inconsistent"
)

// Recorder holds the transfer engine's instruments. A nil *Recorder is a
// no-op so tests can pass nil.
type Recorder struct {
	executions *prometheus.CounterVec
	duration   prometheus.Histogram
	amounts    prometheus.Histogram
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "transfer_executions_total",
			Help: "Transfer executions by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transfer_duration_seconds",
			Help:    "Wall time of transfer execution.",
			Buckets: prometheus.DefBuckets,
		}),
		amounts: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "transfer_amount_minor_units",
			Help:    "Amounts of completed transfers in minor currency units.",
			Buckets: prometheus.ExponentialBuckets(100, 10, 7),
		}),
	}
	reg.MustRegister(r.executions, r.duration, r.amounts)
	return r
}

func (r *Recorder) ObserveExecution(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.executions.WithLabelValues(outcome).Inc()
	r.duration.Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveCompletedAmount(amount int64) {
	if r == nil {
		return
	}
	r.amounts.Observe(float64(amount))
}
