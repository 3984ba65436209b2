// Package metrics exposes wait outcomes as prometheus collectors.
package metrics

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gitlab.com/pageprobe/waiter"
)

const namespace = "pageprobe"

// Metrics for finished waits
type Metrics struct {
	Waits           *prometheus.CounterVec
	WaitDuration    *prometheus.HistogramVec
	WaitAttempts    prometheus.Histogram
	ConditionErrors prometheus.Counter
}

// New registers the wait collectors with reg
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Waits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "waits_total",
			Help:      "Finished waits by result",
		}, []string{"result"}),
		WaitDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_duration_seconds",
			Help:      "Time from the first poll until the wait finished",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
		}, []string{"result"}),
		WaitAttempts: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "wait_attempts",
			Help:      "Condition evaluations per wait",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 8),
		}),
		ConditionErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "condition_errors_total",
			Help:      "Condition evaluations that failed and were retried",
		}),
	}
}

// ObserveWait records a finished wait
func (m *Metrics) ObserveWait(o *waiter.Outcome) {
	result := o.Result()
	m.Waits.WithLabelValues(result).Inc()
	m.WaitDuration.WithLabelValues(result).Observe(o.Elapsed.Seconds())
	m.WaitAttempts.Observe(float64(o.Attempts))
	m.ConditionErrors.Add(float64(o.Failures))
}

// Observer for waiter.OnOutcome
func (m *Metrics) Observer() waiter.OutcomeFunc {
	return func(ctx context.Context, o *waiter.Outcome) {
		m.ObserveWait(o)
	}
}
