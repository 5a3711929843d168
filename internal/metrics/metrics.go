// Package metrics содержит метрики Prometheus ежедневного прохода.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "billing"

// Scheduler метрики планировщика.
type Scheduler struct {
	Runs          *prometheus.CounterVec // result: ok, failed, skipped
	Reminders     prometheus.Counter
	Deactivations prometheus.Counter
	RunErrors     *prometheus.CounterVec // stage
	Dispatches    *prometheus.CounterVec // channel, kind, result
	RunDuration   prometheus.Histogram
}

// NewScheduler создаёт метрики и регистрирует их в reg.
func NewScheduler(reg prometheus.Registerer) *Scheduler {
	m := &Scheduler{
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_pass",
			Name:      "runs_total",
			Help:      "Daily pass runs by result.",
		}, []string{"result"}),
		Reminders: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_pass",
			Name:      "reminders_sent_total",
			Help:      "Subscribers included in a delivered reminder batch.",
		}),
		Deactivations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_pass",
			Name:      "deactivations_total",
			Help:      "Subscribers deactivated after the grace period.",
		}),
		RunErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "daily_pass",
			Name:      "errors_total",
			Help:      "Errors collected in run summaries by stage.",
		}, []string{"stage"}),
		Dispatches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "dispatches_total",
			Help:      "Batch dispatches by channel, kind and result.",
		}, []string{"channel", "kind", "result"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "daily_pass",
			Name:      "duration_seconds",
			Help:      "Daily pass duration.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 12),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Runs, m.Reminders, m.Deactivations, m.RunErrors, m.Dispatches, m.RunDuration)
	}
	return m
}
