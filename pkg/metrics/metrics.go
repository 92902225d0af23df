// Package metrics holds the Prometheus instruments for the sync workers and
// scheduled jobs. Constructors accept a nil registerer and degrade to no-ops
// so one-shot CLIs can skip metrics entirely.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "funnel_sync"

// CronJobMetrics records outcomes of scheduled jobs.
type CronJobMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

func NewCronJobMetrics(reg prometheus.Registerer) *CronJobMetrics {
	if reg == nil {
		return &CronJobMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "job_duration_seconds",
		Help:      "Duration of scheduled jobs in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_success",
		Help:      "Successful scheduled job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "job_failure",
		Help:      "Failed scheduled job executions.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure)
	return &CronJobMetrics{duration: duration, success: success, failure: failure}
}

func (c *CronJobMetrics) ObserveDuration(job string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (c *CronJobMetrics) IncSuccess(job string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (c *CronJobMetrics) IncFailure(job string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// OutboxWorkerMetrics counts delivery outcomes per operation type.
type OutboxWorkerMetrics struct {
	processed *prometheus.CounterVec
	succeeded *prometheus.CounterVec
	failed    *prometheus.CounterVec
}

func NewOutboxWorkerMetrics(reg prometheus.Registerer) *OutboxWorkerMetrics {
	if reg == nil {
		return &OutboxWorkerMetrics{}
	}
	processed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_jobs_processed_total",
		Help:      "Outbox jobs picked up by the worker.",
	}, []string{"operation"})
	succeeded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_jobs_succeeded_total",
		Help:      "Outbox jobs delivered to Brevo.",
	}, []string{"operation"})
	failed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "outbox_jobs_failed_total",
		Help:      "Outbox jobs marked as errored.",
	}, []string{"operation", "reason"})
	reg.MustRegister(processed, succeeded, failed)
	return &OutboxWorkerMetrics{processed: processed, succeeded: succeeded, failed: failed}
}

func (m *OutboxWorkerMetrics) IncProcessed(operation string) {
	if m == nil || m.processed == nil {
		return
	}
	m.processed.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *OutboxWorkerMetrics) IncSucceeded(operation string) {
	if m == nil || m.succeeded == nil {
		return
	}
	m.succeeded.WithLabelValues(normalizeLabel(operation)).Inc()
}

func (m *OutboxWorkerMetrics) IncFailed(operation, reason string) {
	if m == nil || m.failed == nil {
		return
	}
	m.failed.WithLabelValues(normalizeLabel(operation), normalizeLabel(reason)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
