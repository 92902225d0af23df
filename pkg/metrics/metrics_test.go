package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCronJobMetricsRecordOutcomes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCronJobMetrics(reg)

	m.ObserveDuration("funnel_sync", 250*time.Millisecond)
	m.IncSuccess("funnel_sync")
	m.IncFailure("purchase_sync")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.success.WithLabelValues("funnel_sync")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failure.WithLabelValues("purchase_sync")))
}

func TestOutboxWorkerMetricsLabelFailureReasons(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOutboxWorkerMetrics(reg)

	m.IncProcessed("upsert_contact")
	m.IncSucceeded("upsert_contact")
	m.IncFailed("update_after_purchase", "decode")
	m.IncFailed("", "")

	assert.Equal(t, float64(1), testutil.ToFloat64(m.failed.WithLabelValues("update_after_purchase", "decode")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.failed.WithLabelValues("unknown", "unknown")))
}

func TestNilRegistererYieldsNoopMetrics(t *testing.T) {
	cron := NewCronJobMetrics(nil)
	cron.IncSuccess("anything")
	cron.ObserveDuration("anything", time.Second)

	worker := NewOutboxWorkerMetrics(nil)
	worker.IncProcessed("anything")
	worker.IncFailed("anything", "reason")
}
