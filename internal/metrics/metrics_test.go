package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveBlock(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveBlock(2, 5, []string{"router", "swap_pool"})
	m.ObserveBlock(0, 0, nil)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.BlocksProcessed))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.TransactionChanges))
	assert.Equal(t, float64(5), testutil.ToFloat64(m.EntityChanges))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ComponentsCreated.WithLabelValues("router")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.ComponentsCreated.WithLabelValues("swap_pool")))
}

func TestObserveBatchAndRetry(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ObserveBatch(1234, 300*time.Millisecond)
	m.ObserveRetry("process")
	m.ObserveRetry("process")

	assert.Equal(t, float64(1234), testutil.ToFloat64(m.LastProcessedBlock))
	assert.Equal(t, float64(2), testutil.ToFloat64(m.Retries.WithLabelValues("process")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.BatchDuration))
}

func TestDuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveBlock(1, 1, []string{"portal"})
		m.ObserveRetry("fetch")
		m.ObserveBatch(1, time.Second)
	})
}
