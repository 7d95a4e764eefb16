package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrackerRecordsOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	require.NoError(t, m.Track("profitability:warmup").End(nil))
	boom := errors.New("boom")
	assert.ErrorIs(t, m.Track("profitability:warmup").End(boom), boom)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("profitability:warmup", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("profitability:warmup", "failure")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.failures.WithLabelValues("profitability:warmup")))
}

func TestAddWarmed(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddWarmed("ok", 3)
	m.AddWarmed("ok", 0)
	m.AddWarmed("error", 1)

	assert.Equal(t, 3.0, testutil.ToFloat64(m.warmed.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.warmed.WithLabelValues("error")))
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics
	m.AddWarmed("ok", 1)
	assert.NoError(t, m.Track("x").End(nil))
}
