package jobmetrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestTrackerRecordsOutcome(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	require.NoError(t, m.Track("ledger:integrity").End(nil))
	boom := errors.New("boom")
	require.ErrorIs(t, m.Track("ledger:integrity").End(boom), boom)

	require.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("ledger:integrity", "success")))
	require.Equal(t, 1.0, counterValue(t, m.runs.WithLabelValues("ledger:integrity", "failure")))
	require.Equal(t, 1.0, counterValue(t, m.failures.WithLabelValues("ledger:integrity")))
}

func TestAddDriftsIgnoresEmpty(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())
	m.AddDrifts("customers", 0)
	m.AddDrifts("accounting", 2)

	require.Equal(t, 0.0, counterValue(t, m.drifts.WithLabelValues("customers")))
	require.Equal(t, 2.0, counterValue(t, m.drifts.WithLabelValues("accounting")))

	var nilMetrics *Metrics
	require.NoError(t, nilMetrics.Track("x").End(nil))
	nilMetrics.AddDrifts("customers", 1)
}
