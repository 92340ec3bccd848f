package metrics

import (
	"testing"

	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, name MetricName) float64 {
	t.Helper()
	var pb dto.Metric
	require.NoError(t, counters[name].Write(&pb))
	return pb.GetCounter().GetValue()
}

func TestIncrCounter(t *testing.T) {
	m := NewMetrics()
	before := counterValue(t, MetricNameEncrypted)
	m.IncrCounter(MetricNameEncrypted)
	m.IncrCounter(MetricNameEncrypted)
	require.Equal(t, before+2, counterValue(t, MetricNameEncrypted))

	// unknown names are ignored
	m.IncrCounter(MetricName("nope"))
	m.Observe(MetricName("nope"), 1)
}

func TestNewMetricsTwice(t *testing.T) {
	NewMetrics()
	require.NotPanics(t, func() { NewMetrics() })
}
