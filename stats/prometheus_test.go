package stats

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorExportsCounters(t *testing.T) {
	agg := NewAggregator(0)
	agg.RecordSuccess(10 * time.Millisecond)
	agg.RecordSuccess(20 * time.Millisecond)
	agg.RecordFailure(30 * time.Millisecond)

	c := NewCollector(agg, "tradeharness")

	reg := prometheus.NewPedanticRegistry()
	require.NoError(t, reg.Register(c))

	assert.Equal(t, 3, testutil.CollectAndCount(c))

	families, err := reg.Gather()
	require.NoError(t, err)

	byName := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, l := range m.GetLabel() {
				name += ":" + l.GetValue()
			}
			if m.GetCounter() != nil {
				byName[name] = m.GetCounter().GetValue()
			} else if m.GetGauge() != nil {
				byName[name] = m.GetGauge().GetValue()
			}
		}
	}

	assert.Equal(t, 2.0, byName["tradeharness_operations_total:success"])
	assert.Equal(t, 1.0, byName["tradeharness_operations_total:failure"])
	assert.InDelta(t, 0.020, byName["tradeharness_operation_latency_mean_seconds"], 1e-9)
}
