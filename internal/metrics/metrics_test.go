package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_Register(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.PacketsReceived.Inc()
	m.MeasurementsDecoded.WithLabelValues("temperature").Add(3)
	m.SinkFailures.WithLabelValues("redis").Inc()
	m.PacketProcessingTime.Observe(0.01)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.PacketsReceived))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.MeasurementsDecoded.WithLabelValues("temperature")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.SinkFailures.WithLabelValues("redis")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.PacketProcessingTime))

	// 同一 registry 重复注册应 panic
	assert.Panics(t, func() { New(reg) })
}
