package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics G2 网关与发布端指标
type Metrics struct {
	PacketsReceived      prometheus.Counter
	PacketsEmpty         prometheus.Counter
	MeasurementsDecoded  *prometheus.CounterVec
	PacketsPublished     prometheus.Counter
	BytesPublished       prometheus.Counter
	SinkFailures         *prometheus.CounterVec
	PacketProcessingTime prometheus.Histogram
}

// New 创建指标并注册到 reg；reg 为 nil 时使用 prometheus.DefaultRegisterer
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		PacketsReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g2_packets_received_total",
			Help: "Total number of G2 packets received from MQTT.",
		}),
		PacketsEmpty: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g2_packets_empty_total",
			Help: "Received packets that decoded to zero measurements.",
		}),
		MeasurementsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g2_measurements_decoded_total",
			Help: "Total number of measurements decoded, by datatype.",
		}, []string{"datatype"}),
		PacketsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g2_packets_published_total",
			Help: "Total number of G2 packets published to MQTT.",
		}),
		BytesPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "g2_bytes_published_total",
			Help: "Total payload bytes published to MQTT.",
		}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "g2_sink_failures_total",
			Help: "Measurements that failed to reach a sink.",
		}, []string{"sink"}),
		PacketProcessingTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "g2_packet_processing_seconds",
			Help:    "Time from packet receipt to all sinks written.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
	}

	reg.MustRegister(
		m.PacketsReceived,
		m.PacketsEmpty,
		m.MeasurementsDecoded,
		m.PacketsPublished,
		m.BytesPublished,
		m.SinkFailures,
		m.PacketProcessingTime,
	)

	return m
}
