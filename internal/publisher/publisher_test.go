package publisher

import (
	"context"
	"errors"
	"slices"
	"testing"

	"g2-mqtt/g2"
	"g2-mqtt/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeTransport struct {
	messages []published
	failAt   int // 第 failAt 次发布返回错误，0 表示不失败
}

func (f *fakeTransport) Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error {
	if f.failAt > 0 && len(f.messages)+1 == f.failAt {
		return errors.New("broker unavailable")
	}
	f.messages = append(f.messages, published{topic: topic, qos: qos, payload: payload})
	return nil
}

func newTestPublisher(transport Transport) (*Publisher, *metrics.Metrics) {
	m := metrics.New(prometheus.NewRegistry())
	return NewPublisher(transport, g2.NewEncoder(nil, nil), "", 1, m, zap.NewNop()), m
}

func items() []g2.Item {
	return []g2.Item{
		{At: 10, Measurement: g2.Measurement{Datatype: "temperature", Value: 20}},
		{At: 10, Measurement: g2.Measurement{Datatype: "humidity", Value: 40}},
		{At: 20, Measurement: g2.Measurement{Datatype: "temperature", Value: 21}},
		{At: 30, Measurement: g2.Measurement{Datatype: "unknown", Value: 1}},
	}
}

func TestPublish_OnePacketPerTimestamp(t *testing.T) {
	transport := &fakeTransport{}
	p, m := newTestPublisher(transport)

	n, err := p.Publish(context.Background(), "lab", "node-7", slices.Values(items()))

	require.NoError(t, err)
	assert.Equal(t, 2, n)
	require.Len(t, transport.messages, 2)
	for _, msg := range transport.messages {
		assert.Equal(t, "g2/lab/node-7/data", msg.topic)
		assert.Equal(t, byte(1), msg.qos)
	}
	assert.Len(t, transport.messages[0].payload, 15)
	assert.Len(t, transport.messages[1].payload, 10)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.PacketsPublished))
	assert.Equal(t, 25.0, testutil.ToFloat64(m.BytesPublished))
}

func TestPublish_StopsOnError(t *testing.T) {
	transport := &fakeTransport{failAt: 2}
	p, _ := newTestPublisher(transport)

	n, err := p.Publish(context.Background(), "lab", "node-7", slices.Values(items()))

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
	assert.Equal(t, 1, n)
}

func TestPublish_ContextCanceled(t *testing.T) {
	transport := &fakeTransport{}
	p, _ := newTestPublisher(transport)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, err := p.Publish(ctx, "lab", "node-7", slices.Values(items()))

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Empty(t, transport.messages)
}

func TestPublish_CustomTopicTemplate(t *testing.T) {
	transport := &fakeTransport{}
	m := metrics.New(prometheus.NewRegistry())
	p := NewPublisher(transport, g2.NewEncoder(nil, nil), "site/{network}/{node}/g2", 0, m, zap.NewNop())

	_, err := p.Publish(context.Background(), "a", "b", slices.Values(items()[:1]))

	require.NoError(t, err)
	require.Len(t, transport.messages, 1)
	assert.Equal(t, "site/a/b/g2", transport.messages[0].topic)
}
