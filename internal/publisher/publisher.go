package publisher

import (
	"context"
	"fmt"
	"iter"

	"g2-mqtt/g2"
	"g2-mqtt/internal/metrics"

	"go.uber.org/zap"
)

// Transport MQTT 发布接口（*mqttcommon.Client 实现）
type Transport interface {
	Publish(ctx context.Context, topic string, qos byte, retained bool, payload []byte) error
}

// Publisher 将测量值编码为 G2 报文并发布到 g2/{network}/{node}/data
type Publisher struct {
	transport     Transport
	encoder       *g2.Encoder
	topicTemplate string
	qos           byte
	metrics       *metrics.Metrics
	logger        *zap.Logger
}

// NewPublisher 创建发布器
func NewPublisher(transport Transport, encoder *g2.Encoder, topicTemplate string, qos byte, m *metrics.Metrics, logger *zap.Logger) *Publisher {
	if topicTemplate == "" {
		topicTemplate = g2.TopicTemplate
	}
	return &Publisher{
		transport:     transport,
		encoder:       encoder,
		topicTemplate: topicTemplate,
		qos:           qos,
		metrics:       m,
		logger:        logger,
	}
}

// Publish 编码并逐个发布报文，返回已发布的报文数。
// ctx 取消或发布失败时停止，不再读取后续输入。
func (p *Publisher) Publish(ctx context.Context, network, node string, items iter.Seq[g2.Item]) (int, error) {
	topic := g2.RenderTopic(p.topicTemplate, network, node)

	published := 0
	for packet := range p.encoder.Encode(items) {
		if err := ctx.Err(); err != nil {
			return published, err
		}

		if err := p.transport.Publish(ctx, topic, p.qos, false, packet); err != nil {
			return published, fmt.Errorf("failed to publish packet %d: %w", published, err)
		}

		published++
		p.metrics.PacketsPublished.Inc()
		p.metrics.BytesPublished.Add(float64(len(packet)))

		p.logger.Debug("Published G2 packet",
			zap.String("topic", topic),
			zap.Int("size", len(packet)),
		)
	}

	return published, nil
}
