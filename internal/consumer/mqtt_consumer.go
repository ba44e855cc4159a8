package consumer

import (
	"context"
	"fmt"
	"time"

	"g2-mqtt/g2"
	"g2-mqtt/internal/config"
	"g2-mqtt/internal/metrics"
	"g2-mqtt/internal/models"

	mqttcommon "g2-mqtt/common/mqtt"
	rediscommon "g2-mqtt/common/redis"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Subscriber MQTT 订阅接口（*mqttcommon.Client 实现）
type Subscriber interface {
	Subscribe(topic string, qos byte, handler mqttcommon.MessageHandler) error
	Unsubscribe(topics ...string) error
}

// MeasurementStore 测量值持久化接口（*repository.MeasurementRepository 实现）
type MeasurementStore interface {
	InsertBatch(ctx context.Context, measurements []models.DecodedMeasurement) error
}

// MQTTConsumer 订阅 G2 报文，解码后写入 Redis Streams 和 PostgreSQL
type MQTTConsumer struct {
	config      *config.Config
	subscriber  Subscriber
	redisClient *redis.Client
	store       MeasurementStore
	decoder     *g2.Decoder
	metrics     *metrics.Metrics
	logger      *zap.Logger

	ctx context.Context
	now func() time.Time
}

// NewMQTTConsumer 创建MQTT消费者。store 为 nil 时不写数据库
func NewMQTTConsumer(
	cfg *config.Config,
	subscriber Subscriber,
	redisClient *redis.Client,
	store MeasurementStore,
	decoder *g2.Decoder,
	m *metrics.Metrics,
	logger *zap.Logger,
) *MQTTConsumer {
	return &MQTTConsumer{
		config:      cfg,
		subscriber:  subscriber,
		redisClient: redisClient,
		store:       store,
		decoder:     decoder,
		metrics:     m,
		logger:      logger,
		ctx:         context.Background(),
		now:         time.Now,
	}
}

// Start 订阅数据主题
func (c *MQTTConsumer) Start(ctx context.Context) error {
	c.ctx = ctx

	if err := c.subscriber.Subscribe(c.config.G2.Topics.Data, c.config.MQTT.QoS, c.handleMessage); err != nil {
		return fmt.Errorf("failed to subscribe to data topic: %w", err)
	}

	c.logger.Info("MQTT consumer started",
		zap.String("topic", c.config.G2.Topics.Data),
		zap.String("stream", c.config.G2.Stream),
		zap.Bool("store_enabled", c.store != nil),
	)
	return nil
}

// Stop 取消订阅
func (c *MQTTConsumer) Stop(ctx context.Context) error {
	if err := c.subscriber.Unsubscribe(c.config.G2.Topics.Data); err != nil {
		c.logger.Error("Failed to unsubscribe", zap.Error(err))
	}

	c.logger.Info("MQTT consumer stopped")
	return nil
}

// handleMessage 处理单个 G2 报文
func (c *MQTTConsumer) handleMessage(topic string, payload []byte) error {
	start := c.now()
	c.metrics.PacketsReceived.Inc()

	c.logger.Debug("Received MQTT message",
		zap.String("topic", topic),
		zap.Int("payload_size", len(payload)),
	)

	// 主题格式: g2/{network}/{node}/data
	network, node, err := g2.ParseTopic(topic)
	if err != nil {
		return err
	}

	packetID := uuid.NewString()
	var decoded []models.DecodedMeasurement
	for m := range c.decoder.Decode(payload) {
		decoded = append(decoded, models.NewDecodedMeasurement(packetID, network, node, m, start))
		c.metrics.MeasurementsDecoded.WithLabelValues(m.Datatype).Inc()
	}

	if len(decoded) == 0 {
		c.metrics.PacketsEmpty.Inc()
		c.logger.Debug("Packet contained no known measurements",
			zap.String("topic", topic),
			zap.Int("payload_size", len(payload)),
		)
		return nil
	}

	ctx := c.ctx
	for i := range decoded {
		if _, err := rediscommon.PublishJSONToStream(ctx, c.redisClient, c.config.G2.Stream, &decoded[i]); err != nil {
			c.metrics.SinkFailures.WithLabelValues("redis").Inc()
			c.logger.Error("Failed to publish to Redis Streams",
				zap.String("stream", c.config.G2.Stream),
				zap.String("datatype", decoded[i].Datatype),
				zap.Error(err),
			)
		}
	}

	if c.store != nil {
		if err := c.store.InsertBatch(ctx, decoded); err != nil {
			c.metrics.SinkFailures.WithLabelValues("postgres").Add(float64(len(decoded)))
			c.logger.Error("Failed to store measurements",
				zap.String("packet_id", packetID),
				zap.Error(err),
			)
		}
	}

	c.metrics.PacketProcessingTime.Observe(c.now().Sub(start).Seconds())
	c.logger.Info("Decoded G2 packet",
		zap.String("packet_id", packetID),
		zap.String("network", network),
		zap.String("node", node),
		zap.Int("measurements", len(decoded)),
	)

	return nil
}
