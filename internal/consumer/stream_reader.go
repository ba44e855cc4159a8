package consumer

import (
	"context"
	"fmt"
	"time"

	"g2-mqtt/internal/config"
	"g2-mqtt/internal/models"

	rediscommon "g2-mqtt/common/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// MeasurementHandler 处理从 Streams 读出的测量值
type MeasurementHandler func(ctx context.Context, m *models.DecodedMeasurement) error

// StreamReader 以消费者组方式读取网关输出的测量值流
type StreamReader struct {
	config      *config.Config
	redisClient *redis.Client
	logger      *zap.Logger

	block      time.Duration
	maxBackoff time.Duration
}

// NewStreamReader 创建 Streams 读取器
func NewStreamReader(cfg *config.Config, redisClient *redis.Client, logger *zap.Logger) *StreamReader {
	return &StreamReader{
		config:      cfg,
		redisClient: redisClient,
		logger:      logger,
		block:       5 * time.Second,
		maxBackoff:  30 * time.Second,
	}
}

// Run 持续读取直到 ctx 取消。handler 失败的消息不确认，留在 pending 列表中
func (r *StreamReader) Run(ctx context.Context, handler MeasurementHandler) error {
	stream := r.config.G2.Stream
	group := r.config.G2.ConsumerGroup

	if err := rediscommon.CreateConsumerGroup(ctx, r.redisClient, stream, group); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", stream, err)
	}

	r.logger.Info("Stream reader started",
		zap.String("stream", stream),
		zap.String("consumer_group", group),
		zap.String("consumer_name", r.config.G2.ConsumerName),
	)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return nil
		}

		if err := r.readOnce(ctx, handler); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			r.logger.Error("Failed to read stream",
				zap.String("stream", stream),
				zap.Duration("backoff", backoff),
				zap.Error(err),
			)

			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
				backoff *= 2
				if backoff > r.maxBackoff {
					backoff = r.maxBackoff
				}
			}
			continue
		}
		backoff = time.Second
	}
}

func (r *StreamReader) readOnce(ctx context.Context, handler MeasurementHandler) error {
	stream := r.config.G2.Stream
	group := r.config.G2.ConsumerGroup

	messages, err := rediscommon.ReadFromStream(ctx, r.redisClient, stream, group, r.config.G2.ConsumerName, r.config.G2.BatchSize, r.block)
	if err != nil {
		return err
	}

	for _, msg := range messages {
		m, err := models.ParseStreamValues(msg.Values)
		if err != nil {
			// 无法解析的消息直接确认，避免反复投递
			r.logger.Warn("Dropping malformed stream message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			if err := rediscommon.Ack(ctx, r.redisClient, stream, group, msg.ID); err != nil {
				return err
			}
			continue
		}

		if err := handler(ctx, m); err != nil {
			r.logger.Error("Failed to handle measurement",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			continue
		}

		if err := rediscommon.Ack(ctx, r.redisClient, stream, group, msg.ID); err != nil {
			return err
		}
	}

	return nil
}
