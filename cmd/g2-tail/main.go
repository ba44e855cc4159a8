package main

import (
	"context"
	"encoding/json"
	"log"
	"os"
	"os/signal"
	"syscall"

	"g2-mqtt/common/logger"
	rediscommon "g2-mqtt/common/redis"
	"g2-mqtt/internal/config"
	"g2-mqtt/internal/consumer"
	"g2-mqtt/internal/models"

	"go.uber.org/zap"
)

// 以 JSON Lines 输出网关解码后的测量值
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	l, err := logger.NewLogger(cfg.Log.Level, "console", "g2-tail")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	redisClient, err := rediscommon.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		l.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer rediscommon.Close(redisClient)

	out := json.NewEncoder(os.Stdout)
	reader := consumer.NewStreamReader(cfg, redisClient, l)
	if err := reader.Run(ctx, func(ctx context.Context, m *models.DecodedMeasurement) error {
		return out.Encode(m)
	}); err != nil {
		l.Fatal("Stream reader failed", zap.Error(err))
	}
}
