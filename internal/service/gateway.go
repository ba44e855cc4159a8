package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"time"

	"g2-mqtt/g2"
	"g2-mqtt/internal/config"
	"g2-mqtt/internal/consumer"
	"g2-mqtt/internal/metrics"
	"g2-mqtt/internal/repository"

	"g2-mqtt/common/database"
	mqttcommon "g2-mqtt/common/mqtt"
	rediscommon "g2-mqtt/common/redis"

	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// GatewayService G2 网关服务：MQTT -> 解码 -> Redis Streams / PostgreSQL
type GatewayService struct {
	config        *config.Config
	logger        *zap.Logger
	db            *sql.DB
	redis         *redis.Client
	mqttClient    *mqttcommon.Client
	consumer      *consumer.MQTTConsumer
	metricsServer *http.Server
}

// NewGatewayService 创建网关服务
func NewGatewayService(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*GatewayService, error) {
	s := &GatewayService{
		config: cfg,
		logger: logger,
	}

	decoder, err := g2.NewDecoder(g2.DefaultRegistry(), logger.Named("g2")).WithVersion(cfg.G2.Version)
	if err != nil {
		return nil, err
	}

	// 初始化数据库（可选）
	var store consumer.MeasurementStore
	if cfg.G2.StoreEnabled {
		db, err := database.NewPostgresDB(ctx, &cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		s.db = db
		store = repository.NewMeasurementRepository(db, logger)
	}

	// 初始化Redis
	s.redis, err = rediscommon.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	// 初始化MQTT
	s.mqttClient, err = mqttcommon.NewClient(&cfg.MQTT, logger)
	if err != nil {
		s.close()
		return nil, fmt.Errorf("failed to connect to MQTT: %w", err)
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	s.consumer = consumer.NewMQTTConsumer(cfg, s.mqttClient, s.redis, store, decoder, m, logger)

	if cfg.Metrics.Addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		s.metricsServer = &http.Server{
			Addr:              cfg.Metrics.Addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	return s, nil
}

// Start 启动服务
func (s *GatewayService) Start(ctx context.Context) error {
	s.logger.Info("Starting gateway service components")

	if s.metricsServer != nil {
		go func() {
			if err := s.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				s.logger.Error("Metrics server failed", zap.Error(err))
			}
		}()
		s.logger.Info("Metrics endpoint listening", zap.String("addr", s.metricsServer.Addr))
	}

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start MQTT consumer: %w", err)
	}

	s.logger.Info("Gateway service started successfully")
	return nil
}

// Stop 停止服务
func (s *GatewayService) Stop(ctx context.Context) error {
	s.logger.Info("Stopping gateway service")

	if s.consumer != nil {
		if err := s.consumer.Stop(ctx); err != nil {
			s.logger.Error("Error stopping consumer", zap.Error(err))
		}
	}

	if s.metricsServer != nil {
		if err := s.metricsServer.Shutdown(ctx); err != nil {
			s.logger.Error("Error stopping metrics server", zap.Error(err))
		}
	}

	s.close()
	s.logger.Info("Gateway service stopped")
	return nil
}

func (s *GatewayService) close() {
	if s.mqttClient != nil {
		s.mqttClient.Disconnect()
	}
	if s.redis != nil {
		rediscommon.Close(s.redis)
	}
	if s.db != nil {
		database.Close(s.db)
	}
}
