package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"g2-mqtt/common/logger"
	"g2-mqtt/internal/config"
	"g2-mqtt/internal/service"

	"go.uber.org/zap"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 初始化Logger
	l, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "g2-gateway")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	l.Info("Starting g2-gateway service",
		zap.String("mqtt_broker", cfg.MQTT.Broker),
		zap.String("topic", cfg.G2.Topics.Data),
		zap.Uint8("g2_version", cfg.G2.Version),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := service.NewGatewayService(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to create gateway service", zap.Error(err))
	}

	if err := gateway.Start(ctx); err != nil {
		l.Fatal("Failed to start gateway service", zap.Error(err))
	}

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	l.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	// 优雅关闭：先取消订阅，再取消处理中消息使用的 ctx
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := gateway.Stop(shutdownCtx); err != nil {
		l.Error("Error during shutdown", zap.Error(err))
	}
	cancel()

	l.Info("Service stopped")
}
