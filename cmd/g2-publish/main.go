package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"io"
	"iter"
	"log"
	"os"
	"os/signal"
	"syscall"

	"g2-mqtt/common/logger"
	mqttcommon "g2-mqtt/common/mqtt"
	"g2-mqtt/g2"
	"g2-mqtt/internal/config"
	"g2-mqtt/internal/metrics"
	"g2-mqtt/internal/models"
	"g2-mqtt/internal/publisher"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// 从标准输入读取 JSON Lines 测量值（按 time 升序），编码后发布
//
//	{"time": 1700000000, "datatype": "temperature", "value": 21.5}
func main() {
	network := flag.String("network", "", "network name used in the topic")
	node := flag.String("node", "", "node name used in the topic")
	clientID := flag.String("client-id", "g2-publish", "MQTT client id")
	flag.Parse()

	if *network == "" || *node == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.MQTT.ClientID = *clientID

	l, err := logger.NewLogger(cfg.Log.Level, "console", "g2-publish")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer l.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := mqttcommon.NewClient(&cfg.MQTT, l)
	if err != nil {
		l.Fatal("Failed to connect to MQTT", zap.Error(err))
	}
	defer client.Disconnect()

	encoder, err := g2.NewEncoder(g2.DefaultRegistry(), l.Named("g2")).WithVersion(cfg.G2.Version)
	if err != nil {
		l.Fatal("Invalid G2 version", zap.Error(err))
	}

	p := publisher.NewPublisher(client, encoder, cfg.G2.Topics.Publish, cfg.MQTT.QoS, metrics.New(prometheus.NewRegistry()), l)

	var readErr error
	n, err := p.Publish(ctx, *network, *node, readItems(os.Stdin, &readErr))
	if err != nil {
		l.Fatal("Failed to publish", zap.Int("published", n), zap.Error(err))
	}
	if readErr != nil {
		l.Fatal("Failed to read input", zap.Int("published", n), zap.Error(readErr))
	}

	l.Info("Published G2 packets",
		zap.String("topic", g2.RenderTopic(cfg.G2.Topics.Publish, *network, *node)),
		zap.Int("packets", n),
	)
}

// readItems 逐行解析输入，出错时停止并写入 errp
func readItems(r io.Reader, errp *error) iter.Seq[g2.Item] {
	return func(yield func(g2.Item) bool) {
		dec := json.NewDecoder(bufio.NewReader(r))
		for {
			var line models.InputLine
			if err := dec.Decode(&line); err != nil {
				if !errors.Is(err, io.EOF) {
					*errp = err
				}
				return
			}
			if !yield(line.Item()) {
				return
			}
		}
	}
}
