package config

import (
	"fmt"
	"os"
	"strconv"

	"g2-mqtt/common/config"
	"g2-mqtt/g2"
)

// Config G2 网关配置
type Config struct {
	Database config.DatabaseConfig
	Redis    config.RedisConfig
	MQTT     config.MQTTConfig

	// G2 编解码特定配置
	G2 struct {
		Topics struct {
			Data    string // 订阅主题，如 "g2/+/+/data"
			Publish string // 发布主题模板，如 "g2/{network}/{node}/data"
		}
		Version uint8 // 期望的协议版本

		Stream        string // 解码结果输出流，如 "g2:measurements:stream"
		ConsumerGroup string // g2-tail 使用的消费者组
		ConsumerName  string
		BatchSize     int64

		StoreEnabled bool // 是否写入 PostgreSQL
	}

	Metrics struct {
		Addr string // 为空时不暴露 /metrics
	}

	Log struct {
		Level  string
		Format string
	}
}

// Load 加载配置
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.Database.Host = getEnv("DB_HOST", "localhost")
	cfg.Database.Port = 5432
	cfg.Database.User = getEnv("DB_USER", "postgres")
	cfg.Database.Password = getEnv("DB_PASSWORD", "postgres")
	cfg.Database.Database = getEnv("DB_NAME", "g2")
	cfg.Database.SSLMode = getEnv("DB_SSLMODE", "disable")
	cfg.Database.LoadFromEnv("DB")

	cfg.Redis.Addr = getEnv("REDIS_ADDR", "localhost:6379")
	cfg.Redis.Password = getEnv("REDIS_PASSWORD", "")
	cfg.Redis.DB = 0
	cfg.Redis.LoadFromEnv("REDIS")

	cfg.MQTT.Broker = getEnv("MQTT_BROKER", "tcp://localhost:1883")
	cfg.MQTT.ClientID = getEnv("MQTT_CLIENT_ID", "g2-gateway")
	cfg.MQTT.Username = getEnv("MQTT_USERNAME", "")
	cfg.MQTT.Password = getEnv("MQTT_PASSWORD", "")
	cfg.MQTT.QoS = 1
	cfg.MQTT.LoadFromEnv("MQTT")

	cfg.G2.Topics.Data = getEnv("G2_TOPIC_DATA", g2.TopicWildcard)
	cfg.G2.Topics.Publish = getEnv("G2_TOPIC_PUBLISH", g2.TopicTemplate)

	version, err := strconv.Atoi(getEnv("G2_VERSION", strconv.Itoa(int(g2.Version))))
	if err != nil || version < 1 || version >= int(g2.VersionLimit) {
		return nil, fmt.Errorf("invalid G2_VERSION: must be 1..%d", g2.VersionLimit-1)
	}
	cfg.G2.Version = uint8(version)

	cfg.G2.Stream = getEnv("G2_STREAM", "g2:measurements:stream")
	cfg.G2.ConsumerGroup = getEnv("G2_CONSUMER_GROUP", "g2-tail-group")
	cfg.G2.ConsumerName = getEnv("G2_CONSUMER_NAME", "g2-tail-1")
	cfg.G2.BatchSize = 10
	cfg.G2.StoreEnabled = getEnv("G2_STORE_ENABLED", "true") == "true"

	cfg.Metrics.Addr = ":9102"
	if addr, ok := os.LookupEnv("METRICS_ADDR"); ok {
		cfg.Metrics.Addr = addr
	}

	cfg.Log.Level = getEnv("LOG_LEVEL", "info")
	cfg.Log.Format = getEnv("LOG_FORMAT", "json")

	return cfg, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
