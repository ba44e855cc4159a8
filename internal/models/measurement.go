package models

import (
	"encoding/json"
	"fmt"
	"time"

	"g2-mqtt/g2"
)

// DecodedMeasurement 解码后的测量值（写入 Redis Streams 与 PostgreSQL）
type DecodedMeasurement struct {
	PacketID   string    `json:"packet_id"`
	Network    string    `json:"network"`
	Node       string    `json:"node"`
	Datatype   string    `json:"datatype"`
	Unit       string    `json:"unit"`
	Value      float32   `json:"value"`
	MeasuredAt time.Time `json:"measured_at"`
	ReceivedAt time.Time `json:"received_at"`
}

// NewDecodedMeasurement 由解码结果构建
func NewDecodedMeasurement(packetID, network, node string, m g2.Measurement, receivedAt time.Time) DecodedMeasurement {
	var measuredAt time.Time
	if m.Time != nil {
		measuredAt = time.Unix(int64(*m.Time), 0).UTC()
	}
	return DecodedMeasurement{
		PacketID:   packetID,
		Network:    network,
		Node:       node,
		Datatype:   m.Datatype,
		Unit:       m.Unit,
		Value:      m.Value,
		MeasuredAt: measuredAt,
		ReceivedAt: receivedAt.UTC(),
	}
}

// ParseStreamValues 解析 Redis Streams 中的 data 字段
func ParseStreamValues(values map[string]interface{}) (*DecodedMeasurement, error) {
	raw, ok := values["data"].(string)
	if !ok {
		return nil, fmt.Errorf("missing data field")
	}

	var m DecodedMeasurement
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil, fmt.Errorf("failed to unmarshal data: %w", err)
	}
	return &m, nil
}

// InputLine g2-publish 的 JSON Lines 输入格式
type InputLine struct {
	Time     float64 `json:"time"`
	Datatype string  `json:"datatype"`
	Value    float32 `json:"value"`
	Unit     string  `json:"unit,omitempty"`
}

// Item 转换为编码输入
func (l InputLine) Item() g2.Item {
	at := l.Time
	return g2.Item{
		At: l.Time,
		Measurement: g2.Measurement{
			Datatype: l.Datatype,
			Value:    l.Value,
			Unit:     l.Unit,
			Time:     &at,
		},
	}
}
