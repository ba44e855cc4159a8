package g2

import (
	"encoding/binary"
	"iter"
	"math"
	"slices"

	"go.uber.org/zap"
)

// Encoder G2 编码器，不保存调用间状态，可并发使用
type Encoder struct {
	version  uint8
	registry *Registry
	logger   *zap.Logger
}

// NewEncoder 创建编码器。registry 为 nil 时使用 DefaultRegistry，logger 为 nil 时不输出日志
func NewEncoder(registry *Registry, logger *zap.Logger) *Encoder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Encoder{
		version:  Version,
		registry: registry,
		logger:   logger,
	}
}

// WithVersion 返回写入指定协议版本的编码器副本
func (e *Encoder) WithVersion(version uint8) (*Encoder, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	c := *e
	c.version = version
	return &c, nil
}

// Version 编码器写入的协议版本
func (e *Encoder) Version() uint8 {
	return e.version
}

// Encode 将按时间排序的测量值编码为报文序列。
// 输入顺序由调用方保证；乱序只会产生更多更小的报文。
// 同一时间戳的测量值总在同一报文中，只有报文头的报文不会输出。
func (e *Encoder) Encode(items iter.Seq[Item]) iter.Seq[[]byte] {
	return func(yield func([]byte) bool) {
		var (
			payload  []byte
			previous float64
			started  bool
			skip     bool
		)

		for item := range items {
			if !started || item.At != previous {
				if len(payload)*8 > PartSizeBits {
					if !yield(payload) {
						return
					}
				}
				payload, skip = e.startPacket(item.At)
				started = true
			}
			previous = item.At

			if skip {
				continue
			}
			payload = e.appendRecord(payload, item.Measurement)
		}

		if len(payload)*8 > PartSizeBits {
			yield(payload)
		}
	}
}

// EncodeAll 一次性编码全部测量值
func (e *Encoder) EncodeAll(items []Item) [][]byte {
	return slices.Collect(e.Encode(slices.Values(items)))
}

// startPacket 新建报文缓冲并写入报文头。时间戳超出 uint32 时返回 skip=true，整组丢弃
func (e *Encoder) startPacket(at float64) ([]byte, bool) {
	if math.IsNaN(at) || at < 0 || at >= math.MaxUint32+1 {
		e.logger.Warn("Timestamp out of range, dropping group",
			zap.Float64("timestamp", at),
		)
		return nil, true
	}

	payload := make([]byte, 0, PartSize*8)
	payload = append(payload, e.version)
	payload = binary.BigEndian.AppendUint32(payload, uint32(at))
	return payload, false
}

func (e *Encoder) appendRecord(payload []byte, m Measurement) []byte {
	code, ok := e.registry.EncodeChannel(m.Datatype)
	if !ok || code <= VersionLimit {
		// 保留通道号写入会被解码端误认为报文头
		e.logger.Debug("Unknown channel",
			zap.Uint8("version", e.version),
			zap.String("channel", m.Datatype),
			zap.Float32("value", m.Value),
		)
		return payload
	}

	payload = append(payload, code)
	return binary.BigEndian.AppendUint32(payload, math.Float32bits(m.Value))
}
