package g2

import (
	"encoding/binary"
	"iter"
	"math"
	"slices"

	"go.uber.org/zap"
)

// decodeState 解码状态机
type decodeState int

const (
	// stateTag 期望报文头或通道号
	stateTag decodeState = iota
	// stateValue 已读到通道号，期望 float32 值
	stateValue
	stateDone
)

// Decoder G2 解码器
type Decoder struct {
	version  uint8
	registry *Registry
	logger   *zap.Logger
}

// NewDecoder 创建解码器。registry 为 nil 时使用 DefaultRegistry，logger 为 nil 时不输出日志
func NewDecoder(registry *Registry, logger *zap.Logger) *Decoder {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Decoder{
		version:  Version,
		registry: registry,
		logger:   logger,
	}
}

// WithVersion 返回期望指定协议版本的解码器副本，版本不一致只记录告警
func (d *Decoder) WithVersion(version uint8) (*Decoder, error) {
	if err := checkVersion(version); err != nil {
		return nil, err
	}
	c := *d
	c.version = version
	return &c, nil
}

// Decode 解码单个报文。
// 小于 VersionLimit 的字节开始新的报文头；不足一条记录的尾部字节被忽略。
// 没有报文头的记录使用时间戳 0。
func (d *Decoder) Decode(packet []byte) iter.Seq[Measurement] {
	return func(yield func(Measurement) bool) {
		var (
			version   uint8
			timestamp uint32
			channel   uint8
			pos       int
		)

		state := stateTag
		for state != stateDone {
			switch state {
			case stateTag:
				if len(packet)-pos < PartSize {
					state = stateDone
					continue
				}
				channel = packet[pos]
				pos++

				if channel < VersionLimit {
					version = channel
					if version != d.version {
						d.logger.Warn("Unknown version",
							zap.Uint8("version", version),
							zap.Uint8("expected", d.version),
						)
					}
					timestamp = binary.BigEndian.Uint32(packet[pos : pos+timestampSize])
					pos += timestampSize

					// 报文头之后必须跟一条完整记录
					if len(packet)-pos < PartSize {
						state = stateDone
						continue
					}
					channel = packet[pos]
					pos++
				}
				state = stateValue

			case stateValue:
				value := math.Float32frombits(binary.BigEndian.Uint32(packet[pos : pos+valueSize]))
				pos += valueSize
				state = stateTag

				ch, ok := d.registry.DecodeChannel(channel)
				if !ok || !ch.IsMeasurement() {
					d.logger.Debug("Unknown channel",
						zap.Uint8("version", version),
						zap.Uint8("expected", d.version),
						zap.Uint8("channel", channel),
						zap.Float32("value", value),
					)
					continue
				}

				at := float64(timestamp)
				if !yield(Measurement{
					Datatype: ch.Name,
					Value:    value,
					Unit:     ch.Unit,
					Time:     &at,
				}) {
					return
				}
			}
		}
	}
}

// DecodeAll 一次性解码整个报文
func (d *Decoder) DecodeAll(packet []byte) []Measurement {
	return slices.Collect(d.Decode(packet))
}
