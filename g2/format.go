package g2

import "fmt"

// G2 报文格式（大端）
//
// Header (5 bytes):
//
//	uint8    version    1..0x63
//	uint32be timestamp  unix 秒
//
// Record (5 bytes, 每个报文至少 1 条):
//
//	uint8     channel   0x65..0xFF
//	float32be value
//
// datatype 与 unit 通过通道表带外传输，不写入报文。
// 示例：11 个通道 x 5 bytes + header 5 bytes = 60 bytes
const (
	// Version 当前编码器写入的协议版本
	Version uint8 = 1

	// VersionLimit 小于该值的字节是版本号（报文头开始），其余是通道号
	VersionLimit uint8 = 0x64

	// PartSize header 和 record 的字节长度相同
	PartSize = 5

	// PartSizeBits 一个 header 的位数
	PartSizeBits = PartSize * 8

	timestampSize = 4
	valueSize     = 4
)

func checkVersion(version uint8) error {
	if version == 0 || version >= VersionLimit {
		return fmt.Errorf("%w: %d", ErrVersion, version)
	}
	return nil
}

// Item 编码输入：分组时间戳 + 测量值
type Item struct {
	At          float64
	Measurement Measurement
}

// Measurement 单个测量值
type Measurement struct {
	Datatype string   `json:"datatype"`
	Value    float32  `json:"value"`
	Unit     string   `json:"unit"`
	Time     *float64 `json:"time,omitempty"`
}
