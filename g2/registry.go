package g2

import (
	"errors"
	"fmt"
	"sync"
)

// VersionChannel 保留通道名，对应报文头中的版本字节
const VersionChannel = "version"

var (
	ErrDuplicateCode = errors.New("g2: duplicate channel code")
	ErrDuplicateName = errors.New("g2: duplicate channel name")
	ErrReservedCode  = errors.New("g2: reserved channel code must be below version limit")
	ErrChannelCode   = errors.New("g2: measurement channel code must be above version limit")
	ErrVersion       = errors.New("g2: version must be between 1 and version limit")
)

// Channel 通道定义（参考 IPSO smart objects）
type Channel struct {
	Name string
	Unit string
	Code uint8
}

// Key 通道的语义键 "name,unit"
func (c Channel) Key() string {
	return c.Name + "," + c.Unit
}

// IsMeasurement 是否为测量通道（非保留的版本通道）
func (c Channel) IsMeasurement() bool {
	return c.Code > VersionLimit
}

// DefaultChannels 通道表。新增通道只能追加新的编号，已有编号不可复用或调整
var DefaultChannels = []Channel{
	{Name: VersionChannel, Unit: "", Code: 1},

	{Name: "temperature", Unit: "C", Code: 103},
	{Name: "humidity", Unit: "%", Code: 104},
	{Name: "barometer", Unit: "Pa", Code: 115},

	{Name: "pegasor:PN", Unit: "n/cm^3", Code: 120},
	{Name: "pegasor:OmeFT", Unit: "", Code: 121},
	{Name: "pegasor:humidity", Unit: "%", Code: 122},
	{Name: "pegasor:FeedPressure", Unit: "kPa", Code: 123},
	{Name: "pegasor:ambient_temperature", Unit: "C", Code: 124},
	{Name: "pegasor:board_temperature", Unit: "C", Code: 125},
	{Name: "pegasor:CMD", Unit: "nm", Code: 126},
	{Name: "pegasor:error", Unit: "", Code: 127},
	{Name: "pegasor:PM", Unit: "µg/m^3", Code: 128},
	{Name: "pegasor:LDSA", Unit: "µm^2/cm^3", Code: 129},
	{Name: "pegasor:PN_uncut", Unit: "n/cm^3", Code: 130},

	{Name: "lat", Unit: "deg", Code: 136},
	{Name: "lon", Unit: "deg", Code: 137},

	{Name: "activity", Unit: "", Code: 200},
	{Name: "disk", Unit: "%", Code: 201},
	{Name: "load", Unit: "", Code: 202},
	{Name: "memory", Unit: "%", Code: 203},

	{Name: "pump:i_term", Unit: "", Code: 230},
	{Name: "pump:last_time", Unit: "", Code: 231},
	{Name: "pump:set_w", Unit: "W", Code: 232},
	{Name: "pump:p_w", Unit: "W", Code: 233},
	{Name: "pump:u_set_v", Unit: "V", Code: 234},
	{Name: "pump:u_v", Unit: "V", Code: 235},
	{Name: "pump:i_a", Unit: "A", Code: 236},
	{Name: "pump:freq", Unit: "Hz", Code: 237},
}

// Registry 通道注册表，构建后只读，可并发读取
type Registry struct {
	channels []Channel
	byName   map[string]uint8
	byCode   map[uint8]Channel
}

// NewRegistry 根据通道表构建注册表
func NewRegistry(channels []Channel) (*Registry, error) {
	r := &Registry{
		channels: make([]Channel, 0, len(channels)),
		byName:   make(map[string]uint8, len(channels)),
		byCode:   make(map[uint8]Channel, len(channels)),
	}

	for _, ch := range channels {
		if ch.Name == VersionChannel {
			if ch.Code == 0 || ch.Code >= VersionLimit {
				return nil, fmt.Errorf("%w: %s=%d", ErrReservedCode, ch.Name, ch.Code)
			}
		} else if !ch.IsMeasurement() {
			return nil, fmt.Errorf("%w: %s=%d", ErrChannelCode, ch.Name, ch.Code)
		}

		if existing, ok := r.byCode[ch.Code]; ok {
			return nil, fmt.Errorf("%w: %d used by %s and %s", ErrDuplicateCode, ch.Code, existing.Name, ch.Name)
		}
		if _, ok := r.byName[ch.Name]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateName, ch.Name)
		}

		r.channels = append(r.channels, ch)
		r.byName[ch.Name] = ch.Code
		r.byCode[ch.Code] = ch
	}

	return r, nil
}

// MustRegistry 同 NewRegistry，通道表非法时 panic（启动期致命错误）
func MustRegistry(channels []Channel) *Registry {
	r, err := NewRegistry(channels)
	if err != nil {
		panic(err)
	}
	return r
}

var defaultRegistry = sync.OnceValue(func() *Registry {
	return MustRegistry(DefaultChannels)
})

// DefaultRegistry 进程级共享注册表，首次调用时构建
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// EncodeChannel datatype -> 通道号
func (r *Registry) EncodeChannel(name string) (uint8, bool) {
	code, ok := r.byName[name]
	return code, ok
}

// DecodeChannel 通道号 -> (datatype, unit)
func (r *Registry) DecodeChannel(code uint8) (Channel, bool) {
	ch, ok := r.byCode[code]
	return ch, ok
}

// Channels 按声明顺序返回通道表副本
func (r *Registry) Channels() []Channel {
	out := make([]Channel, len(r.channels))
	copy(out, r.channels)
	return out
}

// Len 通道数量
func (r *Registry) Len() int {
	return len(r.channels)
}
