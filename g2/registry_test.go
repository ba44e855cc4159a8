package g2

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Lookups(t *testing.T) {
	reg := DefaultRegistry()

	code, ok := reg.EncodeChannel("temperature")
	require.True(t, ok)
	assert.Equal(t, uint8(103), code)

	ch, ok := reg.DecodeChannel(237)
	require.True(t, ok)
	assert.Equal(t, "pump:freq", ch.Name)
	assert.Equal(t, "Hz", ch.Unit)
	assert.Equal(t, "pump:freq,Hz", ch.Key())

	_, ok = reg.EncodeChannel("not-a-channel")
	assert.False(t, ok)

	_, ok = reg.DecodeChannel(250)
	assert.False(t, ok)

	assert.Same(t, reg, DefaultRegistry())
	assert.Equal(t, len(DefaultChannels), reg.Len())
}

func TestDefaultChannels_CodeRanges(t *testing.T) {
	seen := make(map[uint8]string)
	for _, ch := range DefaultChannels {
		if ch.Name == VersionChannel {
			assert.Equal(t, uint8(1), ch.Code)
			assert.Less(t, ch.Code, VersionLimit)
		} else {
			assert.Greater(t, ch.Code, VersionLimit, "channel %s", ch.Name)
		}
		_, dup := seen[ch.Code]
		assert.False(t, dup, "code %d reused", ch.Code)
		seen[ch.Code] = ch.Name
	}
}

func TestNewRegistry_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		channels []Channel
		want     error
	}{
		{
			name: "duplicate code",
			channels: []Channel{
				{Name: "temperature", Unit: "C", Code: 103},
				{Name: "humidity", Unit: "%", Code: 103},
			},
			want: ErrDuplicateCode,
		},
		{
			name: "duplicate name",
			channels: []Channel{
				{Name: "temperature", Unit: "C", Code: 103},
				{Name: "temperature", Unit: "F", Code: 104},
			},
			want: ErrDuplicateName,
		},
		{
			name:     "measurement below limit",
			channels: []Channel{{Name: "temperature", Unit: "C", Code: 100}},
			want:     ErrChannelCode,
		},
		{
			name:     "version above limit",
			channels: []Channel{{Name: VersionChannel, Code: 150}},
			want:     ErrReservedCode,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg, err := NewRegistry(tt.channels)
			assert.Nil(t, reg)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestMustRegistry_Panics(t *testing.T) {
	assert.Panics(t, func() {
		MustRegistry([]Channel{
			{Name: "a", Code: 110},
			{Name: "b", Code: 110},
		})
	})
}

func TestRegistry_ChannelsIsCopy(t *testing.T) {
	reg := MustRegistry([]Channel{{Name: "temperature", Unit: "C", Code: 103}})

	channels := reg.Channels()
	channels[0].Name = "changed"

	ch, ok := reg.DecodeChannel(103)
	require.True(t, ok)
	assert.Equal(t, "temperature", ch.Name)
	assert.Equal(t, "temperature", reg.Channels()[0].Name)
}

func TestTopic(t *testing.T) {
	assert.Equal(t, "g2/net1/node7/data", Topic("net1", "node7"))

	network, node, err := ParseTopic("g2/net1/node7/data")
	require.NoError(t, err)
	assert.Equal(t, "net1", network)
	assert.Equal(t, "node7", node)

	for _, topic := range []string{"g2/net1/data", "radar/net1/node7/data", "g2/net1/node7/cmd", "g2//node7/data"} {
		_, _, err := ParseTopic(topic)
		assert.Error(t, err, topic)
	}
}
