package models

import (
	"encoding/json"
	"testing"
	"time"

	"g2-mqtt/g2"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDecodedMeasurement(t *testing.T) {
	at := 1000.0
	received := time.Unix(2000, 0)

	m := NewDecodedMeasurement("p1", "net", "node", g2.Measurement{
		Datatype: "temperature",
		Value:    21.5,
		Unit:     "C",
		Time:     &at,
	}, received)

	assert.Equal(t, "p1", m.PacketID)
	assert.Equal(t, int64(1000), m.MeasuredAt.Unix())
	assert.Equal(t, int64(2000), m.ReceivedAt.Unix())
	assert.Equal(t, time.UTC, m.MeasuredAt.Location())
}

func TestParseStreamValues(t *testing.T) {
	want := DecodedMeasurement{Network: "net", Node: "n1", Datatype: "humidity", Unit: "%", Value: 55}
	data, err := json.Marshal(want)
	require.NoError(t, err)

	got, err := ParseStreamValues(map[string]interface{}{"data": string(data)})
	require.NoError(t, err)
	assert.Equal(t, "humidity", got.Datatype)
	assert.Equal(t, float32(55), got.Value)

	_, err = ParseStreamValues(map[string]interface{}{})
	assert.Error(t, err)

	_, err = ParseStreamValues(map[string]interface{}{"data": "{"})
	assert.Error(t, err)
}

func TestInputLine_Item(t *testing.T) {
	var line InputLine
	require.NoError(t, json.Unmarshal([]byte(`{"time":1000,"datatype":"lat","value":60.17,"unit":"deg"}`), &line))

	item := line.Item()
	assert.Equal(t, 1000.0, item.At)
	assert.Equal(t, "lat", item.Measurement.Datatype)
	assert.Equal(t, float32(60.17), item.Measurement.Value)
	require.NotNil(t, item.Measurement.Time)
	assert.Equal(t, 1000.0, *item.Measurement.Time)
}
