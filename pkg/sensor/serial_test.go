package sensor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeRaw(t *testing.T) {
	assert.Equal(t, int32(0), decodeRaw([3]byte{0x00, 0x00, 0x00}))
	assert.Equal(t, int32(1), decodeRaw([3]byte{0x00, 0x00, 0x01}))
	assert.Equal(t, int32(0x123456), decodeRaw([3]byte{0x12, 0x34, 0x56}))

	// 24-bit two's complement sign extension
	assert.Equal(t, int32(-1), decodeRaw([3]byte{0xFF, 0xFF, 0xFF}))
	assert.Equal(t, int32(-(1<<23)), decodeRaw([3]byte{0x80, 0x00, 0x00}))
	assert.Equal(t, int32((1<<23)-1), decodeRaw([3]byte{0x7F, 0xFF, 0xFF}))
}

func TestDecodeEnv(t *testing.T) {
	env := decodeEnv([3]byte{0x00, 0xE6, 0x64}) // 23.0 °C, 50 %
	assert.True(t, env.Valid)
	assert.InDelta(t, 23.0, env.Temperature, 1e-9)
	assert.InDelta(t, 50.0, env.Humidity, 1e-9)

	// Negative temperature
	env = decodeEnv([3]byte{0xFF, 0x9C, 0x28}) // -10.0 °C, 20 %
	assert.InDelta(t, -10.0, env.Temperature, 1e-9)
	assert.InDelta(t, 20.0, env.Humidity, 1e-9)
}
