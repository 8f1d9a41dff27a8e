package envsensor

import (
	"errors"
	"testing"

	"github.com/fako1024/filamentscale/pkg/mock"
	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) (*Manager, *mock.EnvSensor) {
	t.Helper()

	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	src := &mock.EnvSensor{}
	src.Set(21.5, 48.)

	return New(src, store), src
}

func TestRefresh(t *testing.T) {
	m, src := newTestManager(t)

	sample := m.Refresh()
	require.True(t, sample.Valid)
	assert.InDelta(t, 21.5, sample.Temperature, 1e-12)
	assert.InDelta(t, 48., sample.Humidity, 1e-12)

	// Within the refresh period the cached sample is served
	src.Set(30., 60.)
	sample = m.Refresh()
	assert.InDelta(t, 21.5, sample.Temperature, 1e-12)
	assert.Equal(t, sample, m.Last())
}

func TestRefreshFailure(t *testing.T) {
	m, src := newTestManager(t)

	src.SetError(errors.New("bus error"))
	sample := m.Refresh()
	assert.False(t, sample.Valid)
}

func TestTemperatureScale(t *testing.T) {
	m, _ := newTestManager(t)
	m.Refresh()

	// Fahrenheit is the default scale
	assert.Equal(t, Fahrenheit, m.Scale())
	assert.InDelta(t, 70.7, m.Temperature(), 1e-9)
	assert.Equal(t, "°F", m.Scale().String())
	assert.Equal(t, 0, m.Scale().Precision())

	require.True(t, m.SetScale(Celsius))
	assert.InDelta(t, 21.5, m.Temperature(), 1e-12)
	assert.Equal(t, "°C", m.Scale().String())
	assert.Equal(t, 1, m.Scale().Precision())

	assert.False(t, m.SetScale(NumTempScales))
	assert.Equal(t, Celsius, m.Scale())

	assert.InDelta(t, 48., m.Humidity(), 1e-12)
}

func TestPersistence(t *testing.T) {
	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	m := New(&mock.EnvSensor{}, store)
	require.True(t, m.Init("envsensor"))
	assert.False(t, m.Restore())

	require.True(t, m.SetScale(Celsius))
	require.True(t, m.Save())

	restored := New(&mock.EnvSensor{}, store)
	require.True(t, restored.Init("envsensor"))
	require.True(t, restored.Restore())
	assert.Equal(t, Celsius, restored.Scale())

	require.NoError(t, store.Put("envsensor", []byte{0xFF}))
	assert.False(t, restored.Restore())
	assert.Equal(t, Celsius, restored.Scale())

	assert.True(t, restored.Reset())
	assert.False(t, restored.Restore())
}
