package loadcell

import (
	"testing"

	"github.com/fako1024/filamentscale/pkg/mock"
	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/scale"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCell(t *testing.T, level int32) (*LoadCell, *mock.Sensor) {
	t.Helper()

	s := mock.New(level)
	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	return New(s, store, WithSettleDelay(0)), s
}

func TestUncalibratedSentinel(t *testing.T) {
	l, _ := newTestCell(t, 100000)

	weight, ok := l.ReadWeight()
	assert.False(t, ok)
	assert.Equal(t, UncalibratedReadValue, weight)
	assert.False(t, l.IsCalibrated())
}

func TestCalibrateRequiresTare(t *testing.T) {
	l, _ := newTestCell(t, 100000)

	assert.False(t, l.Calibrate(150000, 500.))
	assert.False(t, l.IsCalibrated())

	_, ok := l.ReadWeight()
	assert.False(t, ok)
}

func TestCalibrationRoundTrip(t *testing.T) {
	l, s := newTestCell(t, 100000)

	require.True(t, l.Tare(DefaultTareCount))

	// Put a known weight on the scale and calibrate it to 500 units
	s.SetLevel(150000)
	require.True(t, l.Calibrate(0, 500.))
	require.True(t, l.IsCalibrated())

	weight, ok := l.ReadWeight()
	require.True(t, ok)
	assert.InDelta(t, 500., weight, 1e-6)

	// A display offset (e.g. spool empty weight) is subtracted from reads
	l.SetOffset(50.)
	weight, ok = l.ReadWeight()
	require.True(t, ok)
	assert.InDelta(t, 450., weight, 1e-6)
}

func TestUnitConversionIdempotence(t *testing.T) {
	l, s := newTestCell(t, 100000)

	require.True(t, l.Tare(DefaultTareCount))
	s.SetLevel(150000)
	require.True(t, l.Calibrate(0, 500.))
	l.SetOffset(50.)

	before, ok := l.ReadWeight()
	require.True(t, ok)

	require.True(t, l.SetUnits(scale.Ounces))
	cf1 := l.ConversionFactor()
	require.True(t, l.SetUnits(scale.Grams))
	cf2 := l.ConversionFactor()

	assert.InDelta(t, 1., cf1*cf2, 1e-12)
	assert.InDelta(t, 50., l.Offset(), 1e-9)

	after, ok := l.ReadWeight()
	require.True(t, ok)
	assert.InDelta(t, before, after, 1e-9)
}

func TestSetUnits(t *testing.T) {
	l, _ := newTestCell(t, 100000)

	// Setting the current unit is a no-op success
	assert.True(t, l.SetUnits(scale.Grams))
	assert.Equal(t, scale.Grams, l.Units())

	// Invalid unit leaves state unchanged
	assert.False(t, l.SetUnits(scale.NumWeightUnits))
	assert.Equal(t, scale.Grams, l.Units())

	assert.True(t, l.SetUnits(scale.Kilograms))
	assert.Equal(t, scale.Kilograms, l.Units())
	assert.InDelta(t, 1./1000., l.ConversionFactor(), 1e-12)
}

func TestSetGainInvalidatesCalibration(t *testing.T) {
	l, s := newTestCell(t, 100000)

	require.True(t, l.Tare(DefaultTareCount))
	s.SetLevel(150000)
	require.True(t, l.Calibrate(0, 500.))

	assert.False(t, l.SetGain(100)) // invalid
	assert.False(t, l.SetGain(128)) // unchanged
	assert.True(t, l.IsCalibrated())

	assert.True(t, l.SetGain(64))
	assert.Equal(t, uint8(64), l.Gain())
	assert.False(t, l.IsCalibrated())

	_, ok := l.ReadWeight()
	assert.False(t, ok)
}

func TestReadRawAverageSpreadTolerance(t *testing.T) {
	l, s := newTestCell(t, 0)

	// Throwaway + 20 in-band readings (+/- 500 around 800000, band is 1000)
	s.Queue(12345)
	for i := 0; i < 10; i++ {
		s.Queue(800500, 799500)
	}
	assert.Equal(t, int32(800000), l.ReadRawAverage(20))

	// One outlier beyond the +/- 0.125 % band rejects the whole batch
	s.Queue(12345)
	for i := 0; i < 19; i++ {
		s.Queue(800000)
	}
	s.Queue(801200)
	assert.Equal(t, int32(0), l.ReadRawAverage(20))
}

func TestTareFailureLeavesStateIntact(t *testing.T) {
	l, s := newTestCell(t, 100000)

	require.True(t, l.Tare(DefaultTareCount))
	s.SetLevel(150000)
	require.True(t, l.Calibrate(0, 500.))

	before, ok := l.ReadWeight()
	require.True(t, ok)

	// A disturbed batch must fail the tare and keep the previous one
	s.Queue(12345)
	for i := 0; i < 19; i++ {
		s.Queue(800000)
	}
	s.Queue(900000)
	assert.False(t, l.Tare(DefaultTareCount))

	assert.True(t, l.IsCalibrated())
	after, ok := l.ReadWeight()
	require.True(t, ok)
	assert.InDelta(t, before, after, 1e-9)
}

func TestSetAverageInterval(t *testing.T) {
	l, _ := newTestCell(t, 100000)

	assert.True(t, l.SetAverageInterval(25))
	assert.Equal(t, 25, l.AverageInterval())

	assert.False(t, l.SetAverageInterval(0))
	assert.Equal(t, 1, l.AverageInterval())

	assert.False(t, l.SetAverageInterval(1000))
	assert.Equal(t, 100, l.AverageInterval())
}

func TestIsPresent(t *testing.T) {
	l, s := newTestCell(t, 100000)
	assert.True(t, l.IsPresent())

	s.SetReady(false)
	assert.False(t, l.IsPresent())

	// A raw reading of exactly 0 is treated as "sensor absent"
	s.SetReady(true)
	s.SetLevel(0)
	assert.False(t, l.IsPresent())
}

func TestPersistence(t *testing.T) {
	s := mock.New(100000)
	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	l := New(s, store, WithSettleDelay(0))
	require.True(t, l.Init("loadcell"))

	// Restore with no record fails, leaving defaults intact
	assert.False(t, l.Restore())
	assert.Equal(t, scale.Grams, l.Units())

	require.True(t, l.Tare(DefaultTareCount))
	s.SetLevel(150000)
	require.True(t, l.Calibrate(0, 500.))
	l.SetOffset(50.)
	require.True(t, l.SetUnits(scale.Ounces))
	l.SetAverageInterval(5)
	require.True(t, l.Save())

	restored := New(s, store, WithSettleDelay(0))
	require.True(t, restored.Init("loadcell"))
	require.True(t, restored.Restore())

	assert.Equal(t, l.Gain(), restored.Gain())
	assert.Equal(t, scale.Ounces, restored.Units())
	assert.True(t, restored.IsCalibrated())
	assert.Equal(t, 5, restored.AverageInterval())
	assert.InDelta(t, l.Offset(), restored.Offset(), 1e-12)

	want, ok := l.ReadWeight()
	require.True(t, ok)
	got, ok := restored.ReadWeight()
	require.True(t, ok)
	assert.InDelta(t, want, got, 1e-9)

	// A malformed record must fail the restore as a whole
	require.NoError(t, store.Put("loadcell", []byte{1, 2, 3}))
	assert.False(t, restored.Restore())
	assert.Equal(t, scale.Ounces, restored.Units())

	assert.True(t, restored.Reset())
	assert.False(t, restored.Restore())
}

func TestInitValidation(t *testing.T) {
	l, s := newTestCell(t, 100000)

	assert.False(t, l.Init(""))
	assert.False(t, l.Init("a-name-that-is-way-too-long"))
	assert.True(t, l.Init("loadcell"))

	s.SetReady(false)
	assert.False(t, l.Init("loadcell"))
}
