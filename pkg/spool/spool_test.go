package spool

import (
	"testing"

	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()

	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	return NewManager(store)
}

func TestDefaults(t *testing.T) {
	m := newTestManager(t)

	assert.Equal(t, -1, m.SelectedIndex())
	assert.Nil(t, m.Selected())

	for i := 0; i < NumSpools; i++ {
		s, ok := m.Get(i)
		require.True(t, ok)
		assert.Equal(t, PLA, s.Type)
		assert.InDelta(t, 1.24, s.Density, 1e-12)
		assert.InDelta(t, DefaultDiameter, s.Diameter, 1e-12)
		assert.InDelta(t, DefaultWeight, s.Weight, 1e-12)
	}

	_, ok := m.Get(-1)
	assert.False(t, ok)
	_, ok = m.Get(NumSpools)
	assert.False(t, ok)
}

func TestSelection(t *testing.T) {
	m := newTestManager(t)

	assert.False(t, m.Select(-1))
	assert.False(t, m.Select(NumSpools))
	assert.True(t, m.Select(3))
	assert.Equal(t, 3, m.SelectedIndex())
	require.NotNil(t, m.Selected())
	assert.Equal(t, "Spool 4", m.Selected().Name)

	m.Deselect()
	assert.Equal(t, -1, m.SelectedIndex())
	assert.Nil(t, m.Selected())
}

func TestUpdateValidation(t *testing.T) {
	m := newTestManager(t)

	valid := Spool{
		Name:     "PETG Black",
		Type:     PETG,
		Density:  PETG.DefaultDensity(),
		Diameter: 2.85,
		Weight:   180.,
		Color:    0xF800,
	}
	require.NoError(t, m.Update(2, valid))
	got, ok := m.Get(2)
	require.True(t, ok)
	assert.Equal(t, valid, got)

	assert.Error(t, m.Update(-1, valid))
	assert.Error(t, m.Update(NumSpools, valid))

	bad := valid
	bad.Name = ""
	assert.Error(t, m.Update(2, bad))

	bad = valid
	bad.Name = "a-name-that-is-too-long"
	assert.Error(t, m.Update(2, bad))

	bad = valid
	bad.Type = NumFilamentTypes
	assert.Error(t, m.Update(2, bad))

	bad = valid
	bad.Density = 0.
	assert.Error(t, m.Update(2, bad))

	bad = valid
	bad.Diameter = 6.
	assert.Error(t, m.Update(2, bad))

	bad = valid
	bad.Weight = 6000.
	assert.Error(t, m.Update(2, bad))

	// A rejected update leaves the slot untouched
	got, ok = m.Get(2)
	require.True(t, ok)
	assert.Equal(t, valid, got)
}

func TestRescaleWeights(t *testing.T) {
	m := newTestManager(t)

	m.RescaleWeights(1. / 1000.)
	s, ok := m.Get(0)
	require.True(t, ok)
	assert.InDelta(t, 0.25, s.Weight, 1e-12)

	m.RescaleWeights(1000.)
	s, ok = m.Get(0)
	require.True(t, ok)
	assert.InDelta(t, DefaultWeight, s.Weight, 1e-9)
}

func TestFilamentTypeTables(t *testing.T) {
	assert.Equal(t, "PLA", PLA.String())
	assert.Equal(t, "Copr", Copper.String())
	assert.Equal(t, "Copper", Copper.LongString())
	assert.Equal(t, "Usr1", User1.String())
	assert.Equal(t, "User-1", User1.LongString())
	assert.Equal(t, "?", NumFilamentTypes.String())

	assert.InDelta(t, 1.24, PLA.DefaultDensity(), 1e-12)
	assert.InDelta(t, 3.90, Copper.DefaultDensity(), 1e-12)
	assert.InDelta(t, 1.24, NumFilamentTypes.DefaultDensity(), 1e-12)
}

func TestPersistence(t *testing.T) {
	store, err := nvstore.Open(t.TempDir())
	require.NoError(t, err)

	m := NewManager(store)
	require.True(t, m.Init("spools"))
	assert.False(t, m.Restore())

	require.NoError(t, m.Update(1, Spool{
		Name:     "ABS Red",
		Type:     ABS,
		Density:  ABS.DefaultDensity(),
		Diameter: 1.75,
		Weight:   210.,
		Color:    0x07E0,
	}))
	require.True(t, m.Select(1))
	require.True(t, m.Save())

	restored := NewManager(store)
	require.True(t, restored.Init("spools"))
	require.True(t, restored.Restore())

	assert.Equal(t, 1, restored.SelectedIndex())
	got, ok := restored.Get(1)
	require.True(t, ok)
	assert.Equal(t, "ABS Red", got.Name)
	assert.Equal(t, ABS, got.Type)
	assert.InDelta(t, 210., got.Weight, 1e-12)
	assert.Equal(t, uint16(0x07E0), got.Color)

	// A malformed record must fail the restore as a whole
	require.NoError(t, store.Put("spools", []byte{1, 2, 3}))
	assert.False(t, restored.Restore())
	assert.Equal(t, 1, restored.SelectedIndex())

	assert.True(t, restored.Reset())
	assert.False(t, restored.Restore())
}

func TestInitValidation(t *testing.T) {
	m := newTestManager(t)

	assert.False(t, m.Init(""))
	assert.False(t, m.Init("a-name-that-is-way-too-long"))
	assert.True(t, m.Init("spools"))
}
