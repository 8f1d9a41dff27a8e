// Package length converts a net filament weight into the remaining filament
// length, based on the filament's diameter and density and the currently
// selected length unit.
package length

import (
	"math"

	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/scale"
)

// Manager denotes the length unit selection and the weight-to-length
// calculation. Apart from the selected unit it is stateless
type Manager struct {
	name     string
	store    *nvstore.Store
	selected scale.LengthUnit
}

// New instantiates a new length manager (millimeters selected by default)
func New(store *nvstore.Store) *Manager {
	return &Manager{
		store:    store,
		selected: scale.Millimeters,
	}
}

// Init registers the persistence record name for this instance
func (m *Manager) Init(name string) bool {
	if !nvstore.ValidName(name) {
		return false
	}
	m.name = name

	return true
}

// SetUnits selects the active length unit, leaving the selection unchanged
// on an invalid unit
func (m *Manager) SetUnits(unit scale.LengthUnit) bool {
	if unit >= scale.NumLengthUnits {
		return false
	}
	m.selected = unit

	return true
}

// Selected returns the currently selected length unit
func (m *Manager) Selected() scale.LengthUnit {
	return m.selected
}

// UnitsString returns the display string of the selected length unit
func (m *Manager) UnitsString() string {
	return m.selected.String()
}

// Precision returns the display precision of the selected length unit
func (m *Manager) Precision() int {
	return m.selected.Precision()
}

// UnitsFactor returns the millimeters-to-selected-unit conversion factor
func (m *Manager) UnitsFactor() float64 {
	return m.selected.UnitsFactor()
}

// CalculateLengthFactor calculates the multiplier converting a filament
// weight (in the current weight unit) directly into a filament length in the
// selected length unit.
//
// One gram of filament at density ρ (g/cm³) occupies 1/ρ cm³; dividing by
// the cross sectional area (cm²) yields length in cm, and the factor 10
// converts that to mm before the final unit correction. Degenerate diameter
// or density values are the caller's responsibility (spool validation) and
// are not guarded here
func (m *Manager) CalculateLengthFactor(filamentDiameterMM, weightFactor, filamentDensity float64) float64 {

	// Diameter in mm, needed as radius in cm, so divide by 20 instead of 2
	filamentRadiusCm := filamentDiameterMM / 20.
	filamentCrossSectionalArea := math.Pi * filamentRadiusCm * filamentRadiusCm

	result := 10. / (filamentDensity * filamentCrossSectionalArea)

	return result * weightFactor * m.UnitsFactor()
}

// Save persists the selected unit, skipping the write if the persisted copy
// already matches
func (m *Manager) Save() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	return m.store.Put(m.name, []byte{byte(m.selected)}) == nil
}

// Restore replaces the selected unit with the persisted record, failing
// without touching state if the record is absent or malformed
func (m *Manager) Restore() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	data, ok := m.store.Get(m.name)
	if !ok || len(data) != 1 || scale.LengthUnit(data[0]) >= scale.NumLengthUnits {
		return false
	}
	m.selected = scale.LengthUnit(data[0])

	return true
}

// Reset deletes the persisted state record
func (m *Manager) Reset() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	return m.store.Delete(m.name) == nil
}
