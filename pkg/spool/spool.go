// Package spool manages the catalog of filament spools: per spool the
// filament type, density, diameter, empty spool weight and display color,
// plus the selection state consumed by the length calculation.
package spool

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/fako1024/filamentscale/pkg/nvstore"
)

const (

	// NumSpools denotes the (fixed) number of catalog slots
	NumSpools = 15

	// MaxNameLen denotes the maximum length of a spool name
	MaxNameLen = 12

	// MinDiameter / MaxDiameter bound the acceptable filament diameters (mm)
	MinDiameter = 0.01
	MaxDiameter = 5.0

	// MinWeight / MaxWeight bound the acceptable empty spool weights (grams)
	MinWeight = 0.0
	MaxWeight = 5000.0

	// Defaults applied to fresh catalog slots
	DefaultWeight   = 250.0
	DefaultDiameter = 1.75
)

// Spool denotes a single filament spool
type Spool struct {
	Name     string
	Type     FilamentType
	Density  float64 // g/cm³
	Diameter float64 // mm
	Weight   float64 // empty spool weight, in the current weight unit
	Color    uint16  // RGB565 display color
}

// Validate checks a spool definition against the catalog bounds. Weight
// bounds are expressed in grams and are only meaningful while grams are the
// active unit; the caller converts entry bounds for other units
func (s *Spool) Validate() error {
	if s.Name == "" || len(s.Name) > MaxNameLen {
		return fmt.Errorf("invalid spool name %q", s.Name)
	}
	if s.Type >= NumFilamentTypes {
		return fmt.Errorf("invalid filament type %d", s.Type)
	}
	if s.Density < MinDensity || s.Density > MaxDensity {
		return fmt.Errorf("filament density %f outside [%f, %f]", s.Density, MinDensity, MaxDensity)
	}
	if s.Diameter < MinDiameter || s.Diameter > MaxDiameter {
		return fmt.Errorf("filament diameter %f outside [%f, %f]", s.Diameter, MinDiameter, MaxDiameter)
	}
	if s.Weight < MinWeight || s.Weight > MaxWeight {
		return fmt.Errorf("spool weight %f outside [%f, %f]", s.Weight, MinWeight, MaxWeight)
	}

	return nil
}

// Manager denotes the spool catalog and its selection state
type Manager struct {
	name  string
	store *nvstore.Store

	spools   [NumSpools]Spool
	selected int
}

// NewManager instantiates a new spool catalog with default entries and no
// selection
func NewManager(store *nvstore.Store) *Manager {
	m := &Manager{
		store:    store,
		selected: -1,
	}
	for i := range m.spools {
		m.spools[i] = Spool{
			Name:     fmt.Sprintf("Spool %d", i+1),
			Type:     PLA,
			Density:  PLA.DefaultDensity(),
			Diameter: DefaultDiameter,
			Weight:   DefaultWeight,
		}
	}

	return m
}

// Init registers the persistence record name for this instance
func (m *Manager) Init(name string) bool {
	if !nvstore.ValidName(name) {
		return false
	}
	m.name = name

	return true
}

// Get returns a copy of the spool in the given slot
func (m *Manager) Get(idx int) (Spool, bool) {
	if idx < 0 || idx >= NumSpools {
		return Spool{}, false
	}

	return m.spools[idx], true
}

// Update replaces the spool in the given slot after validation; invalid
// definitions leave the slot unchanged
func (m *Manager) Update(idx int, s Spool) error {
	if idx < 0 || idx >= NumSpools {
		return fmt.Errorf("invalid spool slot %d", idx)
	}
	if err := s.Validate(); err != nil {
		return err
	}
	m.spools[idx] = s

	return nil
}

// Select marks the spool in the given slot as the active one
func (m *Manager) Select(idx int) bool {
	if idx < 0 || idx >= NumSpools {
		return false
	}
	m.selected = idx

	return true
}

// Deselect clears the spool selection ("no spool" means no filament length
// is reported)
func (m *Manager) Deselect() {
	m.selected = -1
}

// SelectedIndex returns the selected slot, or -1 if no spool is selected
func (m *Manager) SelectedIndex() int {
	return m.selected
}

// Selected returns the currently selected spool, or nil if none is selected
func (m *Manager) Selected() *Spool {
	if m.selected < 0 {
		return nil
	}

	return &m.spools[m.selected]
}

// RescaleWeights multiplies every stored empty spool weight by the given
// conversion factor, keeping the catalog consistent after a weight unit
// change
func (m *Manager) RescaleWeights(factor float64) {
	for i := range m.spools {
		m.spools[i].Weight *= factor
	}
}

////////////////////////////////////////////////////////////////////////////////

// Fixed little-endian record: selected slot (i8) followed by NumSpools
// entries of name (MaxNameLen bytes, NUL padded), type (u8), density (f64),
// diameter (f64), weight (f64), color (u16)
const (
	spoolRecordSize = MaxNameLen + 1 + 8 + 8 + 8 + 2
	savedStateSize  = 1 + NumSpools*spoolRecordSize
)

// Save persists the full catalog and selection as one record, skipping the
// write if the persisted copy already matches
func (m *Manager) Save() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	buf := make([]byte, savedStateSize)
	buf[0] = byte(int8(m.selected))
	for i := range m.spools {
		m.spools[i].marshal(buf[1+i*spoolRecordSize:])
	}

	return m.store.Put(m.name, buf) == nil
}

// Restore replaces the catalog and selection with the persisted record,
// failing as a whole if the record is absent or malformed
func (m *Manager) Restore() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	data, ok := m.store.Get(m.name)
	if !ok || len(data) != savedStateSize {
		return false
	}

	selected := int(int8(data[0]))
	if selected < -1 || selected >= NumSpools {
		return false
	}

	var spools [NumSpools]Spool
	for i := range spools {
		if !spools[i].unmarshal(data[1+i*spoolRecordSize:]) {
			return false
		}
	}

	m.selected = selected
	m.spools = spools

	return true
}

// Reset deletes the persisted state record
func (m *Manager) Reset() bool {
	if m.name == "" || m.store == nil {
		return false
	}

	return m.store.Delete(m.name) == nil
}

func (s *Spool) marshal(buf []byte) {
	copy(buf[:MaxNameLen], s.Name)
	buf[MaxNameLen] = byte(s.Type)
	binary.LittleEndian.PutUint64(buf[MaxNameLen+1:], math.Float64bits(s.Density))
	binary.LittleEndian.PutUint64(buf[MaxNameLen+9:], math.Float64bits(s.Diameter))
	binary.LittleEndian.PutUint64(buf[MaxNameLen+17:], math.Float64bits(s.Weight))
	binary.LittleEndian.PutUint16(buf[MaxNameLen+25:], s.Color)
}

func (s *Spool) unmarshal(buf []byte) bool {
	name := buf[:MaxNameLen]
	end := len(name)
	for end > 0 && name[end-1] == 0 {
		end--
	}
	s.Name = string(name[:end])
	s.Type = FilamentType(buf[MaxNameLen])
	s.Density = math.Float64frombits(binary.LittleEndian.Uint64(buf[MaxNameLen+1:]))
	s.Diameter = math.Float64frombits(binary.LittleEndian.Uint64(buf[MaxNameLen+9:]))
	s.Weight = math.Float64frombits(binary.LittleEndian.Uint64(buf[MaxNameLen+17:]))
	s.Color = binary.LittleEndian.Uint16(buf[MaxNameLen+25:])

	return s.Type < NumFilamentTypes
}
