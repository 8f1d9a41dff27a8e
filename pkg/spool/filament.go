package spool

// FilamentType denotes the material of a filament spool
type FilamentType uint8

const (
	ABS FilamentType = iota
	ASA
	Copper
	HIPS
	Nylon
	PETG
	PLA
	PMMA
	PolyC
	PVA
	TPE
	TPU
	User1
	User2
	User3

	// NumFilamentTypes denotes the number of supported filament types
	NumFilamentTypes
)

var filamentTypeStrings = [NumFilamentTypes]string{
	"ABS", "ASA", "Copr", "HIPS", "Nyln", "PETG", "PLA", "PMMA",
	"PlyC", "PVA", "TPE", "TPU", "Usr1", "Usr2", "Usr3",
}

var filamentTypeLongStrings = [NumFilamentTypes]string{
	"ABS", "ASA", "Copper", "HIPS", "Nylon", "PETG", "PLA", "PMMA",
	"PolyC", "PVA", "TPE", "TPU", "User-1", "User-2", "User-3",
}

// Default densities (g/cm³) per filament type, taken from "Build a 3D
// Printer Filament Scale", Nuts/Volts 2019 issue 4
var filamentDensities = [NumFilamentTypes]float64{
	1.04, 1.07, 3.90, 1.07, 1.08, 1.27, 1.24, 1.18,
	1.20, 1.19, 1.20, 1.20, 1.24, 1.24, 1.24,
}

const (

	// MinDensity / MaxDensity bound the acceptable filament densities (g/cm³)
	MinDensity = 0.01
	MaxDensity = 5.0
)

// String returns the short display string of the filament type
func (f FilamentType) String() string {
	if f >= NumFilamentTypes {
		return "?"
	}
	return filamentTypeStrings[f]
}

// LongString returns the long display string of the filament type
func (f FilamentType) LongString() string {
	if f >= NumFilamentTypes {
		return "?"
	}
	return filamentTypeLongStrings[f]
}

// DefaultDensity returns the default density (g/cm³) of the filament type
func (f FilamentType) DefaultDensity() float64 {
	if f >= NumFilamentTypes {
		return filamentDensities[PLA]
	}
	return filamentDensities[f]
}
