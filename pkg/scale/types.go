package scale

import (
	"strings"
	"time"
)

// WeightUnit denotes the unit of a weight measurement
type WeightUnit uint8

const (

	// Grams denotes metric grams (the base unit of the scale)
	Grams WeightUnit = iota

	// Kilograms denotes metric kilograms
	Kilograms

	// Ounces denotes imperial ounces
	Ounces

	// Pounds denotes imperial pounds
	Pounds

	// NumWeightUnits denotes the number of supported weight units
	NumWeightUnits
)

const (
	gramsPerKilogram = 1000.
	gramsPerPound    = 453.592
	ouncesPerPound   = 16.
	gramsPerOunce    = gramsPerPound / ouncesPerPound
)

var weightUnitStrings = [NumWeightUnits]string{" g", " kg", " oz", " lb"}

// Per-unit number of decimal places shown on the display / web page
var weightUnitPrecisions = [NumWeightUnits]int{1, 3, 2, 3}

// String returns the display string of the weight unit
func (u WeightUnit) String() string {
	if u >= NumWeightUnits {
		return weightUnitStrings[Grams]
	}
	return weightUnitStrings[u]
}

// Precision returns the number of decimal places used when displaying a
// weight in this unit
func (u WeightUnit) Precision() int {
	if u >= NumWeightUnits {
		return weightUnitPrecisions[Grams]
	}
	return weightUnitPrecisions[u]
}

// BaseUnitsFactor returns the factor converting this unit to the base unit
// (grams). A return value of 0 indicates an invalid unit
func (u WeightUnit) BaseUnitsFactor() float64 {
	switch u {
	case Grams:
		return 1.
	case Kilograms:
		return gramsPerKilogram
	case Ounces:
		return gramsPerOunce
	case Pounds:
		return gramsPerPound
	default:
		return 0.
	}
}

// ParseWeightUnit parses a weight unit from its short string form, accepting
// the padded display form (e.g. " kg") as served in snapshots and settings
func ParseWeightUnit(s string) (WeightUnit, bool) {
	switch strings.TrimSpace(s) {
	case "g":
		return Grams, true
	case "kg":
		return Kilograms, true
	case "oz":
		return Ounces, true
	case "lb":
		return Pounds, true
	default:
		return NumWeightUnits, false
	}
}

// LengthUnit denotes the unit of a filament length calculation
type LengthUnit uint8

const (

	// Millimeters denotes metric millimeters (the base length unit)
	Millimeters LengthUnit = iota

	// Centimeters denotes metric centimeters
	Centimeters

	// Meters denotes metric meters
	Meters

	// Inches denotes imperial inches
	Inches

	// Feet denotes imperial feet
	Feet

	// Yards denotes imperial yards
	Yards

	// NumLengthUnits denotes the number of supported length units
	NumLengthUnits
)

const (
	mmPerMm = 1.
	cmPerMm = 1. / 10.
	mPerMm  = 1. / 1000.
	inPerMm = 1. / 25.4
	ftPerMm = inPerMm / 12.
	ydPerMm = ftPerMm / 3.
)

var lengthUnitStrings = [NumLengthUnits]string{"mm", "cm", "m", "in", "ft", "yd"}

var lengthUnitPrecisions = [NumLengthUnits]int{0, 1, 3, 2, 3, 3}

var lengthUnitFactors = [NumLengthUnits]float64{mmPerMm, cmPerMm, mPerMm, inPerMm, ftPerMm, ydPerMm}

// String returns the display string of the length unit
func (u LengthUnit) String() string {
	if u >= NumLengthUnits {
		return lengthUnitStrings[Millimeters]
	}
	return lengthUnitStrings[u]
}

// Precision returns the number of decimal places used when displaying a
// length in this unit
func (u LengthUnit) Precision() int {
	if u >= NumLengthUnits {
		return lengthUnitPrecisions[Millimeters]
	}
	return lengthUnitPrecisions[u]
}

// UnitsFactor returns the factor converting millimeters to this unit. An
// invalid unit falls back to millimeters
func (u LengthUnit) UnitsFactor() float64 {
	if u >= NumLengthUnits {
		return lengthUnitFactors[Millimeters]
	}
	return lengthUnitFactors[u]
}

// ParseLengthUnit parses a length unit from its short string form, accepting
// surrounding whitespace
func ParseLengthUnit(s string) (LengthUnit, bool) {
	for i, str := range lengthUnitStrings {
		if strings.TrimSpace(s) == str {
			return LengthUnit(i), true
		}
	}
	return NumLengthUnits, false
}

// DataPoint denotes a weight / length measurement at a certain point in time
type DataPoint struct {
	TimeStamp  time.Time
	Unit       WeightUnit
	Weight     float64
	LengthUnit LengthUnit
	Length     float64
}

// Value provides a method to retrieve the current value (for interface use)
func (d DataPoint) Value() float64 {
	return d.Weight
}

// DataPoints denotes a set of data points (usually part of a weighing session)
type DataPoints []DataPoint
