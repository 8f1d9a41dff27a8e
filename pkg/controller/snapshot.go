package controller

import (
	"fmt"
)

// Snapshot denotes a flat, self-describing view of the full scale state, as
// served to web clients. Field tags follow the key convention of the
// scale's web frontend
type Snapshot struct {
	Weight          float64 `json:"WEIGHT"`
	WeightUnits     string  `json:"WEIGHT_UNITS"`
	WeightPrecision int     `json:"WEIGHT_PRECISION"`

	Length          float64 `json:"LENGTH"`
	LengthUnits     string  `json:"LENGTH_UNITS"`
	LengthPrecision int     `json:"LENGTH_PRECISION"`

	Temperature          float64 `json:"TEMPERATURE"`
	TemperatureUnits     string  `json:"TEMPERATURE_UNITS"`
	TemperaturePrecision int     `json:"TEMPERATURE_PRECISION"`
	Humidity             float64 `json:"HUMIDITY"`
	EnvValid             bool    `json:"ENV_VALID"`

	UptimeMs int64 `json:"UPTIME"`

	Calibrated bool `json:"CALIBRATED"`

	SpoolSelected    bool    `json:"SPOOL_SELECTED"`
	SpoolIndex       int     `json:"SPOOL_INDEX"`
	SpoolName        string  `json:"SPOOL_NAME,omitempty"`
	SpoolWeight      float64 `json:"SPOOL_WEIGHT,omitempty"`
	FilamentType     string  `json:"FILAMENT_TYPE,omitempty"`
	FilamentDiameter float64 `json:"FILAMENT_DIAMETER,omitempty"`
	FilamentDensity  float64 `json:"FILAMENT_DENSITY,omitempty"`
	FilamentColor    string  `json:"FILAMENT_COLOR,omitempty"`
}

// Settings denotes the adjustable parameters and their entry bounds, as
// served to web clients
type Settings struct {
	WeightUnits      string  `json:"WEIGHT_UNITS"`
	LengthUnits      string  `json:"LENGTH_UNITS"`
	TemperatureUnits string  `json:"TEMPERATURE_UNITS"`
	Gain             uint8   `json:"GAIN"`
	CalibrateWeight  float64 `json:"CALIBRATE_WEIGHT"`
	AverageSamples   int     `json:"AVG_SAMPLES"`
	MaxAvgSamples    int     `json:"MAX_AVG_SAMPLES"`
	MaxWeight        float64 `json:"MAX_WEIGHT"`
	WeightStepBig    float64 `json:"WEIGHT_STEP_BIG"`
	WeightStepSmall  float64 `json:"WEIGHT_STEP_SMALL"`
	SpoolIndex       int     `json:"SPOOL_INDEX"`
}

// Snapshot returns a consistent view of the current scale state
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	env := c.env.Last()

	s := Snapshot{
		Weight:          c.currentWeight,
		WeightUnits:     c.cell.UnitsString(),
		WeightPrecision: c.cell.Units().Precision(),

		Length:          c.currentLength,
		LengthUnits:     c.lengths.UnitsString(),
		LengthPrecision: c.lengths.Precision(),

		Temperature:          c.env.Temperature(),
		TemperatureUnits:     c.env.Scale().String(),
		TemperaturePrecision: c.env.Scale().Precision(),
		Humidity:             c.env.Humidity(),
		EnvValid:             env.Valid,

		UptimeMs: c.uptime.ElapsedTime().Milliseconds(),

		Calibrated: c.cell.IsCalibrated(),

		SpoolIndex: c.spools.SelectedIndex(),
	}

	if selected := c.spools.Selected(); selected != nil {
		s.SpoolSelected = true
		s.SpoolName = selected.Name
		s.SpoolWeight = selected.Weight
		s.FilamentType = selected.Type.LongString()
		s.FilamentDiameter = selected.Diameter
		s.FilamentDensity = selected.Density
		s.FilamentColor = rgb565ToHexString(selected.Color)
	}

	return s
}

// Settings returns the current adjustable parameters and their entry bounds
func (c *Controller) Settings() Settings {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Settings{
		WeightUnits:      c.cell.UnitsString(),
		LengthUnits:      c.lengths.UnitsString(),
		TemperatureUnits: c.env.Scale().String(),
		Gain:             c.cell.Gain(),
		CalibrateWeight:  c.calibrateWeight,
		AverageSamples:   c.avgSamples,
		MaxAvgSamples:    AvgSamplesMax,
		MaxWeight:        c.maxWeight,
		WeightStepBig:    c.weightStepBig,
		WeightStepSmall:  c.weightStepSmall,
		SpoolIndex:       c.spools.SelectedIndex(),
	}
}

// rgb565ToHexString expands a 16 bit RGB565 display color into the usual
// #RRGGBB notation (replicating the high bits into the low ones so full
// white maps to 0xFF, not 0xF8)
func rgb565ToHexString(color uint16) string {
	r := uint8(color >> 11)
	g := uint8((color >> 5) & 0x3F)
	b := uint8(color & 0x1F)

	return fmt.Sprintf("#%02X%02X%02X", r<<3|r>>2, g<<2|g>>4, b<<3|b>>2)
}
