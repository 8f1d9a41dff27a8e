// Package controller glues the measurement components together: it polls the
// load cell and the environment sensor on their respective schedules, derives
// the remaining filament length from the net weight and exposes a consistent
// snapshot of the whole scale state to the web layer.
package controller

import (
	"math"
	"sync"
	"time"

	"github.com/fako1024/filamentscale/pkg/envsensor"
	"github.com/fako1024/filamentscale/pkg/length"
	"github.com/fako1024/filamentscale/pkg/loadcell"
	"github.com/fako1024/filamentscale/pkg/scale"
	"github.com/fako1024/filamentscale/pkg/spool"
	"github.com/fatih/stopwatch"
)

const (

	// WeightUpdatePeriod denotes the minimum interval between two weight
	// refreshes; Poll may be called arbitrarily fast
	WeightUpdatePeriod = 200 * time.Millisecond

	// AvgSamplesMin / AvgSamplesMax / AvgSamplesDefault bound the moving
	// average window exposed to the user (samples at the 200 ms poll rate,
	// i.e. up to 5 seconds of smoothing)
	AvgSamplesMin     = 1
	AvgSamplesMax     = 25
	AvgSamplesDefault = 13

	// Entry bounds, expressed in grams and converted into the current weight
	// unit on every unit change
	maxWeightGrams       = 5000.
	weightStepBigGrams   = 100.
	weightStepSmallGrams = 1.

	// Bounded measurement history served to web clients (2 minutes at the
	// 200 ms refresh rate)
	historyLen = 600

	runYield = 10 * time.Millisecond
)

// Controller denotes the orchestration layer of the scale. The poll loop,
// the web handlers and the telemetry emitter all run in their own
// goroutines, so every operation and state read is serialized through one
// controller mutex; the managed components (spool catalog, length manager,
// environment manager) are only ever touched while it is held
type Controller struct {
	cell    *loadcell.LoadCell
	lengths *length.Manager
	spools  *spool.Manager
	env     *envsensor.Manager
	logger  scale.Logger

	uptime *stopwatch.Stopwatch

	mu                sync.Mutex
	lastWeightRefresh time.Time
	currentWeight     float64
	currentLength     float64
	lengthFactor      float64
	history           scale.DataPoints

	maxWeight       float64
	weightStepBig   float64
	weightStepSmall float64
	calibrateWeight float64
	avgSamples      int
}

// New instantiates a new controller on top of the given components, executing
// functional options, if any
func New(cell *loadcell.LoadCell, lengths *length.Manager, spools *spool.Manager, env *envsensor.Manager, options ...func(*Controller)) *Controller {

	c := &Controller{
		cell:            cell,
		lengths:         lengths,
		spools:          spools,
		env:             env,
		logger:          &scale.NullLogger{},
		uptime:          stopwatch.Start(0),
		maxWeight:       maxWeightGrams,
		weightStepBig:   weightStepBigGrams,
		weightStepSmall: weightStepSmallGrams,
		avgSamples:      AvgSamplesDefault,
	}
	c.cell.SetAverageInterval(AvgSamplesDefault)

	// Execute functional options (if any), see options.go for implementation
	for _, option := range options {
		option(c)
	}

	return c
}

// Poll refreshes the weight / length readings and the environment sample,
// each gated to its own update period
func (c *Controller) Poll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.lastWeightRefresh) >= WeightUpdatePeriod {
		c.lastWeightRefresh = time.Now()
		c.refreshWeight()
	}

	// The environment manager rate limits itself
	c.env.Refresh()
}

// refreshWeight takes a new weight reading and recalculates the derived
// filament length. An uncalibrated cell reads as 0 and yields no length.
// Caller must hold c.mu
func (c *Controller) refreshWeight() {
	weight, ok := c.cell.ReadWeight()
	if !ok {
		c.currentWeight = 0.
		c.currentLength = 0.
		return
	}

	c.currentWeight = roundTo(weight, c.cell.Units().Precision())
	c.currentLength = roundTo(c.lengthFactor*c.currentWeight, c.lengths.Precision())

	c.history = append(c.history, scale.DataPoint{
		TimeStamp:  time.Now(),
		Unit:       c.cell.Units(),
		Weight:     c.currentWeight,
		LengthUnit: c.lengths.Selected(),
		Length:     c.currentLength,
	})
	if len(c.history) > historyLen {
		c.history = c.history[len(c.history)-historyLen:]
	}
}

// History returns a copy of the recent measurement history (oldest first)
func (c *Controller) History() scale.DataPoints {
	c.mu.Lock()
	defer c.mu.Unlock()

	history := make(scale.DataPoints, len(c.history))
	copy(history, c.history)

	return history
}

// UpdateLengthFactor recalculates the weight-to-length multiplier from the
// selected spool's filament parameters. Without a selected spool, or on an
// uncalibrated cell, the factor (and hence any reported length) is 0
func (c *Controller) UpdateLengthFactor() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.updateLengthFactor()
}

// Caller must hold c.mu
func (c *Controller) updateLengthFactor() {
	selected := c.spools.Selected()
	if selected == nil || !c.cell.IsCalibrated() {
		c.lengthFactor = 0.
		return
	}

	c.lengthFactor = c.lengths.CalculateLengthFactor(
		selected.Diameter, c.cell.Units().BaseUnitsFactor(), selected.Density)
}

// SetWeightUnits changes the weight unit, rescaling the spool catalog and the
// entry bounds along with it
func (c *Controller) SetWeightUnits(unit scale.WeightUnit) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if unit == c.cell.Units() {
		return true
	}
	if !c.cell.SetUnits(unit) {
		return false
	}

	factor := c.cell.ConversionFactor()
	c.spools.RescaleWeights(factor)
	c.maxWeight *= factor
	c.weightStepBig *= factor
	c.weightStepSmall *= factor
	c.calibrateWeight *= factor

	// The display offset tracks the selected spool's (rescaled) weight
	if selected := c.spools.Selected(); selected != nil {
		c.cell.SetOffset(selected.Weight)
	}
	c.updateLengthFactor()
	c.refreshWeight()

	return true
}

// SetLengthUnits changes the length unit and recalculates the length factor
func (c *Controller) SetLengthUnits(unit scale.LengthUnit) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lengths.SetUnits(unit) {
		return false
	}
	c.updateLengthFactor()
	c.refreshWeight()

	return true
}

// SetAverageSamples sets the moving average window, rejecting values outside
// [AvgSamplesMin, AvgSamplesMax]
func (c *Controller) SetAverageSamples(samples int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if samples < AvgSamplesMin || samples > AvgSamplesMax {
		return false
	}
	if !c.cell.SetAverageInterval(samples) {
		return false
	}
	c.avgSamples = samples

	return true
}

// Tare zeroes the scale, returning a status string for the display / web
// layer
func (c *Controller) Tare() (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cell.Tare(loadcell.DefaultTareCount) {
		return false, "Tare failed, scale disturbed"
	}
	c.refreshWeight()

	return true, "Tare complete"
}

// Calibrate maps the current (tared) load to the given known weight in the
// current unit, returning a status string for the display / web layer
func (c *Controller) Calibrate(weight float64) (bool, string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if weight <= 0. || weight > c.maxWeight {
		return false, "Calibration weight out of range"
	}
	if !c.cell.Calibrate(0, weight) {
		return false, "Calibration failed, tare the scale first"
	}
	c.calibrateWeight = weight
	c.updateLengthFactor()
	c.refreshWeight()

	return true, "Calibration complete"
}

// SelectSpool selects the spool in the given slot (or deselects on a negative
// index), adjusting the display offset and the length factor accordingly
func (c *Controller) SelectSpool(idx int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if idx < 0 {
		c.spools.Deselect()
		c.cell.SetOffset(0.)
		c.updateLengthFactor()
		return true
	}

	if !c.spools.Select(idx) {
		return false
	}
	c.cell.SetOffset(c.spools.Selected().Weight)
	c.updateLengthFactor()

	return true
}

// MaxWeight returns the maximum entry weight in the current unit
func (c *Controller) MaxWeight() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.maxWeight
}

// AverageSamples returns the current moving average window
func (c *Controller) AverageSamples() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.avgSamples
}

// SaveSettings persists the state of all components
func (c *Controller) SaveSettings() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.cell.Save()
	ok = c.lengths.Save() && ok
	ok = c.spools.Save() && ok
	ok = c.env.Save() && ok

	return ok
}

// RestoreSettings restores all components from their persisted records.
// Components without a (valid) record simply keep their defaults, the
// remaining state is reconciled afterwards
func (c *Controller) RestoreSettings() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.cell.Restore() {
		c.logger.Infof("no saved load cell state, using defaults")
	}
	if !c.lengths.Restore() {
		c.logger.Infof("no saved length unit, using defaults")
	}
	if !c.spools.Restore() {
		c.logger.Infof("no saved spool catalog, using defaults")
	}
	if !c.env.Restore() {
		c.logger.Infof("no saved temperature scale, using defaults")
	}

	factor := 1. / c.cell.Units().BaseUnitsFactor()
	c.maxWeight = maxWeightGrams * factor
	c.weightStepBig = weightStepBigGrams * factor
	c.weightStepSmall = weightStepSmallGrams * factor
	c.avgSamples = c.cell.AverageInterval()

	if selected := c.spools.Selected(); selected != nil {
		c.cell.SetOffset(selected.Weight)
	}
	c.updateLengthFactor()
}

// ResetSettings deletes the persisted state of all components
func (c *Controller) ResetSettings() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	ok := c.cell.Reset()
	ok = c.lengths.Reset() && ok
	ok = c.spools.Reset() && ok
	ok = c.env.Reset() && ok

	return ok
}

// Run polls cooperatively until the done channel is closed
func (c *Controller) Run(done <-chan struct{}) {
	for {
		select {
		case <-done:
			return
		default:
			c.Poll()
			time.Sleep(runYield)
		}
	}
}

func roundTo(val float64, precision int) float64 {
	shift := math.Pow(10., float64(precision))

	return math.Round(val*shift) / shift
}
