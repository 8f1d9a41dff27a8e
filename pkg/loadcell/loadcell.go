// Package loadcell implements the tare / calibrate / read state machine on
// top of a raw HX711-style weight sensor. Raw readings are smoothed by a
// moving average, validated against a spread tolerance and converted into
// the currently selected weight unit.
package loadcell

import (
	"sync"
	"time"

	"github.com/fako1024/filamentscale/pkg/movavg"
	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/scale"
	"github.com/fako1024/filamentscale/pkg/sensor"
)

const (

	// DefaultGain denotes the default sensor amplification
	DefaultGain = 128

	// DefaultTareCount denotes the default number of readings averaged for
	// tare / calibration
	DefaultTareCount = 20

	// DefaultAverageInterval denotes the default moving average window
	DefaultAverageInterval = 10

	// UncalibratedReadValue is the distinguished sentinel reported for a
	// weight read on an uncalibrated scale. It is far outside the physical
	// range of any load cell and must never be displayed as a number
	UncalibratedReadValue = -999999999.9

	// All readings of a raw average must stay within average +/- average/800
	// (0.125 %), rejecting values taken while the scale is being disturbed
	readSpreadDivisor = 800

	// Bounded ready-wait used by the presence check
	presenceRetries    = 10
	presenceRetryDelay = 10 * time.Millisecond

	defaultSettleDelay = 500 * time.Millisecond
)

// LoadCell denotes a weight sensor with tare, calibration, unit conversion
// and moving average smoothing. All state mutations and weight reads are
// serialized through an internal mutex so a reader can never observe the
// offset / scale factor / unit triple mid-update
type LoadCell struct {
	sensor sensor.RawSensor
	store  *nvstore.Store
	name   string
	logger scale.Logger

	settleDelay time.Duration

	mu               sync.Mutex
	gain             uint8
	rawTareWeight    int32
	isCalibrated     bool
	offset           float64
	units            scale.WeightUnit
	averageInterval  float64
	unitsScaleFactor float64
	conversionFactor float64
	avg              *movavg.MovingAverage[int32, int64]
}

// New instantiates a new LoadCell on top of the given raw sensor, executing
// functional options, if any
func New(rawSensor sensor.RawSensor, store *nvstore.Store, options ...func(*LoadCell)) *LoadCell {

	l := &LoadCell{
		sensor:           rawSensor,
		store:            store,
		logger:           &scale.NullLogger{},
		settleDelay:      defaultSettleDelay,
		gain:             DefaultGain,
		units:            scale.Grams,
		averageInterval:  DefaultAverageInterval,
		unitsScaleFactor: 1.,
		conversionFactor: 1.,
		avg:              movavg.New[int32, int64](DefaultAverageInterval),
	}

	// Execute functional options (if any), see options.go for implementation
	for _, option := range options {
		option(l)
	}

	return l
}

// Init registers the persistence record name for this instance. It must be
// called before Save / Restore / Reset and fails on an absent sensor or an
// invalid name
func (l *LoadCell) Init(name string) bool {
	if !l.IsPresent() || !nvstore.ValidName(name) {
		return false
	}
	l.name = name

	return true
}

// IsPresent determines whether a load cell sensor is present. A sensor that
// never becomes ready, or delivers a raw reading of exactly 0, is treated as
// absent (hardware heuristic carried over from the HX711: a missing sensor
// reads as 0, at the cost of misclassifying a perfectly zeroed reading)
func (l *LoadCell) IsPresent() bool {
	if !l.sensor.WaitReady(presenceRetries, presenceRetryDelay) {
		return false
	}

	return l.sensor.ReadRaw() != 0
}

// SetGain sets the sensor amplification. Valid values are 64 and 128; any
// change invalidates the calibration and flushes the moving average
func (l *LoadCell) SetGain(gain uint8) bool {
	if gain != 64 && gain != 128 {
		return false
	}

	l.mu.Lock()
	if gain == l.gain {
		l.mu.Unlock()
		return false
	}

	// Gain changed, so a re-tare / re-calibrate is required
	l.isCalibrated = false
	l.gain = gain
	l.avg.Reset()
	l.mu.Unlock()

	// Take a throwaway reading to clear out the value still settled on the
	// previous gain
	l.sensor.ReadRaw()

	return true
}

// ReadRawAverage takes count raw readings (after one throwaway read to
// discard the notoriously unreliable first sample) and returns their integer
// average. If any reading falls outside average +/- 0.125 % the whole batch
// is rejected and 0 is returned
func (l *LoadCell) ReadRawAverage(count int) int32 {
	if count <= 0 {
		return 0
	}

	// The first reading after a pause tends to come in high; discard it
	l.sensor.ReadRaw()

	var (
		sum      int64
		minValue int32 = 1<<31 - 1
		maxValue int32 = -1 << 31
	)
	for i := 0; i < count; i++ {
		val := l.sensor.ReadRaw()
		sum += int64(val)
		if val < minValue {
			minValue = val
		}
		if val > maxValue {
			maxValue = val
		}
	}

	avg := int32(sum / int64(count))
	upperLimit := avg + avg/readSpreadDivisor
	lowerLimit := avg - avg/readSpreadDivisor

	l.logger.Debugf("raw average %d (min %d, max %d, span %d, limits [%d, %d])",
		avg, minValue, maxValue, maxValue-minValue, lowerLimit, upperLimit)

	if maxValue >= upperLimit || minValue <= lowerLimit {
		l.logger.Warnf("raw readings exceed spread tolerance, rejecting batch")
		return 0
	}

	return avg
}

// Tare records the raw reading corresponding to an empty scale. The sensor
// is given time to settle, then a validated raw average is taken; on failure
// the previous tare value is left untouched
func (l *LoadCell) Tare(count int) bool {

	// Allow the load cell time to settle mechanically
	time.Sleep(l.settleDelay)

	tareValue := l.ReadRawAverage(count)
	if tareValue == 0 {
		return false
	}

	l.mu.Lock()
	l.rawTareWeight = tareValue
	l.avg.Reset()
	l.mu.Unlock()

	l.logger.Infof("tared at raw value %d", tareValue)
	return true
}

// Calibrate establishes the scale factor mapping (raw - tare) to a known
// cooked weight in the current unit. A prior successful Tare is required. If
// rawCalWeight is 0 a fresh validated raw average is taken; its failure
// fails the calibration, leaving the previous state intact
func (l *LoadCell) Calibrate(rawCalWeight int32, cookedCalWeight float64) bool {

	// Allow the load cell time to settle mechanically
	time.Sleep(l.settleDelay)

	l.mu.Lock()
	tare := l.rawTareWeight
	l.mu.Unlock()
	if tare == 0 {
		return false
	}

	if rawCalWeight == 0 {
		if rawCalWeight = l.ReadRawAverage(DefaultTareCount); rawCalWeight == 0 {
			return false
		}
	}

	l.mu.Lock()
	l.avg.Reset()
	l.unitsScaleFactor = cookedCalWeight / float64(rawCalWeight-tare)
	l.isCalibrated = true
	l.mu.Unlock()

	l.logger.Infof("calibrated: raw %d maps to %f%s", rawCalWeight, cookedCalWeight, l.Units())
	return true
}

// ReadWeight takes one new raw reading, folds it into the moving average and
// returns the tared, scaled and offset weight in the current unit. On an
// uncalibrated scale it returns the UncalibratedReadValue sentinel and false
func (l *LoadCell) ReadWeight() (float64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.isCalibrated {
		return UncalibratedReadValue, false
	}

	l.avg.Add(l.sensor.ReadRaw())
	avgWeight := float64(l.avg.Average())

	return (avgWeight-float64(l.rawTareWeight))*l.unitsScaleFactor - l.offset, true
}

// SetUnits changes the weight unit, atomically rescaling the display offset
// and units scale factor so calibration accuracy is preserved. Setting the
// current unit is a no-op success; an invalid unit leaves all state unchanged
func (l *LoadCell) SetUnits(newUnits scale.WeightUnit) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if newUnits == l.units {
		return true
	}

	toBaseFactor := l.units.BaseUnitsFactor()
	fromBaseFactor := newUnits.BaseUnitsFactor()
	if toBaseFactor == 0. || fromBaseFactor == 0. {
		return false
	}

	// Convert current units to base units, then base units to the new units.
	// The triple below is what concurrent weight reads must never observe
	// half-updated (hence the struct mutex)
	l.conversionFactor = toBaseFactor / fromBaseFactor
	l.offset *= l.conversionFactor
	l.unitsScaleFactor *= l.conversionFactor
	l.units = newUnits

	return true
}

// SetAverageInterval sets the moving average window size, reporting whether
// the requested size was applied without clipping
func (l *LoadCell) SetAverageInterval(interval int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	size := l.avg.SetSize(interval)
	l.averageInterval = float64(size)

	return size == interval
}

// ResetAverage flushes the moving average
func (l *LoadCell) ResetAverage() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.avg.Reset()
}

// SetOffset sets the display offset (in the current unit) subtracted from
// every reported weight, e.g. the empty weight of the selected spool
func (l *LoadCell) SetOffset(offset float64) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.offset = offset
	l.avg.Reset()
}

// Offset returns the current display offset
func (l *LoadCell) Offset() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.offset
}

// Gain returns the current sensor amplification
func (l *LoadCell) Gain() uint8 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.gain
}

// Units returns the currently selected weight unit
func (l *LoadCell) Units() scale.WeightUnit {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.units
}

// UnitsString returns the display string of the current weight unit
func (l *LoadCell) UnitsString() string {
	return l.Units().String()
}

// AverageInterval returns the current moving average window size
func (l *LoadCell) AverageInterval() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	return int(l.averageInterval)
}

// IsCalibrated reports whether a successful calibration has been performed
func (l *LoadCell) IsCalibrated() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.isCalibrated
}

// ConversionFactor returns the multiplier most recently used to rescale unit
// dependent values on a unit change, allowing callers to rescale externally
// cached weights (e.g. the spool catalog) consistently
func (l *LoadCell) ConversionFactor() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.conversionFactor
}
