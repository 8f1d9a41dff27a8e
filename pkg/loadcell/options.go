package loadcell

import (
	"time"

	"github.com/fako1024/filamentscale/pkg/scale"
)

// WithGain sets the initial sensor amplification (64 or 128); invalid values
// are ignored in favor of the default
func WithGain(gain uint8) func(*LoadCell) {
	return func(l *LoadCell) {
		if gain == 64 || gain == 128 {
			l.gain = gain
		}
	}
}

// WithAverageInterval sets the initial moving average window size
func WithAverageInterval(interval int) func(*LoadCell) {
	return func(l *LoadCell) {
		l.averageInterval = float64(l.avg.SetSize(interval))
	}
}

// WithSettleDelay overrides the mechanical settle delay inserted before tare
// and calibration readings (mainly used to speed up tests)
func WithSettleDelay(delay time.Duration) func(*LoadCell) {
	return func(l *LoadCell) {
		l.settleDelay = delay
	}
}

// WithLogger sets a logger for the load cell
func WithLogger(logger scale.Logger) func(*LoadCell) {
	return func(l *LoadCell) {
		l.logger = logger
	}
}
