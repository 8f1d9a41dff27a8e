package sensor

import (
	"time"

	"github.com/fako1024/filamentscale/pkg/scale"
)

// WithBaudRate sets the baud rate of the serial bridge
func WithBaudRate(baudRate int) func(*Serial) {
	return func(s *Serial) {
		s.baudRate = baudRate
	}
}

// WithReadTimeout sets the per-read timeout of the serial bridge
func WithReadTimeout(timeout time.Duration) func(*Serial) {
	return func(s *Serial) {
		s.timeout = timeout
	}
}

// WithLogger sets a logger for the serial bridge
func WithLogger(logger scale.Logger) func(*Serial) {
	return func(s *Serial) {
		s.logger = logger
	}
}
