// Package mock provides hardware-free stand-ins for the raw weight sensor
// and the environmental sensor, used by the test suites and by the daemon's
// mock mode.
package mock

import (
	"sync"
	"time"
)

// Sensor denotes a mock raw weight sensor. Readings are served from an
// optional scripted queue first; once the queue is drained, readings follow
// a deterministic base level with alternating +/- noise and an optional
// per-read drift, which keeps averaged values predictable in tests
type Sensor struct {
	mu sync.Mutex

	script []int32
	level  int32
	noise  int32
	drift  int32
	ready  bool
	reads  int
}

// New instantiates a new mock sensor reporting the given base level
func New(level int32) *Sensor {
	return &Sensor{
		level: level,
		ready: true,
	}
}

// ReadRaw returns the next scripted or synthesized reading. An unready
// sensor reads as 0, matching the "sensor absent" convention of the HX711
func (s *Sensor) ReadRaw() int32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.ready {
		return 0
	}
	s.reads++

	if len(s.script) > 0 {
		val := s.script[0]
		s.script = s.script[1:]
		return val
	}

	val := s.level
	if s.noise != 0 {
		if s.reads%2 == 0 {
			val += s.noise
		} else {
			val -= s.noise
		}
	}
	s.level += s.drift

	return val
}

// WaitReady reports the configured readiness without delay
func (s *Sensor) WaitReady(retries int, delay time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.ready
}

// Queue appends readings to the scripted queue; queued readings take
// precedence over synthesized ones
func (s *Sensor) Queue(vals ...int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.script = append(s.script, vals...)
}

// SetLevel sets the base reading level
func (s *Sensor) SetLevel(level int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.level = level
}

// SetNoise sets the alternating noise amplitude applied to synthesized
// readings
func (s *Sensor) SetNoise(noise int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.noise = noise
}

// SetDrift sets a per-read drift applied to the base level
func (s *Sensor) SetDrift(drift int32) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.drift = drift
}

// SetReady controls whether the sensor reports as ready / present
func (s *Sensor) SetReady(ready bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ready = ready
}

// Reads returns the number of raw readings taken so far
func (s *Sensor) Reads() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.reads
}

// EnvSensor denotes a mock environmental (temperature / humidity) sensor
type EnvSensor struct {
	mu sync.Mutex

	temperature float64
	humidity    float64
	err         error
}

// NewEnvSensor instantiates a new mock environmental sensor
func NewEnvSensor(temperature, humidity float64) *EnvSensor {
	return &EnvSensor{
		temperature: temperature,
		humidity:    humidity,
	}
}

// ReadEnv returns the configured temperature (°C) and humidity (%)
func (e *EnvSensor) ReadEnv() (temperature, humidity float64, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.err != nil {
		return 0, 0, e.err
	}

	return e.temperature, e.humidity, nil
}

// Set updates the values returned by subsequent readings
func (e *EnvSensor) Set(temperature, humidity float64) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.temperature = temperature
	e.humidity = humidity
}

// SetError forces subsequent readings to fail with the given error
func (e *EnvSensor) SetError(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.err = err
}
