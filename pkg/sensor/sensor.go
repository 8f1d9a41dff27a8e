// Package sensor defines the raw hardware capability the measurement core
// consumes, together with the serial bridge implementation talking to the
// actual HX711 load cell (and the piggybacked DHT environmental sensor).
package sensor

import "time"

// RawSensor denotes the raw reading capability of a weight sensor. A raw
// reading of exactly 0 is the conventional "sensor absent / reading failed"
// sentinel carried over from the HX711 hardware, so implementations must
// never report a legitimate sample as 0
type RawSensor interface {

	// ReadRaw returns a single raw (unscaled) reading from the sensor, or 0
	// if no reading could be obtained
	ReadRaw() int32

	// WaitReady waits for the sensor to become ready to deliver a reading,
	// polling up to retries times with the given delay in between. It never
	// blocks indefinitely
	WaitReady(retries int, delay time.Duration) bool
}

// EnvSample denotes a temperature / humidity sample delivered alongside the
// weight readings
type EnvSample struct {
	Temperature float64 // degrees Celsius
	Humidity    float64 // percent relative humidity
	Valid       bool
}

// EnvSource denotes a source of environmental (temperature / humidity)
// readings
type EnvSource interface {

	// ReadEnv returns the most recent temperature (°C) and relative
	// humidity (%)
	ReadEnv() (temperature, humidity float64, err error)
}
