// Package config holds the daemon configuration, loaded from a YAML file
// with defaults for everything not specified.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config represents the daemon configuration.
type Config struct {
	Serial SerialConfig `yaml:"serial"`
	API    APIConfig    `yaml:"api"`
	Data   DataConfig   `yaml:"data"`
	Scale  ScaleConfig  `yaml:"scale"`
	Influx InfluxConfig `yaml:"influx"`
}

// SerialConfig contains the sensor bridge serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port"`
	Baud int    `yaml:"baud"`
}

// APIConfig contains the REST API listener configuration.
type APIConfig struct {
	Listen string `yaml:"listen"`
}

// DataConfig contains the settings storage configuration.
type DataConfig struct {
	Dir string `yaml:"dir"`
}

// ScaleConfig contains the measurement parameters.
type ScaleConfig struct {
	Gain           int  `yaml:"gain"`            // Sensor amplification (64 or 128)
	AverageSamples int  `yaml:"average_samples"` // Moving average window (1-25)
	Mock           bool `yaml:"mock"`            // Run against a simulated sensor
}

// InfluxConfig contains the optional telemetry endpoint; telemetry is
// disabled while the endpoint is empty.
type InfluxConfig struct {
	Endpoint    string `yaml:"endpoint"`
	Username    string `yaml:"username"`
	Password    string `yaml:"password"`
	Database    string `yaml:"database"`
	Measurement string `yaml:"measurement"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyUSB0",
			Baud: 9600,
		},
		API: APIConfig{
			Listen: ":8090",
		},
		Data: DataConfig{
			Dir: "/var/lib/filamentscale",
		},
		Scale: ScaleConfig{
			Gain:           128,
			AverageSamples: 13,
		},
		Influx: InfluxConfig{
			Database:    "filamentscale",
			Measurement: "scale",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			// File doesn't exist, return defaults
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults ensures that all required fields have default values if
// missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.API.Listen == "" {
		c.API.Listen = def.API.Listen
	}

	if c.Data.Dir == "" {
		c.Data.Dir = def.Data.Dir
	}

	if c.Scale.Gain == 0 {
		c.Scale.Gain = def.Scale.Gain
	}
	if c.Scale.AverageSamples == 0 {
		c.Scale.AverageSamples = def.Scale.AverageSamples
	}

	if c.Influx.Database == "" {
		c.Influx.Database = def.Influx.Database
	}
	if c.Influx.Measurement == "" {
		c.Influx.Measurement = def.Influx.Measurement
	}
}
