// Package influx ships scale snapshots to an InfluxDB instance for long term
// telemetry (filament consumption over time, ambient conditions).
package influx

import (
	"fmt"
	"time"

	"github.com/fako1024/filamentscale/pkg/controller"
	client "github.com/influxdata/influxdb1-client/v2"
)

// DB is an InfluxDB interface, providing functionality to interact with the
// database
type DB struct {
	config *client.HTTPConfig
}

// New creates a new InfluxDB instance
func New(addr, username, password string) *DB {
	return &DB{
		config: &client.HTTPConfig{
			Addr:     addr,
			Username: username,
			Password: password,
		},
	}
}

// EmitSnapshot converts a scale snapshot into a data point and stores it in
// the underlying Influx database. Units are carried as tags so a unit change
// does not silently mix incompatible values in one series
func (d *DB) EmitSnapshot(dbName, measurement string, snapshot controller.Snapshot) error {

	// Create a new InfluxDB client
	c, err := client.NewHTTPClient(*d.config)
	if err != nil {
		return fmt.Errorf("error creating InfluxDB client for measurement %s on DB %s: %w", measurement, dbName, err)
	}
	defer c.Close()

	// Create a new point batch
	bp, _ := client.NewBatchPoints(client.BatchPointsConfig{
		Database:  dbName,
		Precision: "ms",
	})

	tags := map[string]string{
		"weight_units": snapshot.WeightUnits,
		"length_units": snapshot.LengthUnits,
	}
	if snapshot.SpoolSelected {
		tags["spool"] = snapshot.SpoolName
		tags["filament"] = snapshot.FilamentType
	}

	fields := map[string]interface{}{
		"weight": snapshot.Weight,
		"length": snapshot.Length,
	}
	if snapshot.EnvValid {
		fields["temperature"] = snapshot.Temperature
		fields["humidity"] = snapshot.Humidity
	}

	pt, err := client.NewPoint(measurement, tags, fields, time.Now())
	if err != nil {
		return fmt.Errorf("error creating InfluxDB point for measurement %s on DB %s: %w", measurement, dbName, err)
	}
	bp.AddPoint(pt)

	// Write the batch
	if err = c.Write(bp); err != nil {
		return fmt.Errorf("error writing InfluxDB batch for measurement %s on DB %s: %w", measurement, dbName, err)
	}

	return nil
}
