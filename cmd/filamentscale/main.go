package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fako1024/filamentscale/pkg/api"
	"github.com/fako1024/filamentscale/pkg/config"
	"github.com/fako1024/filamentscale/pkg/controller"
	"github.com/fako1024/filamentscale/pkg/db/influx"
	"github.com/fako1024/filamentscale/pkg/envsensor"
	"github.com/fako1024/filamentscale/pkg/length"
	"github.com/fako1024/filamentscale/pkg/loadcell"
	"github.com/fako1024/filamentscale/pkg/mock"
	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/scale"
	"github.com/fako1024/filamentscale/pkg/sensor"
	"github.com/fako1024/filamentscale/pkg/spool"
)

const telemetryPeriod = 10 * time.Second

func main() {

	// Parse command line options
	var (
		cfgPath string
		debug   bool
	)
	flag.StringVar(&cfgPath, "config", "/etc/filamentscale.yaml", "path to configuration file")
	flag.BoolVar(&debug, "debug", false, "enable debug logging")
	flag.Parse()

	logger := scale.NewDefaultLogger(debug)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		logger.Fatalf("Failed to load configuration from %s: %s", cfgPath, err)
	}

	store, err := nvstore.Open(cfg.Data.Dir)
	if err != nil {
		logger.Fatalf("Failed to open settings store at %s: %s", cfg.Data.Dir, err)
	}

	// Attach to the sensor bridge (or its simulation in mock mode)
	var (
		rawSensor sensor.RawSensor
		envSource sensor.EnvSource
	)
	if cfg.Scale.Mock {
		logger.Infof("Running against a simulated sensor")
		mockSensor := mock.New(100000)
		mockSensor.SetNoise(50)
		rawSensor = mockSensor
		envSource = mock.NewEnvSensor(21.5, 48.)
	} else {
		serialSensor, err := sensor.NewSerial(cfg.Serial.Port,
			sensor.WithBaudRate(cfg.Serial.Baud),
			sensor.WithLogger(logger))
		if err != nil {
			logger.Fatalf("Failed to open sensor bridge on %s: %s", cfg.Serial.Port, err)
		}
		rawSensor, envSource = serialSensor, serialSensor
	}

	cell := loadcell.New(rawSensor, store,
		loadcell.WithGain(uint8(cfg.Scale.Gain)),
		loadcell.WithLogger(logger))
	if !cell.Init("loadcell") {
		logger.Fatalf("No load cell detected, check the sensor bridge wiring")
	}

	lengths := length.New(store)
	lengths.Init("length")
	spools := spool.NewManager(store)
	spools.Init("spools")
	env := envsensor.New(envSource, store)
	env.Init("envsensor")

	ctrl := controller.New(cell, lengths, spools, env, controller.WithLogger(logger))
	ctrl.SetAverageSamples(cfg.Scale.AverageSamples)
	ctrl.RestoreSettings()

	api.New(ctrl, cfg.API.Listen)
	logger.Infof("Listening on %s", cfg.API.Listen)

	// Ship snapshots to InfluxDB if an endpoint is configured
	if cfg.Influx.Endpoint != "" {
		telemetry := influx.New(cfg.Influx.Endpoint, cfg.Influx.Username, cfg.Influx.Password)
		go func() {
			for range time.Tick(telemetryPeriod) {
				if err := telemetry.EmitSnapshot(cfg.Influx.Database, cfg.Influx.Measurement, ctrl.Snapshot()); err != nil {
					logger.Warnf("Failed to emit telemetry: %s", err)
				}
			}
		}()
	}

	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM)
	signal.Notify(sigChan, os.Interrupt)
	go func() {
		<-sigChan
		logger.Infof("Got signal, saving settings and terminating")
		close(done)
	}()

	ctrl.Run(done)

	if !ctrl.SaveSettings() {
		logger.Errorf("Failed to save settings on shutdown")
	}
}
