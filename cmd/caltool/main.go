package main

import (
	"flag"
	"fmt"

	"github.com/fako1024/filamentscale/pkg/loadcell"
	"github.com/fako1024/filamentscale/pkg/nvstore"
	"github.com/fako1024/filamentscale/pkg/sensor"
	"github.com/sirupsen/logrus"
)

type config struct {
	port    string
	baud    int
	dataDir string

	weight float64
	gain   int
}

var log = logrus.New()

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {

	// Parse command line options
	var cfg config
	flag.StringVar(&cfg.port, "port", "/dev/ttyUSB0", "serial port of the sensor bridge")
	flag.IntVar(&cfg.baud, "baud", 9600, "baud rate of the sensor bridge")
	flag.StringVar(&cfg.dataDir, "data", "/var/lib/filamentscale", "settings storage directory")
	flag.Float64Var(&cfg.weight, "weight", 0., "calibration weight in grams")
	flag.IntVar(&cfg.gain, "gain", loadcell.DefaultGain, "sensor amplification (64 or 128)")
	flag.Parse()

	if cfg.weight <= 0. {
		return fmt.Errorf("a calibration weight is required, e.g. -weight 500")
	}

	s, err := sensor.NewSerial(cfg.port, sensor.WithBaudRate(cfg.baud))
	if err != nil {
		return fmt.Errorf("failed to open sensor bridge on %s: %s", cfg.port, err)
	}
	defer s.Close()

	store, err := nvstore.Open(cfg.dataDir)
	if err != nil {
		return fmt.Errorf("failed to open settings store at %s: %s", cfg.dataDir, err)
	}

	cell := loadcell.New(s, store, loadcell.WithGain(uint8(cfg.gain)))
	if !cell.Init("loadcell") {
		return fmt.Errorf("no load cell detected on %s", cfg.port)
	}

	log.Info("Remove all weight from the scale and press Enter")
	fmt.Scanln()
	if !cell.Tare(loadcell.DefaultTareCount) {
		return fmt.Errorf("tare failed, make sure the scale is undisturbed")
	}

	log.Infof("Place the %gg calibration weight on the scale and press Enter", cfg.weight)
	fmt.Scanln()
	if !cell.Calibrate(0, cfg.weight) {
		return fmt.Errorf("calibration failed, make sure the scale is undisturbed")
	}

	if !cell.Save() {
		return fmt.Errorf("failed to persist the calibration")
	}

	weight, _ := cell.ReadWeight()
	log.Infof("Calibration complete, scale reads %.1f%s", weight, cell.UnitsString())

	return nil
}
