// Package api exposes the scale state and settings over a small REST
// interface, backed by the controller.
package api

import (
	"strconv"

	"github.com/fako1024/filamentscale/pkg/controller"
	"github.com/fako1024/filamentscale/pkg/scale"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
)

// Controller denotes the subset of controller functionality required by the
// web layer
type Controller interface {
	Snapshot() controller.Snapshot
	Settings() controller.Settings
	History() scale.DataPoints

	Tare() (bool, string)
	Calibrate(weight float64) (bool, string)
	SetWeightUnits(unit scale.WeightUnit) bool
	SetLengthUnits(unit scale.LengthUnit) bool
	SetAverageSamples(samples int) bool
	SelectSpool(idx int) bool
}

// API denotes a REST API for the scale
type API struct {
	ctrl   Controller
	router *fiber.App
}

// New instantiates a new API and starts listening on the given endpoint
func New(ctrl Controller, endpoint string) *API {

	api := newAPI(ctrl)

	// Start to listen in goroutine
	go func() {
		if err := api.router.Listen(endpoint); err != nil {
			panic(err)
		}
	}()

	return api
}

func newAPI(ctrl Controller) *API {

	api := &API{
		ctrl: ctrl,
		router: fiber.New(fiber.Config{
			JSONEncoder: jsoniter.Marshal,
			JSONDecoder: jsoniter.Unmarshal,
		}),
	}

	// Setup routes
	api.router.Get("/data", api.handleData())
	api.router.Get("/history", api.handleHistory())
	api.router.Get("/settings", api.handleSettings())
	api.router.Post("/tare", api.handleTare())
	api.router.Post("/calibrate", api.handleCalibrate())
	api.router.Post("/units/weight", api.handleWeightUnits())
	api.router.Post("/units/length", api.handleLengthUnits())
	api.router.Post("/spool/select", api.handleSpoolSelect())
	api.router.Post("/average", api.handleAverage())

	return api
}

func (api *API) handleData() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(api.ctrl.Snapshot())
	}
}

func (api *API) handleHistory() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(api.ctrl.History())
	}
}

func (api *API) handleSettings() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleTare() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if ok, msg := api.ctrl.Tare(); !ok {
			return fiber.NewError(fiber.StatusConflict, msg)
		}
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleCalibrate() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		weight, err := strconv.ParseFloat(c.FormValue("weight"), 64)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "invalid calibration weight")
		}
		if ok, msg := api.ctrl.Calibrate(weight); !ok {
			return fiber.NewError(fiber.StatusConflict, msg)
		}
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleWeightUnits() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		unit, ok := scale.ParseWeightUnit(c.FormValue("units"))
		if !ok || !api.ctrl.SetWeightUnits(unit) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid weight units")
		}
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleLengthUnits() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		unit, ok := scale.ParseLengthUnit(c.FormValue("units"))
		if !ok || !api.ctrl.SetLengthUnits(unit) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid length units")
		}
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleSpoolSelect() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		idx, err := strconv.Atoi(c.FormValue("index"))
		if err != nil || !api.ctrl.SelectSpool(idx) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid spool index")
		}
		return c.JSON(api.ctrl.Settings())
	}
}

func (api *API) handleAverage() func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		samples, err := strconv.Atoi(c.FormValue("samples"))
		if err != nil || !api.ctrl.SetAverageSamples(samples) {
			return fiber.NewError(fiber.StatusBadRequest, "invalid average sample count")
		}
		return c.JSON(api.ctrl.Settings())
	}
}
