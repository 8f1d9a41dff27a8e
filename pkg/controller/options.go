package controller

import "github.com/fako1024/filamentscale/pkg/scale"

// WithLogger sets a logger for the controller
func WithLogger(logger scale.Logger) func(*Controller) {
	return func(c *Controller) {
		c.logger = logger
	}
}
