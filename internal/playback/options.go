package playback

import (
	"time"

	"github.com/charmbracelet/log"

	"github.com/llehouerou/tunedeck/internal/config"
)

// Defaults for the controller timing windows.
const (
	DefaultThrottleWindow = config.DefaultThrottleWindow
	DefaultResetGrace     = config.DefaultResetGrace
)

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the controller's logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithThrottleWindow sets the minimum spacing between play/pause actions.
func WithThrottleWindow(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.throttleWindow = d
		}
	}
}

// WithResetGrace sets how long loads and plays wait after a hard stop.
func WithResetGrace(d time.Duration) Option {
	return func(c *Controller) {
		if d >= 0 {
			c.resetGrace = d
		}
	}
}

// WithConfig applies the [player] config section.
func WithConfig(cfg config.PlayerConfig) Option {
	return func(c *Controller) {
		if cfg.ThrottleWindow > 0 {
			c.throttleWindow = cfg.ThrottleWindow
		}
		if cfg.ResetGrace > 0 {
			c.resetGrace = cfg.ResetGrace
		}
		if cfg.Volume != nil {
			v := *cfg.Volume
			c.initialVolume = &v
		}
		c.repeat = cfg.Repeat
	}
}
