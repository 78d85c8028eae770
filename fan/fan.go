// Package fan drives the cabinet cooling fan.
package fan

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Fan is the interface for all fan implementations.
type Fan interface {
	// SetDutyCycle changes the speed used by On, in percent (0-100).
	// A running fan picks up the new speed immediately.
	SetDutyCycle(pct int) error

	// On spins the fan at the configured duty cycle.
	On() error

	// Off stops the fan.
	Off() error

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for fan implementations.
type Config struct {
	Type string `yaml:"type"` // "pwm", "none"
	Pin  *int   `yaml:"pin"`  // GPIO pin with PWM0 on ALT5 (12 or 18)
}

// New creates a Fan based on the provided configuration.
func New(cfg Config, dutyCycle int) (Fan, error) {
	if cfg.Pin == nil {
		return NewNoop(dutyCycle), nil
	}

	switch cfg.Type {
	case "pwm", "":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return NewPWM(hw, uint8(*cfg.Pin), dutyCycle)
	default:
		return NewNoop(dutyCycle), nil
	}
}

func checkDutyCycle(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("duty cycle %d%% not within [0, 100]", pct)
	}
	return nil
}
