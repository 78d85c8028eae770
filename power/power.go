// Package power switches the USB line that wakes the projector.
package power

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// Switch is the interface for all USB power implementations.
type Switch interface {
	// On powers the USB line.
	On() error

	// Off cuts the USB line.
	Off() error

	// IsOn reports the last commanded state.
	IsOn() bool

	// Release releases any hardware resources.
	Release() error
}

// Config holds configuration for USB power implementations.
type Config struct {
	Type string `yaml:"type"` // "gpio_high", "gpio_low", "none"
	Pin  *int   `yaml:"pin"`  // GPIO pin number
}

// New creates a Switch based on the provided configuration. The line starts off.
func New(cfg Config) (Switch, error) {
	if cfg.Pin == nil {
		return &Noop{}, nil
	}

	switch cfg.Type {
	case "gpio_high", "", "gpio_low":
		hw, err := govattu.Open()
		if err != nil {
			return nil, fmt.Errorf("open gpio: %w", err)
		}
		return NewGPIO(hw, uint8(*cfg.Pin), cfg.Type != "gpio_low"), nil
	default:
		return &Noop{}, nil
	}
}
