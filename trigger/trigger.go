// Package trigger delivers the cabinet's physical controls to the application.
package trigger

import (
	"sync"
	"time"
)

// ButtonConfig holds configuration for the push button.
type ButtonConfig struct {
	Chip     string        `yaml:"chip"`     // default "gpiochip0"
	Pin      *int          `yaml:"pin"`      // line offset, button disabled if unset
	Debounce time.Duration `yaml:"debounce"` // default 30ms
}

func (c ButtonConfig) withDefaults() ButtonConfig {
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if c.Debounce <= 0 {
		c.Debounce = 30 * time.Millisecond
	}
	return c
}

// RemoteConfig holds configuration for the remote control.
type RemoteConfig struct {
	Device  string `yaml:"device"`   // e.g., "/dev/input/event0", remote disabled if empty
	KeyCode int    `yaml:"key_code"` // evdev key code, default KEY_ENTER
}

// KnobConfig holds configuration for the rotary knob that adjusts the open position.
type KnobConfig struct {
	Chip      string  `yaml:"chip"`       // default "gpiochip0"
	CLKPin    *int    `yaml:"clk_pin"`    // knob disabled if unset
	DTPin     *int    `yaml:"dt_pin"`     // knob disabled if unset
	ButtonPin *int    `yaml:"button_pin"` // optional push of the knob, toggles the cabinet
	Step      float64 `yaml:"step"`       // mm per detent (default 1)
}

func (c KnobConfig) withDefaults() KnobConfig {
	if c.Chip == "" {
		c.Chip = "gpiochip0"
	}
	if c.Step <= 0 {
		c.Step = 1
	}
	return c
}

// quadrature decodes the CLK and DT signals of a rotary encoder.
type quadrature struct {
	mu sync.Mutex
	dt int
}

// clk handles a CLK edge and returns the detent direction, 0 for falling edges.
func (q *quadrature) clk(rising bool) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !rising {
		return 0
	}
	if q.dt == 0 {
		return 1
	}
	return -1
}

// setDT records the DT level.
func (q *quadrature) setDT(level int) {
	q.mu.Lock()
	q.dt = level
	q.mu.Unlock()
}
