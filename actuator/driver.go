package actuator

import (
	"errors"
	"fmt"
)

// Output is one of the two H-bridge control signals.
type Output interface {
	Set(on bool) error
}

// Driver holds the H-bridge outputs. IN1 extends the arm, IN2 retracts it.
type Driver struct {
	IN1 Output
	IN2 Output

	release func() error
}

// DriverConfig holds configuration for the H-bridge driver outputs.
type DriverConfig struct {
	Type   string `yaml:"type"`    // "gpiocdev", "gpiomem", "none"
	Chip   string `yaml:"chip"`    // gpiocdev chip, defaults to gpiochip0
	IN1Pin *int   `yaml:"in1_pin"` // GPIO offset of IN1
	IN2Pin *int   `yaml:"in2_pin"` // GPIO offset of IN2
}

// ErrDriverNotSupported is returned for hardware driver backends on platforms without GPIO support.
var ErrDriverNotSupported = errors.New("gpio driver not supported on this platform")

// NewDriver creates the driver outputs described by cfg.
func NewDriver(cfg DriverConfig) (*Driver, error) {
	if cfg.IN1Pin == nil || cfg.IN2Pin == nil || cfg.Type == "none" {
		return NewNoopDriver(), nil
	}

	switch cfg.Type {
	case "", "gpiocdev":
		return newLineDriver(cfg.Chip, *cfg.IN1Pin, *cfg.IN2Pin)
	case "gpiomem":
		return newMemDriver(*cfg.IN1Pin, *cfg.IN2Pin)
	default:
		return nil, fmt.Errorf("unknown driver type %q", cfg.Type)
	}
}

// Release releases any hardware resources held by the driver.
func (d *Driver) Release() error {
	if d.release == nil {
		return nil
	}
	return d.release()
}
