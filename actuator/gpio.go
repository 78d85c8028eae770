//go:build linux

package actuator

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
	"github.com/warthog618/gpio"
)

// LineOutput drives a single GPIO line through the character device.
type LineOutput struct {
	line *gpiocdev.Line
}

// Set implements Output.Set.
func (o *LineOutput) Set(on bool) error {
	v := 0
	if on {
		v = 1
	}
	return o.line.SetValue(v)
}

func newLineDriver(chip string, in1, in2 int) (*Driver, error) {
	if chip == "" {
		chip = "gpiochip0"
	}

	l1, err := gpiocdev.RequestLine(chip, in1,
		gpiocdev.WithConsumer("cabinetd-in1"),
		gpiocdev.AsOutput(0))
	if err != nil {
		return nil, fmt.Errorf("request IN1 line %d: %w", in1, err)
	}

	l2, err := gpiocdev.RequestLine(chip, in2,
		gpiocdev.WithConsumer("cabinetd-in2"),
		gpiocdev.AsOutput(0))
	if err != nil {
		l1.Close()
		return nil, fmt.Errorf("request IN2 line %d: %w", in2, err)
	}

	return &Driver{
		IN1: &LineOutput{line: l1},
		IN2: &LineOutput{line: l2},
		release: func() error {
			l1.SetValue(0)
			l2.SetValue(0)
			l1.Close()
			return l2.Close()
		},
	}, nil
}

// MemOutput drives a GPIO pin through /dev/gpiomem.
// Used on kernels without the GPIO character device.
type MemOutput struct {
	pin *gpio.Pin
}

// Set implements Output.Set.
func (o *MemOutput) Set(on bool) error {
	if on {
		o.pin.High()
	} else {
		o.pin.Low()
	}
	return nil
}

func newMemDriver(in1, in2 int) (*Driver, error) {
	if err := gpio.Open(); err != nil {
		return nil, fmt.Errorf("open gpiomem: %w", err)
	}

	p1 := gpio.NewPin(in1)
	p2 := gpio.NewPin(in2)
	p1.Output()
	p2.Output()
	p1.Low()
	p2.Low()

	return &Driver{
		IN1: &MemOutput{pin: p1},
		IN2: &MemOutput{pin: p2},
		release: func() error {
			p1.Low()
			p2.Low()
			return gpio.Close()
		},
	}, nil
}
