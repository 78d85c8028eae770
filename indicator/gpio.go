package indicator

import (
	"fmt"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Indicator using discrete GPIO LED pins:
// green while open, yellow while moving, red after a fault.
type GPIO struct {
	hw        govattu.Vattu
	greenPin  *uint8
	yellowPin *uint8
	redPin    *uint8
}

// NewGPIO creates a new GPIO-based indicator.
func NewGPIO(greenPin, yellowPin, redPin *uint8) (*GPIO, error) {
	hw, err := govattu.Open()
	if err != nil {
		return nil, fmt.Errorf("open gpio: %w", err)
	}

	g := &GPIO{
		hw:        hw,
		greenPin:  greenPin,
		yellowPin: yellowPin,
		redPin:    redPin,
	}

	// Initialize all pins as outputs, start off
	if greenPin != nil {
		hw.PinMode(*greenPin, govattu.ALToutput)
		hw.PinClear(*greenPin)
	}
	if yellowPin != nil {
		hw.PinMode(*yellowPin, govattu.ALToutput)
		hw.PinClear(*yellowPin)
	}
	if redPin != nil {
		hw.PinMode(*redPin, govattu.ALToutput)
		hw.PinClear(*redPin)
	}

	return g, nil
}

// Closed implements Indicator.Closed.
func (g *GPIO) Closed() {
	g.allOff()
}

// Opening implements Indicator.Opening.
func (g *GPIO) Opening() {
	g.allOff()
	g.set(g.yellowPin)
}

// Open implements Indicator.Open.
func (g *GPIO) Open() {
	g.allOff()
	g.set(g.greenPin)
}

// Closing implements Indicator.Closing.
func (g *GPIO) Closing() {
	g.allOff()
	g.set(g.yellowPin)
}

// Fault implements Indicator.Fault.
func (g *GPIO) Fault(reason string) {
	g.allOff()
	g.set(g.redPin)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (g *GPIO) ConnectionLost() {
	g.allOff()
	// Yellow and red together for connection lost
	g.set(g.yellowPin)
	g.set(g.redPin)
}

// Shutdown implements Indicator.Shutdown.
func (g *GPIO) Shutdown() {
	g.allOff()
}

// Release implements Indicator.Release.
func (g *GPIO) Release() error {
	g.allOff()
	return g.hw.Close()
}

func (g *GPIO) set(pin *uint8) {
	if pin != nil {
		g.hw.PinSet(*pin)
	}
}

func (g *GPIO) allOff() {
	if g.greenPin != nil {
		g.hw.PinClear(*g.greenPin)
	}
	if g.yellowPin != nil {
		g.hw.PinClear(*g.yellowPin)
	}
	if g.redPin != nil {
		g.hw.PinClear(*g.redPin)
	}
}
