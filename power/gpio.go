package power

import (
	"log"
	"sync"

	"github.com/hjkoskel/govattu"
)

// GPIO implements Switch using a single output pin.
type GPIO struct {
	mu     sync.Mutex
	hw     govattu.Vattu
	pin    uint8
	onHigh bool // true = set pin high to power the line
	on     bool
}

// NewGPIO creates a new GPIO-based USB switch.
func NewGPIO(hw govattu.Vattu, pin uint8, onHigh bool) *GPIO {
	hw.PinMode(pin, govattu.ALToutput)

	g := &GPIO{
		hw:     hw,
		pin:    pin,
		onHigh: onHigh,
	}

	// Start unpowered
	g.Off()
	return g
}

// On implements Switch.On.
func (g *GPIO) On() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Println("USB: power on")
	g.write(true)
	return nil
}

// Off implements Switch.Off.
func (g *GPIO) Off() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	log.Println("USB: power off")
	g.write(false)
	return nil
}

// IsOn implements Switch.IsOn.
func (g *GPIO) IsOn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.on
}

// Release implements Switch.Release.
func (g *GPIO) Release() error {
	g.Off()
	return g.hw.Close()
}

func (g *GPIO) write(on bool) {
	g.on = on
	if on == g.onHigh {
		g.hw.PinSet(g.pin)
	} else {
		g.hw.PinClear(g.pin)
	}
}
