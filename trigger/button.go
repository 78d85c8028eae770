//go:build linux

package trigger

import (
	"log"

	"github.com/warthog618/go-gpiocdev"
)

// Button handles the cabinet's push button.
type Button struct {
	line    *gpiocdev.Line
	onPress func()
}

// NewButton requests the button line. Returns nil if no pin is configured.
func NewButton(cfg ButtonConfig, onPress func()) (*Button, error) {
	if cfg.Pin == nil {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	b := &Button{onPress: onPress}

	var err error
	b.line, err = gpiocdev.RequestLine(cfg.Chip, *cfg.Pin,
		gpiocdev.WithConsumer("cabinetd-trigger"),
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithDebounce(cfg.Debounce),
		gpiocdev.WithEventHandler(b.handleEvent))
	if err != nil {
		return nil, err
	}
	log.Printf("Trigger: button on %s line %d", cfg.Chip, *cfg.Pin)
	return b, nil
}

func (b *Button) handleEvent(evt gpiocdev.LineEvent) {
	if evt.Type != gpiocdev.LineEventFallingEdge {
		return
	}
	log.Println("Trigger: button pressed")
	if b.onPress != nil {
		// The handler blocks for a whole move.
		go b.onPress()
	}
}

// Release releases GPIO resources.
func (b *Button) Release() error {
	if b == nil || b.line == nil {
		return nil
	}
	return b.line.Close()
}
