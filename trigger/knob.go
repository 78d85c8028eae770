//go:build linux

package trigger

import (
	"log"
	"time"

	"github.com/warthog618/go-gpiocdev"
)

// Knob is a rotary encoder nudging the open position.
type Knob struct {
	clkLine *gpiocdev.Line
	dtLine  *gpiocdev.Line
	btnLine *gpiocdev.Line
	dec     quadrature
	step    float64
	onTurn  func(deltaMM float64)
	onPress func()
}

// NewKnob requests the encoder lines. Returns nil if CLK or DT is not configured.
// onTurn receives the signed distance of one detent.
func NewKnob(cfg KnobConfig, onTurn func(deltaMM float64), onPress func()) (*Knob, error) {
	if cfg.CLKPin == nil || cfg.DTPin == nil {
		return nil, nil
	}
	cfg = cfg.withDefaults()

	k := &Knob{
		step:    cfg.Step,
		onTurn:  onTurn,
		onPress: onPress,
	}

	debounceEncoder := 250 * time.Microsecond

	var err error
	k.dtLine, err = gpiocdev.RequestLine(cfg.Chip, *cfg.DTPin,
		gpiocdev.WithConsumer("cabinetd-knob"),
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceEncoder),
		gpiocdev.WithEventHandler(k.handleDT))
	if err != nil {
		return nil, err
	}

	k.clkLine, err = gpiocdev.RequestLine(cfg.Chip, *cfg.CLKPin,
		gpiocdev.WithConsumer("cabinetd-knob"),
		gpiocdev.WithPullUp,
		gpiocdev.WithBothEdges,
		gpiocdev.WithDebounce(debounceEncoder),
		gpiocdev.WithEventHandler(k.handleCLK))
	if err != nil {
		k.Release()
		return nil, err
	}

	if cfg.ButtonPin != nil {
		k.btnLine, err = gpiocdev.RequestLine(cfg.Chip, *cfg.ButtonPin,
			gpiocdev.WithConsumer("cabinetd-knob"),
			gpiocdev.WithPullUp,
			gpiocdev.WithFallingEdge,
			gpiocdev.WithDebounce(30*time.Millisecond),
			gpiocdev.WithEventHandler(k.handleButton))
		if err != nil {
			k.Release()
			return nil, err
		}
	}

	log.Printf("Trigger: knob on %s lines CLK=%d DT=%d, %.1fmm per detent", cfg.Chip, *cfg.CLKPin, *cfg.DTPin, cfg.Step)
	return k, nil
}

func (k *Knob) handleDT(evt gpiocdev.LineEvent) {
	switch evt.Type {
	case gpiocdev.LineEventRisingEdge:
		k.dec.setDT(1)
	case gpiocdev.LineEventFallingEdge:
		k.dec.setDT(0)
	}
}

func (k *Knob) handleCLK(evt gpiocdev.LineEvent) {
	dir := k.dec.clk(evt.Type == gpiocdev.LineEventRisingEdge)
	if dir != 0 && k.onTurn != nil {
		k.onTurn(float64(dir) * k.step)
	}
}

func (k *Knob) handleButton(evt gpiocdev.LineEvent) {
	log.Println("Trigger: knob pressed")
	if k.onPress != nil {
		go k.onPress()
	}
}

// Release releases GPIO resources.
func (k *Knob) Release() error {
	if k == nil {
		return nil
	}
	for _, l := range []*gpiocdev.Line{k.dtLine, k.clkLine, k.btnLine} {
		if l != nil {
			l.Close()
		}
	}
	return nil
}
