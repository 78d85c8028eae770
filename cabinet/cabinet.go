// Package cabinet opens and closes the projector cabinet: it serializes
// requests and runs the actuator together with the USB power line and fan.
package cabinet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync/atomic"

	"cabinetd/fan"
	"cabinetd/indicator"
	"cabinetd/power"
	"cabinetd/thermo"
)

// ErrBusy is returned when a request arrives while the cabinet is moving.
// The request is dropped; nothing was changed.
var ErrBusy = errors.New("cabinet is still moving")

// Mover is the motion controller driving the cabinet.
type Mover interface {
	GoTo(ctx context.Context, target float64) error
	GoBack(ctx context.Context) error
	IsExtended() bool
	Position() (float64, error)
	Length() float64
}

// Store holds the persisted cabinet settings.
type Store interface {
	Target() float64
	SetTarget(mm float64) error
	FanDutyCycle() int
	SetFanDutyCycle(pct int) error
}

// Parts are the collaborators of a Cabinet.
type Parts struct {
	Actuator  Mover
	Settings  Store
	Fan       fan.Fan
	USB       power.Switch
	Thermo    thermo.Sensor
	Indicator indicator.Indicator
}

// Handlers holds callback functions for cabinet events.
type Handlers struct {
	OnChange func(on bool) // called after every open or close attempt
}

// Cabinet orchestrates open and close requests.
type Cabinet struct {
	act      Mover
	settings Store
	fan      fan.Fan
	usb      power.Switch
	thermo   thermo.Sensor
	ind      indicator.Indicator
	handlers Handlers

	moving atomic.Bool
}

// New creates a Cabinet. Missing effectors are replaced by no-ops.
func New(p Parts, handlers Handlers) (*Cabinet, error) {
	if p.Actuator == nil || p.Settings == nil {
		return nil, errors.New("cabinet: actuator and settings are required")
	}
	if p.Fan == nil {
		p.Fan = fan.NewNoop(p.Settings.FanDutyCycle())
	}
	if p.USB == nil {
		p.USB = &power.Noop{}
	}
	if p.Thermo == nil {
		p.Thermo = thermo.Fixed(thermo.Invalid)
	}
	if p.Indicator == nil {
		p.Indicator = &indicator.Noop{}
	}

	return &Cabinet{
		act:      p.Actuator,
		settings: p.Settings,
		fan:      p.Fan,
		usb:      p.USB,
		thermo:   p.Thermo,
		ind:      p.Indicator,
		handlers: handlers,
	}, nil
}

// Open powers the projector, extends the arm to the stored target and
// starts the fan once the target is reached.
func (c *Cabinet) Open(ctx context.Context) error {
	if !c.moving.CompareAndSwap(false, true) {
		log.Println("Cabinet: still moving, ignoring open")
		return ErrBusy
	}
	defer c.finish()

	log.Println("Cabinet: opening")
	c.ind.Opening()
	if err := c.usb.On(); err != nil {
		log.Printf("Cabinet: USB power: %v", err)
	}

	if err := c.act.GoTo(ctx, c.settings.Target()); err != nil {
		c.fault(err)
		return fmt.Errorf("open cabinet: %w", err)
	}

	log.Println("Cabinet: successfully opened")
	if err := c.fan.On(); err != nil {
		log.Printf("Cabinet: fan: %v", err)
	}
	c.ind.Open()
	return nil
}

// Close cuts the projector's USB power, retracts the arm and stops the fan.
func (c *Cabinet) Close(ctx context.Context) error {
	if !c.moving.CompareAndSwap(false, true) {
		log.Println("Cabinet: still moving, ignoring close")
		return ErrBusy
	}
	defer c.finish()

	log.Println("Cabinet: closing")
	c.ind.Closing()
	if err := c.usb.Off(); err != nil {
		log.Printf("Cabinet: USB power: %v", err)
	}

	if err := c.act.GoBack(ctx); err != nil {
		c.fault(err)
		return fmt.Errorf("close cabinet: %w", err)
	}

	log.Println("Cabinet: successfully closed")
	if err := c.fan.Off(); err != nil {
		log.Printf("Cabinet: fan: %v", err)
	}
	c.ind.Closed()
	return nil
}

// Toggle closes an open cabinet and opens a closed one.
func (c *Cabinet) Toggle(ctx context.Context) error {
	if c.act.IsExtended() {
		return c.Close(ctx)
	}
	return c.Open(ctx)
}

// IsOn reports whether the cabinet is open.
func (c *Cabinet) IsOn() bool {
	return c.act.IsExtended()
}

// Moving reports whether an open or close is in progress.
func (c *Cabinet) Moving() bool {
	return c.moving.Load()
}

// GetTemp returns the cabinet temperature in °C, thermo.Invalid if unknown.
func (c *Cabinet) GetTemp(ctx context.Context) float64 {
	return c.thermo.Temperature(ctx)
}

// Position returns the arm extension in mm.
func (c *Cabinet) Position() (float64, error) {
	return c.act.Position()
}

// Target returns the stored open position in mm.
func (c *Cabinet) Target() float64 {
	return c.settings.Target()
}

// SetTarget stores a new open position. It is used from the next Open on.
func (c *Cabinet) SetTarget(mm float64) error {
	if math.IsNaN(mm) || mm < 0 || mm > c.act.Length() {
		return fmt.Errorf("target %.1fmm not within [0, %.1f]mm", mm, c.act.Length())
	}
	if err := c.settings.SetTarget(mm); err != nil {
		return err
	}
	log.Printf("Cabinet: updated target to %.1fmm", mm)
	return nil
}

// FanDutyCycle returns the stored fan duty cycle in percent.
func (c *Cabinet) FanDutyCycle() int {
	return c.settings.FanDutyCycle()
}

// SetFanDutyCycle stores a new fan speed and applies it to a running fan.
func (c *Cabinet) SetFanDutyCycle(pct int) error {
	if pct < 0 || pct > 100 {
		return fmt.Errorf("fan duty cycle %d%% not within [0, 100]", pct)
	}
	if err := c.settings.SetFanDutyCycle(pct); err != nil {
		return err
	}
	log.Printf("Cabinet: updated fan duty cycle to %d%%", pct)
	return c.fan.SetDutyCycle(pct)
}

// Release switches off the effectors.
func (c *Cabinet) Release() error {
	return errors.Join(c.fan.Release(), c.usb.Release(), c.ind.Release())
}

func (c *Cabinet) finish() {
	c.moving.Store(false)
	if c.handlers.OnChange != nil {
		c.handlers.OnChange(c.IsOn())
	}
}

func (c *Cabinet) fault(err error) {
	log.Printf("Cabinet: move did not complete: %v", err)
	c.ind.Fault(err.Error())
}
