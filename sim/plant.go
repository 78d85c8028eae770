// Package sim simulates the cabinet actuator: arm travel, position
// potentiometer and motor current, including obstacles in the arm's path.
package sim

import (
	"errors"
	"sync"
	"time"
)

// ErrFault is returned by reads after Fail has been called.
var ErrFault = errors.New("simulated sensor fault")

// Config holds the simulated actuator characteristics.
type Config struct {
	Length        float64 `yaml:"length"`         // arm length in mm
	Speed         float64 `yaml:"speed"`          // travel speed in mm/s
	Start         float64 `yaml:"start"`          // initial position in mm
	IdleCurrent   float64 `yaml:"idle_current"`   // mA with outputs off
	MovingCurrent float64 `yaml:"moving_current"` // mA while travelling freely
	StallCurrent  float64 `yaml:"stall_current"`  // mA while pushing against an obstacle
}

// Obstacle blocks the arm at a position.
type Obstacle struct {
	At         float64 // position in mm
	Forward    bool    // true blocks extension past At, false blocks retraction below At
	Persistent bool    // false removes the obstacle once the arm backs away from it

	hit bool
}

// Plant is a simulated actuator. It implements the ADC and current sensor
// interfaces and exposes the two driver outputs.
type Plant struct {
	mu        sync.Mutex
	cfg       Config
	position  float64
	in1, in2  bool
	last      time.Time
	now       func() time.Time
	obstacles []*Obstacle
	stalled   bool
	fault     bool
	writes    int
}

// New creates a plant. Zero values get sensible defaults.
func New(cfg Config) *Plant {
	if cfg.Length <= 0 {
		cfg.Length = 200
	}
	if cfg.Speed <= 0 {
		cfg.Speed = 10
	}
	if cfg.MovingCurrent <= 0 {
		cfg.MovingCurrent = 300
	}
	if cfg.StallCurrent <= 0 {
		cfg.StallCurrent = 1200
	}
	p := &Plant{
		cfg:      cfg,
		position: cfg.Start,
		now:      time.Now,
	}
	p.last = p.now()
	return p
}

// AddObstacle places an obstacle in the arm's path.
func (p *Plant) AddObstacle(o Obstacle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	p.obstacles = append(p.obstacles, &o)
}

// Fail makes every following sensor read return ErrFault.
func (p *Plant) Fail() {
	p.mu.Lock()
	p.fault = true
	p.mu.Unlock()
}

// SetPosition moves the arm instantly.
func (p *Plant) SetPosition(mm float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	p.position = mm
}

// Position returns the true arm position in mm.
func (p *Plant) Position() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	return p.position
}

// Outputs returns the state of the IN1 and IN2 driver inputs.
func (p *Plant) Outputs() (bool, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.in1, p.in2
}

// Writes returns how many times the driver outputs were written.
func (p *Plant) Writes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.writes
}

// ReadU16 returns the potentiometer reading scaled to 16 bits.
func (p *Plant) ReadU16() (uint16, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fault {
		return 0, ErrFault
	}
	p.advance()

	v := p.position / p.cfg.Length * (1 << 16)
	if v > 0xffff {
		v = 0xffff
	}
	if v < 0 {
		v = 0
	}
	return uint16(v), nil
}

// Current returns the motor current in mA.
func (p *Plant) Current() (float64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fault {
		return 0, ErrFault
	}
	p.advance()

	switch {
	case p.stalled:
		return p.cfg.StallCurrent, nil
	case p.direction() != 0:
		return p.cfg.MovingCurrent, nil
	default:
		return p.cfg.IdleCurrent, nil
	}
}

// IN1 returns the output that extends the arm.
func (p *Plant) IN1() *Pin {
	return &Pin{plant: p, forward: true}
}

// IN2 returns the output that retracts the arm.
func (p *Plant) IN2() *Pin {
	return &Pin{plant: p}
}

// Pin is one simulated driver input.
type Pin struct {
	plant   *Plant
	forward bool
}

// Set drives the pin.
func (pin *Pin) Set(on bool) error {
	p := pin.plant
	p.mu.Lock()
	defer p.mu.Unlock()
	p.advance()
	if pin.forward {
		p.in1 = on
	} else {
		p.in2 = on
	}
	p.writes++
	return nil
}

func (p *Plant) direction() float64 {
	switch {
	case p.in1 && !p.in2:
		return 1
	case p.in2 && !p.in1:
		return -1
	default:
		return 0
	}
}

// advance moves the arm according to the time elapsed since the last call.
func (p *Plant) advance() {
	now := p.now()
	dt := now.Sub(p.last).Seconds()
	p.last = now

	dir := p.direction()
	if dir == 0 {
		p.stalled = false
		return
	}

	next := p.position + dir*p.cfg.Speed*dt
	p.stalled = false

	kept := p.obstacles[:0]
	for _, o := range p.obstacles {
		switch {
		case o.Forward && dir > 0 && p.position <= o.At && next >= o.At:
			next, p.stalled, o.hit = o.At, true, true
		case !o.Forward && dir < 0 && p.position >= o.At && next <= o.At:
			next, p.stalled, o.hit = o.At, true, true
		case o.hit && !o.Persistent && (o.Forward && dir < 0 || !o.Forward && dir > 0):
			continue
		}
		kept = append(kept, o)
	}
	p.obstacles = kept

	if next < 0 {
		next = 0
	}
	if next > p.cfg.Length {
		next = p.cfg.Length
	}
	p.position = next
}
