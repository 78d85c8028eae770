package actuator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"sync"
	"time"
)

var (
	// ErrInvalidTarget is returned for targets outside [0, Length].
	ErrInvalidTarget = errors.New("target out of range")

	// ErrTimeout is returned when a move does not finish before its deadline.
	ErrTimeout = errors.New("move timed out")

	// ErrBlocked is returned when an obstacle is hit again while avoiding the previous one.
	ErrBlocked = errors.New("actuator blocked by obstacle")
)

// Config holds the static actuator configuration.
type Config struct {
	Length       float64       `yaml:"length"`        // maximal extension of the arm in mm
	Precision    float64       `yaml:"precision"`     // half width of the target band in ADC units
	Timeout      time.Duration `yaml:"timeout"`       // deadline of a whole move
	SettleDelay  time.Duration `yaml:"settle_delay"`  // pause after an obstacle stop
	PollInterval time.Duration `yaml:"poll_interval"` // position polling while seeking
	Debug        bool          `yaml:"debug"`         // periodically log position and current
	Driver       DriverConfig  `yaml:"driver"`
}

func (c Config) withDefaults() Config {
	if c.Length <= 0 {
		c.Length = 200
	}
	if c.Precision <= 0 {
		c.Precision = 100
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Second
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = time.Second
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 10 * time.Millisecond
	}
	return c
}

// Hardware bundles the actuator's sensors and driver outputs.
type Hardware struct {
	Position ADC
	Current  CurrentSensor
	Driver   *Driver
}

// Handlers holds callback functions for actuator events.
type Handlers struct {
	OnObstacle func(Obstacle)                  // called for every obstacle response
	OnMove     func(target float64, err error) // called when GoTo returns
}

// Actuator drives the linear actuator to a target position with obstacle avoidance.
type Actuator struct {
	cfg      Config
	sensor   *PositionSensor
	current  CurrentSensor
	driver   *Driver
	monitor  *Monitor
	handlers Handlers

	moveMu sync.Mutex // one move at a time

	mu        sync.Mutex
	direction Direction
	avoiding  bool
}

// New creates an Actuator. Both driver outputs are switched off.
func New(cfg Config, hw Hardware, settings Settings, handlers Handlers) (*Actuator, error) {
	if hw.Position == nil || hw.Current == nil || hw.Driver == nil {
		return nil, errors.New("actuator: position, current and driver are required")
	}
	cfg = cfg.withDefaults()

	a := &Actuator{
		cfg:      cfg,
		sensor:   NewPositionSensor(hw.Position, cfg.Length, cfg.PollInterval),
		current:  hw.Current,
		driver:   hw.Driver,
		handlers: handlers,
	}
	a.monitor = newMonitor(hw.Current, settings, cfg.SettleDelay, a, handlers.OnObstacle)

	if err := a.stop(); err != nil {
		return nil, fmt.Errorf("reset driver: %w", err)
	}
	return a, nil
}

// Start launches the obstacle monitor and, in debug mode, the value logger.
// Moves wait for the monitor, so Start must be called before GoTo.
func (a *Actuator) Start(ctx context.Context) {
	go a.monitor.Run(ctx)
	if a.cfg.Debug {
		go a.logValues(ctx)
	}
}

// Length returns the maximal extension in mm.
func (a *Actuator) Length() float64 {
	return a.cfg.Length
}

// Direction returns the direction the arm is currently driven in.
func (a *Actuator) Direction() Direction {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.direction
}

// Avoiding reports whether an obstacle response is in progress.
func (a *Actuator) Avoiding() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.avoiding
}

// Position returns the current extension in mm.
func (a *Actuator) Position() (float64, error) {
	return a.sensor.Position()
}

// IsExtended reports whether the arm is out of its fully retracted position.
func (a *Actuator) IsExtended() bool {
	v, err := a.sensor.Raw()
	if err != nil {
		log.Printf("Actuator: %v", err)
		return false
	}
	return float64(v) > a.cfg.Precision
}

// GoBack retracts the arm completely.
func (a *Actuator) GoBack(ctx context.Context) error {
	log.Println("Actuator: going back")
	return a.GoTo(ctx, 0)
}

// GoTo moves the arm to target (mm). Obstacles are avoided by retracting
// and resuming; a second obstacle during that stops the move with ErrBlocked.
// The whole move, retries included, is bounded by the configured timeout.
func (a *Actuator) GoTo(ctx context.Context, target float64) (err error) {
	if math.IsNaN(target) || target < 0 || target > a.cfg.Length {
		return fmt.Errorf("%w: %.1fmm not within [0, %.1f]mm", ErrInvalidTarget, target, a.cfg.Length)
	}

	a.moveMu.Lock()
	defer a.moveMu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, a.cfg.Timeout)
	defer cancel()

	defer func() {
		// Reset unconditionally so the next move starts clean.
		a.setAvoiding(false)
		if a.handlers.OnMove != nil {
			a.handlers.OnMove(target, err)
		}
	}()

	seekTarget := target
	retracting := false
	for {
		v := a.attempt(ctx, seekTarget)

		switch v.kind {
		case reached:
			if !retracting {
				return nil
			}
			log.Printf("Actuator: obstacle avoided, resuming to %.1fmm", target)
			seekTarget, retracting = target, false

		case retract:
			log.Printf("Actuator: reversing to %.1fmm", v.target)
			seekTarget, retracting = v.target, true

		case blocked:
			return ErrBlocked

		default:
			if errors.Is(v.err, context.DeadlineExceeded) {
				log.Printf("Actuator: move to %.1fmm timed out after %s", target, a.cfg.Timeout)
				return fmt.Errorf("%w after %s", ErrTimeout, a.cfg.Timeout)
			}
			return fmt.Errorf("move to %.1fmm: %w", target, v.err)
		}
	}
}

// attempt runs one seek under the monitor's supervision.
func (a *Actuator) attempt(ctx context.Context, target float64) verdict {
	seekCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	done := make(chan error, 1)
	reply := make(chan verdict, 1)

	select {
	case a.monitor.watches <- watch{ctx: ctx, done: done, cancel: cancel, reply: reply}:
	case <-ctx.Done():
		return verdict{kind: failed, err: ctx.Err()}
	}

	go func() {
		done <- a.seek(seekCtx, target)
	}()

	return <-reply
}

// seek drives toward target until the position enters the target band.
// Once ctx is cancelled it makes no further driver writes.
func (a *Actuator) seek(ctx context.Context, target float64) error {
	raw, err := a.sensor.Raw()
	if err != nil {
		return err
	}
	current := PositionFromADC(float64(raw), a.cfg.Length)

	adcTarget := ADCFromPosition(target, a.cfg.Length)
	low, high := adcTarget-a.cfg.Precision, adcTarget+a.cfg.Precision
	if r := float64(raw); r >= low && r <= high {
		a.debugf("already at %.1fmm", target)
		return nil
	}

	dir := Backward
	if target > current {
		dir = Forward
	}
	log.Printf("Actuator: going to target %.1fmm. Current position %.1fmm ==> moving %s", target, current, dir)

	if err := a.energize(ctx, dir); err != nil {
		return err
	}

	if err := a.sensor.WaitInRange(ctx, low, high); err != nil {
		return err
	}

	a.debugf("finished the move %.1fmm --> %.1fmm", current, target)
	return a.stop()
}

// energize sets the direction and then drives the matching output.
// Nothing is written once ctx is done.
func (a *Actuator) energize(ctx context.Context, dir Direction) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	var on, off Output
	switch dir {
	case Forward:
		on, off = a.driver.IN1, a.driver.IN2
	case Backward:
		on, off = a.driver.IN2, a.driver.IN1
	default:
		return a.stopLocked()
	}

	a.direction = dir
	if err := off.Set(false); err != nil {
		a.abortLocked()
		return fmt.Errorf("energize %s: %w", dir, err)
	}
	if err := on.Set(true); err != nil {
		a.abortLocked()
		return fmt.Errorf("energize %s: %w", dir, err)
	}
	return nil
}

// abortLocked stops after a failed write. The write error is what the caller reports.
func (a *Actuator) abortLocked() {
	if err := a.stopLocked(); err != nil {
		log.Printf("Actuator: %v", err)
	}
}

// stop de-energizes both outputs and then clears the direction.
func (a *Actuator) stop() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.stopLocked()
}

func (a *Actuator) stopLocked() error {
	if a.direction != None {
		log.Println("Actuator: stopping")
	}
	err1 := a.driver.IN1.Set(false)
	err2 := a.driver.IN2.Set(false)
	if err := errors.Join(err1, err2); err != nil {
		return fmt.Errorf("stop: %w", err)
	}
	a.direction = None
	return nil
}

func (a *Actuator) setAvoiding(v bool) {
	a.mu.Lock()
	a.avoiding = v
	a.mu.Unlock()
}

// beginAvoiding marks an obstacle response. It returns false if one is already in progress.
func (a *Actuator) beginAvoiding() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.avoiding {
		return false
	}
	a.avoiding = true
	return true
}

// retractionTarget moves the current position opposite to dir by distance, clamped to the arm length.
func (a *Actuator) retractionTarget(dir Direction, distance float64) (float64, float64, error) {
	pos, err := a.sensor.Position()
	if err != nil {
		return 0, 0, err
	}

	target := pos
	switch dir {
	case Forward:
		target -= distance
	case Backward:
		target += distance
	default:
		log.Println("Obstacle: we should be avoiding an obstacle but we are not moving")
	}

	if target < 0 {
		target = 0
	}
	if target > a.cfg.Length {
		target = a.cfg.Length
	}
	log.Printf("Obstacle: reversing %.1fmm to %.1fmm", distance, target)
	return target, pos, nil
}

// Release stops the arm and releases the driver.
func (a *Actuator) Release() error {
	if err := a.stop(); err != nil {
		log.Printf("Actuator: %v", err)
	}
	return a.driver.Release()
}

func (a *Actuator) logValues(ctx context.Context) {
	ticker := time.NewTicker(1200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		raw, err := a.sensor.Raw()
		if err != nil {
			log.Printf("Actuator: %v", err)
			continue
		}
		current, err := a.current.Current()
		if err != nil {
			log.Printf("Actuator: read current: %v", err)
			continue
		}
		log.Printf("Actuator: extended %.1fmm (raw: %d); current: %.1fmA",
			PositionFromADC(float64(raw), a.cfg.Length), raw, current)
	}
}

func (a *Actuator) debugf(format string, args ...any) {
	if a.cfg.Debug {
		log.Printf("Actuator: "+format, args...)
	}
}
