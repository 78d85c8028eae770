package actuator

import (
	"context"
	"fmt"
	"log"
	"time"
)

// CurrentSensor reports the instantaneous motor current in mA.
type CurrentSensor interface {
	Current() (float64, error)
}

// ObstacleSettings are the runtime tunables of obstacle detection.
type ObstacleSettings struct {
	Current             float64       // threshold in mA, zero disables detection
	MaxValueCoefficient float64       // samples are clamped to Current * MaxValueCoefficient
	SMAWindow           int           // number of samples averaged
	ReverseDistance     float64       // retraction distance in mm
	MonitoringInterval  time.Duration // time between current samples
}

func (s ObstacleSettings) withDefaults() ObstacleSettings {
	if s.MaxValueCoefficient <= 0 {
		s.MaxValueCoefficient = 1.32
	}
	if s.SMAWindow <= 0 {
		s.SMAWindow = 10
	}
	if s.MonitoringInterval <= 0 {
		s.MonitoringInterval = 100 * time.Millisecond
	}
	return s
}

// Settings supplies obstacle tunables. They are read at the start of every seek attempt.
type Settings interface {
	Obstacle() ObstacleSettings
}

// StaticSettings is a fixed set of obstacle tunables.
type StaticSettings ObstacleSettings

// Obstacle implements Settings.
func (s StaticSettings) Obstacle() ObstacleSettings {
	return ObstacleSettings(s)
}

// Obstacle describes one obstacle response.
type Obstacle struct {
	Direction Direction // direction of the interrupted move
	Position  float64   // position in mm when the response was computed
	Target    float64   // retraction target in mm, unset when Blocked
	Blocked   bool      // second obstacle while already avoiding, motion stopped for good
}

// responder is the part of the actuator the monitor drives.
type responder interface {
	Direction() Direction
	Position() (float64, error)
	stop() error
	beginAvoiding() bool
	retractionTarget(dir Direction, distance float64) (target, position float64, err error)
}

type verdictKind int

const (
	reached verdictKind = iota
	retract
	blocked
	failed
)

type verdict struct {
	kind   verdictKind
	target float64
	err    error
}

// watch hands one seek attempt over to the monitor.
type watch struct {
	ctx    context.Context    // deadline of the whole move
	done   <-chan error       // result of the seek goroutine
	cancel context.CancelFunc // cancels the seek goroutine
	reply  chan<- verdict
}

// Monitor supervises seek attempts and pre-empts them when the smoothed
// motor current exceeds the obstacle threshold.
type Monitor struct {
	current  CurrentSensor
	settings Settings
	settle   time.Duration
	motion   responder
	notify   func(Obstacle)
	watches  chan watch
	warned   bool
}

func newMonitor(current CurrentSensor, settings Settings, settle time.Duration, motion responder, notify func(Obstacle)) *Monitor {
	return &Monitor{
		current:  current,
		settings: settings,
		settle:   settle,
		motion:   motion,
		notify:   notify,
		watches:  make(chan watch),
	}
}

// Run serves seek attempts until ctx is cancelled.
// This should be called as a goroutine.
func (m *Monitor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case w := <-m.watches:
			w.reply <- m.supervise(w)
		}
	}
}

func (m *Monitor) supervise(w watch) verdict {
	s := m.settings.Obstacle()
	if s.Current <= 0 {
		if !m.warned {
			log.Println("Obstacle: current threshold is not defined, no obstacle detection is happening")
			m.warned = true
		}
		select {
		case err := <-w.done:
			return m.finished(err)
		case <-w.ctx.Done():
			return m.abort(w, w.ctx.Err())
		}
	}
	m.warned = false
	s = s.withDefaults()

	filter := NewSMA(s.SMAWindow, s.Current*s.MaxValueCoefficient)
	ticker := time.NewTicker(s.MonitoringInterval)
	defer ticker.Stop()

	for {
		select {
		case err := <-w.done:
			return m.finished(err)
		case <-w.ctx.Done():
			return m.abort(w, w.ctx.Err())
		case <-ticker.C:
		}

		current, err := m.current.Current()
		if err != nil {
			return m.abort(w, fmt.Errorf("read current: %w", err))
		}

		sma := filter.Push(current)
		if sma <= s.Current {
			continue
		}

		log.Printf("Obstacle: detected! SMA %.1fmA over %d samples (threshold %.1fmA)", sma, filter.Len(), s.Current)
		filter.Reset()
		return m.respond(w, s)
	}
}

// finished handles a seek attempt that ended on its own.
func (m *Monitor) finished(err error) verdict {
	if err != nil {
		if stopErr := m.motion.stop(); stopErr != nil {
			log.Printf("Obstacle: stop after failed seek: %v", stopErr)
		}
		return verdict{kind: failed, err: err}
	}
	return verdict{kind: reached}
}

// halt cancels the seek, stops the outputs and waits for the seek goroutine to exit.
// A seek energizes under the same lock as stop and checks its context there.
func (m *Monitor) halt(w watch) {
	w.cancel()
	if err := m.motion.stop(); err != nil {
		log.Printf("Obstacle: stop: %v", err)
	}
	<-w.done
}

func (m *Monitor) abort(w watch, err error) verdict {
	m.halt(w)
	return verdict{kind: failed, err: err}
}

func (m *Monitor) respond(w watch, s ObstacleSettings) verdict {
	dir := m.motion.Direction()
	m.halt(w)

	if !m.motion.beginAvoiding() {
		log.Println("Obstacle: blocked while already avoiding ==> stopping completely")
		pos, _ := m.motion.Position()
		m.emit(Obstacle{Direction: dir, Position: pos, Blocked: true})
		return verdict{kind: blocked}
	}

	select {
	case <-time.After(m.settle):
	case <-w.ctx.Done():
		return verdict{kind: failed, err: w.ctx.Err()}
	}

	target, pos, err := m.motion.retractionTarget(dir, s.ReverseDistance)
	if err != nil {
		return verdict{kind: failed, err: err}
	}

	m.emit(Obstacle{Direction: dir, Position: pos, Target: target})
	return verdict{kind: retract, target: target}
}

func (m *Monitor) emit(o Obstacle) {
	if m.notify != nil {
		m.notify(o)
	}
}
