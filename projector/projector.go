// Package projector tells whether the projector is switched on from the
// current it draws.
package projector

import (
	"context"
	"log"
	"math"
	"sync/atomic"
	"time"

	"cabinetd/actuator"
)

// Source reports the projector supply current in A.
type Source interface {
	ProjectorCurrent() (float64, error)
}

// Config holds configuration for the projector watcher.
type Config struct {
	Threshold float64       `yaml:"threshold"` // A at or above which the projector is on, watcher disabled if zero
	Interval  time.Duration `yaml:"interval"`  // sampling interval (default 500ms)
	Window    int           `yaml:"window"`    // moving average window (default 4)
}

// Watcher samples the projector current and reports on/off changes.
type Watcher struct {
	src       Source
	threshold float64
	interval  time.Duration
	sma       *actuator.SMA
	onChange  func(on bool)

	on     atomic.Bool
	failed bool
}

// New creates a Watcher. Returns nil if no threshold is configured.
func New(cfg Config, src Source, onChange func(on bool)) *Watcher {
	if cfg.Threshold <= 0 || src == nil {
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 500 * time.Millisecond
	}
	if cfg.Window <= 0 {
		cfg.Window = 4
	}
	return &Watcher{
		src:       src,
		threshold: cfg.Threshold,
		interval:  cfg.Interval,
		sma:       actuator.NewSMA(cfg.Window, math.MaxFloat64),
		onChange:  onChange,
	}
}

// Run samples until ctx is cancelled.
// This should be called as a goroutine.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.sample()
		}
	}
}

// IsOn returns whether the projector was last seen switched on.
func (w *Watcher) IsOn() bool {
	return w.on.Load()
}

func (w *Watcher) sample() {
	current, err := w.src.ProjectorCurrent()
	if err != nil {
		// Log once per outage.
		if !w.failed {
			log.Printf("Projector: read current: %v", err)
			w.failed = true
		}
		return
	}
	w.failed = false

	avg := w.sma.Push(current)
	on := avg >= w.threshold
	if w.on.Swap(on) == on {
		return
	}

	if on {
		log.Printf("Projector: turned on (%.2fA)", avg)
	} else {
		log.Printf("Projector: turned off (%.2fA)", avg)
	}
	if w.onChange != nil {
		w.onChange(on)
	}
}
