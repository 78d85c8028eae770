// Package settings persists the runtime tunables of the cabinet so they
// survive restarts.
package settings

import (
	"errors"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v2"

	"cabinetd/actuator"
)

// Values are the persisted tunables.
type Values struct {
	// Target to which the actuator goes when the cabinet is opened, in mm.
	ActuatorTarget float64 `yaml:"actuator_target"`

	// Number of readings in the moving average window of obstacle detection.
	ObstacleSMAWindow int `yaml:"actuator_obstacle_sma_window"`

	// Samples are limited to ObstacleCurrent * ObstacleMaxValueCoefficient
	// before entering the moving average window.
	ObstacleMaxValueCoefficient float64 `yaml:"actuator_obstacle_max_value_coefficient"`

	// Current in mA above which an obstacle is assumed. Zero disables detection.
	ObstacleCurrent float64 `yaml:"actuator_obstacle_current"`

	// How far the actuator reverses after an obstacle, in mm.
	ObstacleReverseDistance float64 `yaml:"actuator_obstacle_reverse_distance"`

	// Current sampling interval in ms.
	CurrentMonitoringInterval int `yaml:"actuator_current_monitoring_interval"`

	// Fan duty cycle in percent used while the cabinet is open.
	FansDutyCycle int `yaml:"fans_duty_cycle"`
}

// Defaults returns the factory tunables.
func Defaults() Values {
	return Values{
		ActuatorTarget:              100,
		ObstacleSMAWindow:           10,
		ObstacleMaxValueCoefficient: 1.32,
		ObstacleCurrent:             600,
		ObstacleReverseDistance:     12,
		CurrentMonitoringInterval:   100,
		FansDutyCycle:               100,
	}
}

// ErrInvalid is returned when a value is out of its allowed range.
var ErrInvalid = errors.New("invalid setting")

// Validate checks the values against the arm length in mm.
func (v Values) Validate(length float64) error {
	switch {
	case math.IsNaN(v.ActuatorTarget) || v.ActuatorTarget < 0 || v.ActuatorTarget > length:
		return fmt.Errorf("%w: target %.1fmm exceeds [0, %.1f]mm", ErrInvalid, v.ActuatorTarget, length)
	case v.ObstacleSMAWindow < 1:
		return fmt.Errorf("%w: SMA window %d", ErrInvalid, v.ObstacleSMAWindow)
	case math.IsNaN(v.ObstacleMaxValueCoefficient) || math.IsInf(v.ObstacleMaxValueCoefficient, 0) || v.ObstacleMaxValueCoefficient < 1:
		return fmt.Errorf("%w: max value coefficient %.2f", ErrInvalid, v.ObstacleMaxValueCoefficient)
	case math.IsNaN(v.ObstacleCurrent) || math.IsInf(v.ObstacleCurrent, 0) || v.ObstacleCurrent < 0:
		return fmt.Errorf("%w: obstacle current %.1fmA", ErrInvalid, v.ObstacleCurrent)
	case math.IsNaN(v.ObstacleReverseDistance) || v.ObstacleReverseDistance < 0 || v.ObstacleReverseDistance > length:
		return fmt.Errorf("%w: reverse distance %.1fmm", ErrInvalid, v.ObstacleReverseDistance)
	case v.CurrentMonitoringInterval < 1:
		return fmt.Errorf("%w: monitoring interval %dms", ErrInvalid, v.CurrentMonitoringInterval)
	case v.FansDutyCycle < 0 || v.FansDutyCycle > 100:
		return fmt.Errorf("%w: fan duty cycle %d%%", ErrInvalid, v.FansDutyCycle)
	}
	return nil
}

// Store holds the tunables and writes them to a YAML file on every change.
type Store struct {
	mu     sync.RWMutex
	path   string
	length float64
	values Values
}

// Open loads the store from path. A missing file yields the defaults.
// An empty path keeps the values in memory only.
func Open(path string, length float64) (*Store, error) {
	s := &Store{
		path:   path,
		length: length,
		values: Defaults(),
	}
	if path == "" {
		return s, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Printf("Settings: no settings at %s, using defaults", path)
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	// Unmarshal over the defaults so keys missing from older files keep them.
	values := Defaults()
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode settings %s: %w", path, err)
	}
	if err := values.Validate(length); err != nil {
		return nil, fmt.Errorf("settings %s: %w", path, err)
	}
	s.values = values
	log.Printf("Settings: loaded %+v", values)
	return s, nil
}

// Values returns a snapshot of all tunables.
func (s *Store) Values() Values {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values
}

// Update applies fn to a copy of the values, validates and persists the result.
func (s *Store) Update(fn func(*Values)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.values
	fn(&next)
	if err := next.Validate(s.length); err != nil {
		return err
	}
	if err := s.save(next); err != nil {
		return err
	}
	s.values = next
	return nil
}

// Target returns the open position in mm.
func (s *Store) Target() float64 {
	return s.Values().ActuatorTarget
}

// SetTarget changes the open position.
func (s *Store) SetTarget(mm float64) error {
	return s.Update(func(v *Values) { v.ActuatorTarget = mm })
}

// FanDutyCycle returns the fan duty cycle in percent.
func (s *Store) FanDutyCycle() int {
	return s.Values().FansDutyCycle
}

// SetFanDutyCycle changes the fan duty cycle.
func (s *Store) SetFanDutyCycle(pct int) error {
	return s.Update(func(v *Values) { v.FansDutyCycle = pct })
}

// Obstacle implements actuator.Settings.
func (s *Store) Obstacle() actuator.ObstacleSettings {
	v := s.Values()
	return actuator.ObstacleSettings{
		Current:             v.ObstacleCurrent,
		MaxValueCoefficient: v.ObstacleMaxValueCoefficient,
		SMAWindow:           v.ObstacleSMAWindow,
		ReverseDistance:     v.ObstacleReverseDistance,
		MonitoringInterval:  time.Duration(v.CurrentMonitoringInterval) * time.Millisecond,
	}
}

// save writes the values next to the target file and renames it into place.
func (s *Store) save(v Values) error {
	if s.path == "" {
		return nil
	}

	data, err := yaml.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".settings-*")
	if err != nil {
		return fmt.Errorf("create temp settings: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
