package settings

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestOpen_MissingFileUsesDefaults(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "settings.yaml"), 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Values() != Defaults() {
		t.Errorf("expected defaults, got %+v", s.Values())
	}
}

func TestSetTarget_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "settings.yaml")

	s, err := Open(path, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := s.SetTarget(150); err != nil {
		t.Fatalf("SetTarget failed: %v", err)
	}
	if err := s.SetFanDutyCycle(40); err != nil {
		t.Fatalf("SetFanDutyCycle failed: %v", err)
	}

	reopened, err := Open(path, 200)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	if reopened.Target() != 150 {
		t.Errorf("expected target 150, got %v", reopened.Target())
	}
	if reopened.FanDutyCycle() != 40 {
		t.Errorf("expected duty cycle 40, got %v", reopened.FanDutyCycle())
	}
}

func TestUpdate_RejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	s, err := Open(path, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := []struct {
		name string
		fn   func(*Values)
	}{
		{"TargetTooFar", func(v *Values) { v.ActuatorTarget = 201 }},
		{"NegativeTarget", func(v *Values) { v.ActuatorTarget = -1 }},
		{"EmptyWindow", func(v *Values) { v.ObstacleSMAWindow = 0 }},
		{"DutyCycle", func(v *Values) { v.FansDutyCycle = 101 }},
		{"Coefficient", func(v *Values) { v.ObstacleMaxValueCoefficient = 0.5 }},
		{"NaNTarget", func(v *Values) { v.ActuatorTarget = math.NaN() }},
		{"NaNCurrent", func(v *Values) { v.ObstacleCurrent = math.NaN() }},
		{"InfiniteCurrent", func(v *Values) { v.ObstacleCurrent = math.Inf(1) }},
		{"NaNReverseDistance", func(v *Values) { v.ObstacleReverseDistance = math.NaN() }},
		{"NaNCoefficient", func(v *Values) { v.ObstacleMaxValueCoefficient = math.NaN() }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := s.Update(tt.fn); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
			if s.Values() != Defaults() {
				t.Errorf("values changed after rejected update: %+v", s.Values())
			}
		})
	}

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("expected no file to be written, stat gave %v", err)
	}
}

func TestOpen_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte("actuator_target: 120\nactuator_obstacle_current: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(path, 200)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v := s.Values()
	if v.ActuatorTarget != 120 || v.ObstacleCurrent != 0 {
		t.Errorf("file values not applied: %+v", v)
	}
	if v.ObstacleSMAWindow != 10 || v.ObstacleReverseDistance != 12 {
		t.Errorf("defaults lost: %+v", v)
	}
}

func TestOpen_InvalidFile(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"TargetTooFar", "actuator_target: 500\n"},
		{"NaNTarget", "actuator_target: .nan\n"},
		{"NaNCurrent", "actuator_obstacle_current: .nan\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "settings.yaml")
			if err := os.WriteFile(path, []byte(tt.data), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Open(path, 200); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestObstacle(t *testing.T) {
	s, _ := Open("", 200)
	o := s.Obstacle()

	if o.Current != 600 || o.SMAWindow != 10 || o.ReverseDistance != 12 {
		t.Errorf("unexpected obstacle settings: %+v", o)
	}
	if o.MonitoringInterval != 100*time.Millisecond {
		t.Errorf("expected 100ms interval, got %s", o.MonitoringInterval)
	}
	if o.MaxValueCoefficient != 1.32 {
		t.Errorf("expected coefficient 1.32, got %v", o.MaxValueCoefficient)
	}
}
