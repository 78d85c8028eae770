package projector

import (
	"errors"
	"testing"
)

type scripted struct {
	values []float64
	err    error
	i      int
}

func (s *scripted) ProjectorCurrent() (float64, error) {
	if s.err != nil {
		return 0, s.err
	}
	v := s.values[s.i]
	if s.i < len(s.values)-1 {
		s.i++
	}
	return v, nil
}

func TestNew_Disabled(t *testing.T) {
	if w := New(Config{}, &scripted{values: []float64{1}}, nil); w != nil {
		t.Error("expected no watcher without a threshold")
	}
}

func TestWatcher_Transitions(t *testing.T) {
	src := &scripted{values: []float64{0, 0, 2, 2, 2, 2, 0, 0, 0, 0}}

	var changes []bool
	w := New(Config{Threshold: 1, Window: 4}, src, func(on bool) {
		changes = append(changes, on)
	})

	tests := []struct {
		name string
		on   bool
	}{
		{"idle", false},
		{"idle", false},
		{"rising average 0.67", false},
		{"average 1.0", true},
		{"average 1.5", true},
		{"average 2.0", true},
		{"average 1.5", true},
		{"average 1.0", true},
		{"average 0.5", false},
		{"average 0", false},
	}

	for i, tt := range tests {
		w.sample()
		if w.IsOn() != tt.on {
			t.Errorf("sample %d (%s): expected on=%v", i, tt.name, tt.on)
		}
	}

	if len(changes) != 2 || !changes[0] || changes[1] {
		t.Errorf("expected on then off, got %v", changes)
	}
}

func TestWatcher_ReadErrorKeepsState(t *testing.T) {
	src := &scripted{values: []float64{5}}
	w := New(Config{Threshold: 1}, src, nil)

	w.sample()
	if !w.IsOn() {
		t.Fatal("expected the projector to be on")
	}

	src.err = errors.New("bridge does not report projector current")
	w.sample()
	w.sample()
	if !w.IsOn() {
		t.Error("a read error must not change the state")
	}
}
