package fan

import "testing"

func TestNew_NoPinIsNoop(t *testing.T) {
	f, err := New(Config{Type: "pwm"}, 60)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := f.(*Noop); !ok {
		t.Fatalf("expected *Noop, got %T", f)
	}
}

func TestNoop_DutyCycle(t *testing.T) {
	n := NewNoop(100)

	tests := []struct {
		pct   int
		valid bool
	}{
		{0, true},
		{55, true},
		{100, true},
		{-1, false},
		{101, false},
	}

	for _, tt := range tests {
		err := n.SetDutyCycle(tt.pct)
		if tt.valid && err != nil {
			t.Errorf("SetDutyCycle(%d): unexpected error: %v", tt.pct, err)
		}
		if !tt.valid && err == nil {
			t.Errorf("SetDutyCycle(%d): expected an error", tt.pct)
		}
	}

	if _, pct := n.State(); pct != 100 {
		t.Errorf("expected last valid duty cycle 100, got %d", pct)
	}
}

func TestNoop_OnOff(t *testing.T) {
	n := NewNoop(40)
	n.On()
	if on, pct := n.State(); !on || pct != 40 {
		t.Errorf("expected on at 40%%, got %v at %d%%", on, pct)
	}
	n.Off()
	if on, _ := n.State(); on {
		t.Error("expected fan off")
	}
}
