package power

import "testing"

func TestNew_NoPinIsNoop(t *testing.T) {
	tests := []Config{
		{},
		{Type: "gpio_high"},
		{Type: "none"},
	}

	for _, cfg := range tests {
		s, err := New(cfg)
		if err != nil {
			t.Fatalf("%+v: unexpected error: %v", cfg, err)
		}
		if _, ok := s.(*Noop); !ok {
			t.Errorf("%+v: expected *Noop, got %T", cfg, s)
		}
	}
}

func TestNew_UnknownTypeIsNoop(t *testing.T) {
	pin := 5
	s, err := New(Config{Type: "relay", Pin: &pin})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := s.(*Noop); !ok {
		t.Errorf("expected *Noop, got %T", s)
	}
}

func TestNoop(t *testing.T) {
	var n Noop
	if n.IsOn() {
		t.Fatal("expected the line to start off")
	}
	n.On()
	if !n.IsOn() {
		t.Error("expected the line on")
	}
	n.Off()
	if n.IsOn() {
		t.Error("expected the line off")
	}
}
