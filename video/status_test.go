package video

import "testing"

func TestWithTemperature(t *testing.T) {
	s := StatusOpen.WithTemperature(23.456)
	if s.Detail != "23.5°C" {
		t.Errorf("expected detail 23.5°C, got %q", s.Detail)
	}
	if StatusOpen.Detail != "" {
		t.Error("WithTemperature modified the shared status")
	}

	f := Fault("blocked").WithTemperature(30)
	if f.Detail != "blocked" {
		t.Errorf("expected the fault reason to be kept, got %q", f.Detail)
	}
}
