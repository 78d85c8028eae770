package actuator

import (
	"context"
	"errors"
	"sync"
	"testing"
)

type countingOutput struct {
	mu     sync.Mutex
	writes int
	on     bool
	failOn bool
}

func (o *countingOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if on && o.failOn {
		return errors.New("line busy")
	}
	o.writes++
	o.on = on
	return nil
}

func (o *countingOutput) state() (int, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.writes, o.on
}

type fixedADC uint16

func (v fixedADC) ReadU16() (uint16, error) { return uint16(v), nil }

type fixedCurrent float64

func (c fixedCurrent) Current() (float64, error) { return float64(c), nil }

func newDriverActuator(t *testing.T, in1, in2 *countingOutput) *Actuator {
	t.Helper()
	a, err := New(Config{Length: 200, Precision: 2000}, Hardware{
		Position: fixedADC(1000),
		Current:  fixedCurrent(0),
		Driver:   &Driver{IN1: in1, IN2: in2},
	}, StaticSettings{}, Handlers{})
	if err != nil {
		t.Fatalf("unexpected error creating actuator: %v", err)
	}
	return a
}

func TestEnergize_CancelledContext(t *testing.T) {
	in1, in2 := &countingOutput{}, &countingOutput{}
	a := newDriverActuator(t, in1, in2)
	w1, _ := in1.state()
	w2, _ := in2.state()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, dir := range []Direction{Forward, Backward} {
		if err := a.energize(ctx, dir); !errors.Is(err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", dir, err)
		}
	}
	if n, _ := in1.state(); n != w1 {
		t.Errorf("expected no IN1 writes, got %d", n-w1)
	}
	if n, _ := in2.state(); n != w2 {
		t.Errorf("expected no IN2 writes, got %d", n-w2)
	}
	if a.Direction() != None {
		t.Errorf("expected direction %s, got %s", None, a.Direction())
	}
}

func TestEnergize_FailedWriteStops(t *testing.T) {
	in1, in2 := &countingOutput{failOn: true}, &countingOutput{}
	a := newDriverActuator(t, in1, in2)

	if err := a.energize(context.Background(), Forward); err == nil {
		t.Fatal("expected error energizing a failing output")
	}
	if _, on := in1.state(); on {
		t.Error("expected IN1 off")
	}
	if _, on := in2.state(); on {
		t.Error("expected IN2 off")
	}
	if a.Direction() != None {
		t.Errorf("expected direction %s after failed energize, got %s", None, a.Direction())
	}
}
