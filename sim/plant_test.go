package sim

import (
	"errors"
	"testing"
	"time"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time       { return c.t }
func (c *clock) step(d time.Duration) { c.t = c.t.Add(d) }

func newTestPlant(cfg Config) (*Plant, *clock) {
	c := &clock{t: time.Unix(0, 0)}
	p := New(cfg)
	p.now = c.now
	p.last = c.t
	return p, c
}

func TestPlant_Travel(t *testing.T) {
	p, c := newTestPlant(Config{Length: 200, Speed: 10})

	p.IN1().Set(true)
	c.step(2 * time.Second)
	if got := p.Position(); got != 20 {
		t.Errorf("expected 20mm after 2s, got %v", got)
	}
	if cur, _ := p.Current(); cur != 300 {
		t.Errorf("expected moving current 300, got %v", cur)
	}

	p.IN1().Set(false)
	c.step(time.Second)
	if got := p.Position(); got != 20 {
		t.Errorf("arm moved with outputs off: %v", got)
	}
	if cur, _ := p.Current(); cur != 0 {
		t.Errorf("expected idle current, got %v", cur)
	}

	p.IN2().Set(true)
	c.step(5 * time.Second)
	if got := p.Position(); got != 0 {
		t.Errorf("expected the arm to stop at 0, got %v", got)
	}
	if p.Writes() != 3 {
		t.Errorf("expected 3 writes, got %d", p.Writes())
	}
}

func TestPlant_BothOutputsBrake(t *testing.T) {
	p, c := newTestPlant(Config{Length: 200, Speed: 10, Start: 50})

	p.IN1().Set(true)
	p.IN2().Set(true)
	c.step(time.Second)
	if got := p.Position(); got != 50 {
		t.Errorf("expected no travel with both outputs on, got %v", got)
	}
}

func TestPlant_ReadU16(t *testing.T) {
	p, _ := newTestPlant(Config{Length: 200, Start: 100})

	v, err := p.ReadU16()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 1<<15 {
		t.Errorf("expected half scale, got %d", v)
	}

	p.SetPosition(200)
	if v, _ := p.ReadU16(); v != 0xffff {
		t.Errorf("expected full scale clamped to 0xffff, got %d", v)
	}
}

func TestPlant_Obstacle(t *testing.T) {
	p, c := newTestPlant(Config{Length: 200, Speed: 10})
	p.AddObstacle(Obstacle{At: 15, Forward: true})

	p.IN1().Set(true)
	c.step(3 * time.Second)
	if got := p.Position(); got != 15 {
		t.Errorf("expected the arm to stop at the obstacle, got %v", got)
	}
	if cur, _ := p.Current(); cur != 1200 {
		t.Errorf("expected stall current, got %v", cur)
	}

	// Backing away removes a non-persistent obstacle.
	p.IN1().Set(false)
	p.IN2().Set(true)
	c.step(500 * time.Millisecond)
	p.IN2().Set(false)
	p.IN1().Set(true)
	c.step(2 * time.Second)
	if got := p.Position(); got != 30 {
		t.Errorf("expected free travel to 30mm, got %v", got)
	}
}

func TestPlant_PersistentObstacle(t *testing.T) {
	p, c := newTestPlant(Config{Length: 200, Speed: 10})
	p.AddObstacle(Obstacle{At: 15, Forward: true, Persistent: true})

	p.IN1().Set(true)
	c.step(3 * time.Second)
	p.IN1().Set(false)
	p.IN2().Set(true)
	c.step(500 * time.Millisecond)
	p.IN2().Set(false)
	p.IN1().Set(true)
	c.step(2 * time.Second)
	if got := p.Position(); got != 15 {
		t.Errorf("expected the obstacle to block again, got %v", got)
	}
}

func TestPlant_Fault(t *testing.T) {
	p, _ := newTestPlant(Config{})
	p.Fail()

	if _, err := p.ReadU16(); !errors.Is(err, ErrFault) {
		t.Errorf("expected ErrFault from ReadU16, got %v", err)
	}
	if _, err := p.Current(); !errors.Is(err, ErrFault) {
		t.Errorf("expected ErrFault from Current, got %v", err)
	}
}
