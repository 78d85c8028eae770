package actuator_test

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"
	"time"

	"cabinetd/actuator"
	"cabinetd/sim"
)

const (
	length = 200.0
	// Half width of the target band: 2000 ADC units is about 6mm on a 200mm arm.
	precision = 2000.0
)

type recorder struct {
	mu        sync.Mutex
	obstacles []actuator.Obstacle
	avoiding  []bool
	act       *actuator.Actuator
}

func (r *recorder) onObstacle(o actuator.Obstacle) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.obstacles = append(r.obstacles, o)
	r.avoiding = append(r.avoiding, r.act.Avoiding())
}

func (r *recorder) events() ([]actuator.Obstacle, []bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]actuator.Obstacle(nil), r.obstacles...), append([]bool(nil), r.avoiding...)
}

func newTestActuator(t *testing.T, plant *sim.Plant, threshold float64, timeout time.Duration) (*actuator.Actuator, *recorder) {
	t.Helper()

	cfg := actuator.Config{
		Length:       length,
		Precision:    precision,
		Timeout:      timeout,
		SettleDelay:  5 * time.Millisecond,
		PollInterval: time.Millisecond,
	}
	settings := actuator.StaticSettings{
		Current:             threshold,
		MaxValueCoefficient: 1.32,
		SMAWindow:           3,
		ReverseDistance:     12,
		MonitoringInterval:  time.Millisecond,
	}
	hw := actuator.Hardware{
		Position: plant,
		Current:  plant,
		Driver:   &actuator.Driver{IN1: plant.IN1(), IN2: plant.IN2()},
	}

	rec := &recorder{}
	a, err := actuator.New(cfg, hw, settings, actuator.Handlers{OnObstacle: rec.onObstacle})
	if err != nil {
		t.Fatalf("unexpected error creating actuator: %v", err)
	}
	rec.act = a

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a.Start(ctx)
	return a, rec
}

func bandMM() float64 {
	return actuator.PositionFromADC(precision, length)
}

func assertStopped(t *testing.T, a *actuator.Actuator, plant *sim.Plant) {
	t.Helper()
	if a.Direction() != actuator.None {
		t.Errorf("expected direction None, got %s", a.Direction())
	}
	if in1, in2 := plant.Outputs(); in1 || in2 {
		t.Errorf("expected both outputs off, got IN1=%v IN2=%v", in1, in2)
	}
	if a.Avoiding() {
		t.Error("expected avoiding to be reset")
	}
}

func TestGoTo_Reaches(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	a, rec := newTestActuator(t, plant, 600, 5*time.Second)

	if err := a.GoTo(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := plant.Position(); math.Abs(got-100) > bandMM() {
		t.Errorf("expected position near 100mm, got %.2fmm", got)
	}
	assertStopped(t, a, plant)
	if obstacles, _ := rec.events(); len(obstacles) != 0 {
		t.Errorf("expected no obstacles, got %+v", obstacles)
	}
	if !a.IsExtended() {
		t.Error("expected the arm to be extended")
	}
}

func TestGoBack(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200, Start: 60})
	a, _ := newTestActuator(t, plant, 600, 5*time.Second)

	if err := a.GoBack(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := plant.Position(); got > bandMM() {
		t.Errorf("expected arm retracted, got %.2fmm", got)
	}
	assertStopped(t, a, plant)
}

func TestGoTo_AlreadyThere(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200, Start: 100})
	a, _ := newTestActuator(t, plant, 600, time.Second)
	writes := plant.Writes()

	if err := a.GoTo(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if plant.Writes() != writes {
		t.Errorf("expected no driver writes, got %d", plant.Writes()-writes)
	}
}

func TestGoTo_InvalidTarget(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	a, _ := newTestActuator(t, plant, 600, time.Second)
	writes := plant.Writes()

	for _, target := range []float64{-1, length + 0.1, 1000, math.NaN(), math.Inf(1)} {
		err := a.GoTo(context.Background(), target)
		if !errors.Is(err, actuator.ErrInvalidTarget) {
			t.Errorf("target %v: expected ErrInvalidTarget, got %v", target, err)
		}
	}
	if plant.Writes() != writes {
		t.Errorf("expected no driver writes for invalid targets, got %d", plant.Writes()-writes)
	}
}

func TestGoTo_ObstacleRetractAndResume(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	plant.AddObstacle(sim.Obstacle{At: 40, Forward: true})
	a, rec := newTestActuator(t, plant, 600, 5*time.Second)

	if err := a.GoTo(context.Background(), 100); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obstacles, avoiding := rec.events()
	if len(obstacles) != 1 {
		t.Fatalf("expected exactly one obstacle response, got %+v", obstacles)
	}
	o := obstacles[0]
	if o.Blocked || o.Direction != actuator.Forward {
		t.Errorf("unexpected obstacle: %+v", o)
	}
	if math.Abs(o.Position-40) > 0.5 {
		t.Errorf("expected obstacle near 40mm, got %.2fmm", o.Position)
	}
	if o.Target >= o.Position || o.Target < 0 {
		t.Errorf("expected retraction target below %.2fmm and >= 0, got %.2fmm", o.Position, o.Target)
	}
	if math.Abs(o.Target-(o.Position-12)) > 1e-9 {
		t.Errorf("expected retraction by 12mm, got target %.2fmm from %.2fmm", o.Target, o.Position)
	}
	if !avoiding[0] {
		t.Error("expected avoiding to be set during the response")
	}

	if got := plant.Position(); math.Abs(got-100) > bandMM() {
		t.Errorf("expected to resume to 100mm, got %.2fmm", got)
	}
	assertStopped(t, a, plant)
}

func TestGoTo_ObstacleAtStartClampsToZero(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200, Start: 2})
	plant.AddObstacle(sim.Obstacle{At: 5, Forward: true})
	a, rec := newTestActuator(t, plant, 600, 5*time.Second)

	if err := a.GoTo(context.Background(), 50); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	obstacles, _ := rec.events()
	if len(obstacles) != 1 {
		t.Fatalf("expected one obstacle response, got %+v", obstacles)
	}
	if obstacles[0].Target != 0 {
		t.Errorf("expected retraction target clamped to 0, got %.2f", obstacles[0].Target)
	}
}

func TestGoTo_Blocked(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	plant.AddObstacle(sim.Obstacle{At: 40, Forward: true, Persistent: true})
	a, rec := newTestActuator(t, plant, 600, 5*time.Second)

	err := a.GoTo(context.Background(), 100)
	if !errors.Is(err, actuator.ErrBlocked) {
		t.Fatalf("expected ErrBlocked, got %v", err)
	}

	obstacles, avoiding := rec.events()
	if len(obstacles) != 2 {
		t.Fatalf("expected two obstacle responses, got %+v", obstacles)
	}
	if obstacles[0].Blocked || !obstacles[1].Blocked {
		t.Errorf("expected a retraction followed by a blocked stop, got %+v", obstacles)
	}
	if !avoiding[1] {
		t.Error("expected avoiding to stay set until the move returns")
	}

	pos := plant.Position()
	time.Sleep(20 * time.Millisecond)
	if plant.Position() != pos {
		t.Error("arm kept moving after a blocked stop")
	}
	assertStopped(t, a, plant)
}

func TestGoTo_MonitoringDisabled(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200, StallCurrent: 5000})
	a, rec := newTestActuator(t, plant, 0, 5*time.Second)

	if err := a.GoTo(context.Background(), 30); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obstacles, _ := rec.events(); len(obstacles) != 0 {
		t.Errorf("expected no obstacle handling, got %+v", obstacles)
	}
}

func TestGoTo_Timeout(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 0.01})
	a, _ := newTestActuator(t, plant, 600, 100*time.Millisecond)

	start := time.Now()
	err := a.GoTo(context.Background(), 150)
	if !errors.Is(err, actuator.ErrTimeout) {
		t.Fatalf("expected ErrTimeout, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("GoTo returned after %s, expected about 100ms", elapsed)
	}
	assertStopped(t, a, plant)
}

func TestGoTo_SensorFault(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	a, _ := newTestActuator(t, plant, 600, time.Second)
	plant.Fail()

	err := a.GoTo(context.Background(), 100)
	if !errors.Is(err, sim.ErrFault) {
		t.Fatalf("expected sensor fault, got %v", err)
	}
	if in1, in2 := plant.Outputs(); in1 || in2 {
		t.Error("expected outputs off after a sensor fault")
	}
}

func TestGoTo_Serialized(t *testing.T) {
	plant := sim.New(sim.Config{Length: length, Speed: 200})
	a, _ := newTestActuator(t, plant, 600, 5*time.Second)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i, target := range []float64{80, 20} {
		wg.Add(1)
		go func(i int, target float64) {
			defer wg.Done()
			errs[i] = a.GoTo(context.Background(), target)
		}(i, target)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Errorf("move %d: unexpected error: %v", i, err)
		}
	}
	assertStopped(t, a, plant)
}
