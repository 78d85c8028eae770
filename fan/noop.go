package fan

import "sync"

// Noop implements Fan but only remembers its state.
// Used when no fan is configured and in simulation.
type Noop struct {
	mu        sync.Mutex
	dutyCycle int
	on        bool
}

// NewNoop creates a Noop fan with the given duty cycle.
func NewNoop(dutyCycle int) *Noop {
	return &Noop{dutyCycle: dutyCycle}
}

// SetDutyCycle implements Fan.SetDutyCycle.
func (n *Noop) SetDutyCycle(pct int) error {
	if err := checkDutyCycle(pct); err != nil {
		return err
	}
	n.mu.Lock()
	n.dutyCycle = pct
	n.mu.Unlock()
	return nil
}

// On implements Fan.On.
func (n *Noop) On() error {
	n.mu.Lock()
	n.on = true
	n.mu.Unlock()
	return nil
}

// Off implements Fan.Off.
func (n *Noop) Off() error {
	n.mu.Lock()
	n.on = false
	n.mu.Unlock()
	return nil
}

// State returns whether the fan is running and at which duty cycle.
func (n *Noop) State() (bool, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.on, n.dutyCycle
}

// Release implements Fan.Release.
func (n *Noop) Release() error {
	return nil
}
