package power

import "sync/atomic"

// Noop implements Switch but only remembers its state.
// Used when no USB line is configured.
type Noop struct {
	on atomic.Bool
}

// On implements Switch.On.
func (n *Noop) On() error {
	n.on.Store(true)
	return nil
}

// Off implements Switch.Off.
func (n *Noop) Off() error {
	n.on.Store(false)
	return nil
}

// IsOn implements Switch.IsOn.
func (n *Noop) IsOn() bool {
	return n.on.Load()
}

// Release implements Switch.Release.
func (n *Noop) Release() error {
	return nil
}
