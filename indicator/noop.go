package indicator

// Noop implements Indicator but does nothing.
// Used when no indicators are configured.
type Noop struct{}

// Closed implements Indicator.Closed.
func (n *Noop) Closed() {}

// Opening implements Indicator.Opening.
func (n *Noop) Opening() {}

// Open implements Indicator.Open.
func (n *Noop) Open() {}

// Closing implements Indicator.Closing.
func (n *Noop) Closing() {}

// Fault implements Indicator.Fault.
func (n *Noop) Fault(reason string) {}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Noop) ConnectionLost() {}

// Shutdown implements Indicator.Shutdown.
func (n *Noop) Shutdown() {}

// Release implements Indicator.Release.
func (n *Noop) Release() error {
	return nil
}
