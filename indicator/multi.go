package indicator

// Multi combines multiple Indicator implementations.
type Multi struct {
	indicators []Indicator
}

// NewMulti combines the given indicators.
func NewMulti(indicators ...Indicator) *Multi {
	return &Multi{indicators: indicators}
}

// Closed implements Indicator.Closed.
func (m *Multi) Closed() {
	for _, ind := range m.indicators {
		ind.Closed()
	}
}

// Opening implements Indicator.Opening.
func (m *Multi) Opening() {
	for _, ind := range m.indicators {
		ind.Opening()
	}
}

// Open implements Indicator.Open.
func (m *Multi) Open() {
	for _, ind := range m.indicators {
		ind.Open()
	}
}

// Closing implements Indicator.Closing.
func (m *Multi) Closing() {
	for _, ind := range m.indicators {
		ind.Closing()
	}
}

// Fault implements Indicator.Fault.
func (m *Multi) Fault(reason string) {
	for _, ind := range m.indicators {
		ind.Fault(reason)
	}
}

// ConnectionLost implements Indicator.ConnectionLost.
func (m *Multi) ConnectionLost() {
	for _, ind := range m.indicators {
		ind.ConnectionLost()
	}
}

// Shutdown implements Indicator.Shutdown.
func (m *Multi) Shutdown() {
	for _, ind := range m.indicators {
		ind.Shutdown()
	}
}

// Release implements Indicator.Release.
func (m *Multi) Release() error {
	var lastErr error
	for _, ind := range m.indicators {
		if err := ind.Release(); err != nil {
			lastErr = err
		}
	}
	return lastErr
}
