//go:build !linux

package trigger

// Knob is a stub for non-linux platforms.
type Knob struct{}

// NewKnob returns an error on non-linux platforms if the knob is configured.
func NewKnob(cfg KnobConfig, onTurn func(deltaMM float64), onPress func()) (*Knob, error) {
	if cfg.CLKPin == nil || cfg.DTPin == nil {
		return nil, nil
	}
	return nil, ErrNotSupported
}

// Release is a no-op.
func (k *Knob) Release() error { return nil }
