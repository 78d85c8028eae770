//go:build !linux

package trigger

import "errors"

var ErrNotSupported = errors.New("GPIO triggers not supported on this platform")

// Button is a stub for non-linux platforms.
type Button struct{}

// NewButton returns an error on non-linux platforms.
func NewButton(cfg ButtonConfig, onPress func()) (*Button, error) {
	if cfg.Pin == nil {
		return nil, nil
	}
	return nil, ErrNotSupported
}

func (b *Button) Release() error { return nil }
