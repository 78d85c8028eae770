//go:build !screen

package indicator

import (
	"cabinetd/video"
)

// NewVideo returns an error when screen support is not compiled in.
func NewVideo(cfg video.Config) (*VideoIndicator, error) {
	return nil, video.ErrScreenNotCompiled
}

// VideoIndicator is a stub when screen support is not compiled in.
type VideoIndicator struct{}

func (vi *VideoIndicator) Closed()             {}
func (vi *VideoIndicator) Opening()            {}
func (vi *VideoIndicator) Open()               {}
func (vi *VideoIndicator) Closing()            {}
func (vi *VideoIndicator) Fault(reason string) {}
func (vi *VideoIndicator) ConnectionLost()     {}
func (vi *VideoIndicator) Shutdown()           {}
func (vi *VideoIndicator) Release() error      { return nil }
