//go:build screen

package indicator

import (
	"cabinetd/video"
)

// VideoIndicator wraps the video.Display type to implement Indicator.
type VideoIndicator struct {
	v *video.Display
}

// NewVideo creates a new video-based indicator.
func NewVideo(cfg video.Config) (*VideoIndicator, error) {
	v, err := video.New(cfg)
	if err != nil {
		return nil, err
	}
	return &VideoIndicator{v: v}, nil
}

// Closed implements Indicator.Closed.
func (vi *VideoIndicator) Closed() {
	vi.v.Show(video.StatusClosed)
}

// Opening implements Indicator.Opening.
func (vi *VideoIndicator) Opening() {
	vi.v.Show(video.StatusOpening)
}

// Open implements Indicator.Open.
func (vi *VideoIndicator) Open() {
	vi.v.Show(video.StatusOpen)
}

// Closing implements Indicator.Closing.
func (vi *VideoIndicator) Closing() {
	vi.v.Show(video.StatusClosing)
}

// Fault implements Indicator.Fault.
func (vi *VideoIndicator) Fault(reason string) {
	vi.v.Show(video.Fault(reason))
}

// ConnectionLost implements Indicator.ConnectionLost.
func (vi *VideoIndicator) ConnectionLost() {
	vi.v.Show(video.StatusConnectionLost)
}

// Shutdown implements Indicator.Shutdown.
func (vi *VideoIndicator) Shutdown() {
	vi.v.Clear()
}

// Release implements Indicator.Release.
func (vi *VideoIndicator) Release() error {
	return vi.v.Release()
}

// Display returns the underlying video.Display for direct access.
func (vi *VideoIndicator) Display() *video.Display {
	return vi.v
}
