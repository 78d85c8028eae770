package video

import (
	"errors"
	"fmt"
)

// ErrScreenNotCompiled is returned for displays in binaries built without the screen tag.
var ErrScreenNotCompiled = errors.New("video: binary built without the screen tag")

// Status is one full screen message.
type Status struct {
	Title      string
	Detail     string
	Background [3]float64 // RGB, 0-1
	Foreground [3]float64
}

var (
	StatusClosed         = Status{Title: "Closed", Background: [3]float64{0, 0, 0.3}, Foreground: [3]float64{1, 1, 1}}
	StatusOpening        = Status{Title: "Opening...", Background: [3]float64{0.7, 0.7, 0}, Foreground: [3]float64{0, 0, 0}}
	StatusOpen           = Status{Title: "Open", Background: [3]float64{0, 0.5, 0}, Foreground: [3]float64{1, 1, 1}}
	StatusClosing        = Status{Title: "Closing...", Background: [3]float64{0.7, 0.7, 0}, Foreground: [3]float64{0, 0, 0}}
	StatusConnectionLost = Status{Title: "Connection Lost", Background: [3]float64{0.5, 0.3, 0}, Foreground: [3]float64{1, 1, 1}}
)

// Fault is shown when a move did not complete.
func Fault(reason string) Status {
	return Status{
		Title:      "Fault",
		Detail:     reason,
		Background: [3]float64{0.7, 0, 0},
		Foreground: [3]float64{1, 1, 1},
	}
}

// WithTemperature adds the cabinet temperature as detail line.
func (s Status) WithTemperature(celsius float64) Status {
	if s.Detail == "" {
		s.Detail = fmt.Sprintf("%.1f°C", celsius)
	}
	return s
}
