package indicator

import (
	"fmt"
	"io"
	"os"
	"sync"
)

// Neopixel command strings for the external neopixel tool.
const (
	neoConnectionLost = "@2 !150000 001010"
	neoClosed         = "@3 !150000 000040"
	neoMoving         = "@1 !50000 806000"
	neoOpen           = "@0 008000"
	neoFault          = "@2 !10000 ff"
	neoTerminated     = "@0 010101"
)

// Neopixel implements Indicator using an external neopixel tool via named pipe.
type Neopixel struct {
	mu   sync.Mutex
	pipe io.WriteCloser
}

// NewNeopixel creates a new Neopixel indicator.
func NewNeopixel(pipePath string) (*Neopixel, error) {
	f, err := os.OpenFile(pipePath, os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("open neopixel pipe %s: %w", pipePath, err)
	}
	return &Neopixel{pipe: f}, nil
}

// Closed implements Indicator.Closed.
func (n *Neopixel) Closed() {
	n.write(neoClosed)
}

// Opening implements Indicator.Opening.
func (n *Neopixel) Opening() {
	n.write(neoMoving)
}

// Open implements Indicator.Open.
func (n *Neopixel) Open() {
	n.write(neoOpen)
}

// Closing implements Indicator.Closing.
func (n *Neopixel) Closing() {
	n.write(neoMoving)
}

// Fault implements Indicator.Fault.
func (n *Neopixel) Fault(reason string) {
	n.write(neoFault)
}

// ConnectionLost implements Indicator.ConnectionLost.
func (n *Neopixel) ConnectionLost() {
	n.write(neoConnectionLost)
}

// Shutdown implements Indicator.Shutdown.
func (n *Neopixel) Shutdown() {
	n.write(neoTerminated)
}

// Release implements Indicator.Release.
func (n *Neopixel) Release() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe == nil {
		return nil
	}
	err := n.pipe.Close()
	n.pipe = nil
	return err
}

func (n *Neopixel) write(s string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.pipe != nil {
		n.pipe.Write([]byte(s))
	}
}
