// Package sensor reads the actuator position and motor current from the
// microcontroller bridge attached over a serial line.
//
// The bridge streams one line per sample:
//
//	P<raw position, 0-65535> C<motor current in mA> [R<projector current in A>]
package sensor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/tarm/serial"
)

var (
	// ErrStale is returned when the bridge has not reported a sample recently.
	ErrStale = errors.New("no recent sample from sensor bridge")

	// ErrClosed is returned once the serial line is gone.
	ErrClosed = errors.New("sensor bridge closed")
)

// Config holds configuration for the serial bridge.
type Config struct {
	Device string        `yaml:"device"`  // e.g., "/dev/ttyACM0"
	Baud   int           `yaml:"baud"`    // default 115200
	MaxAge time.Duration `yaml:"max_age"` // samples older than this are rejected (default 250ms)
}

// Sample is one decoded bridge line.
type Sample struct {
	Position         uint16
	Current          float64 // mA
	ProjectorCurrent float64 // A, zero when not reported
	HasProjector     bool
}

// Bridge keeps the latest sample streamed by the bridge.
type Bridge struct {
	port   io.ReadCloser
	maxAge time.Duration
	now    func() time.Time

	mu     sync.Mutex
	latest Sample
	at     time.Time
	err    error
}

// Open opens the serial device.
func Open(cfg Config) (*Bridge, error) {
	if cfg.Baud == 0 {
		cfg.Baud = 115200
	}
	c := &serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: 100 * time.Millisecond,
	}
	port, err := serial.OpenPort(c)
	if err != nil {
		return nil, fmt.Errorf("open serial %s: %w", cfg.Device, err)
	}
	log.Printf("Sensor: bridge on %s at %d baud", cfg.Device, cfg.Baud)
	return NewBridge(port, cfg.MaxAge), nil
}

// NewBridge creates a Bridge reading from port.
func NewBridge(port io.ReadCloser, maxAge time.Duration) *Bridge {
	if maxAge <= 0 {
		maxAge = 250 * time.Millisecond
	}
	return &Bridge{
		port:   port,
		maxAge: maxAge,
		now:    time.Now,
	}
}

// Run reads lines until ctx is cancelled or the port fails.
// This should be called as a goroutine.
func (b *Bridge) Run(ctx context.Context) error {
	buf := make([]byte, 256)
	var pending []byte

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		n, err := b.port.Read(buf)
		if err != nil && !errors.Is(err, io.EOF) {
			b.fail(err)
			return fmt.Errorf("read bridge: %w", err)
		}
		// EOF with no data is the read timeout
		if n == 0 {
			continue
		}

		pending = append(pending, buf[:n]...)
		for {
			i := bytes.IndexByte(pending, '\n')
			if i < 0 {
				break
			}
			line := strings.TrimSpace(string(pending[:i]))
			pending = pending[i+1:]
			if line == "" {
				continue
			}

			s, err := ParseLine(line)
			if err != nil {
				log.Printf("Sensor: %v", err)
				continue
			}
			b.store(s)
		}

		// A runaway line without terminator is garbage.
		if len(pending) > 1024 {
			pending = pending[:0]
		}
	}
}

func (b *Bridge) store(s Sample) {
	b.mu.Lock()
	b.latest = s
	b.at = b.now()
	b.mu.Unlock()
}

func (b *Bridge) fail(err error) {
	b.mu.Lock()
	b.err = err
	b.mu.Unlock()
}

// Latest returns the most recent sample if it is fresh.
func (b *Bridge) Latest() (Sample, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.err != nil {
		return Sample{}, fmt.Errorf("%w: %v", ErrClosed, b.err)
	}
	if b.at.IsZero() || b.now().Sub(b.at) > b.maxAge {
		return Sample{}, ErrStale
	}
	return b.latest, nil
}

// ReadU16 returns the raw position reading.
func (b *Bridge) ReadU16() (uint16, error) {
	s, err := b.Latest()
	if err != nil {
		return 0, err
	}
	return s.Position, nil
}

// Current returns the motor current in mA.
func (b *Bridge) Current() (float64, error) {
	s, err := b.Latest()
	if err != nil {
		return 0, err
	}
	return s.Current, nil
}

// ProjectorCurrent returns the projector supply current in A.
func (b *Bridge) ProjectorCurrent() (float64, error) {
	s, err := b.Latest()
	if err != nil {
		return 0, err
	}
	if !s.HasProjector {
		return 0, errors.New("bridge does not report projector current")
	}
	return s.ProjectorCurrent, nil
}

// Close closes the serial port.
func (b *Bridge) Close() error {
	if b.port == nil {
		return nil
	}
	return b.port.Close()
}

// ParseLine decodes one bridge line.
func ParseLine(line string) (Sample, error) {
	var s Sample
	var havePos, haveCur bool

	for _, field := range strings.Fields(line) {
		if len(field) < 2 {
			return Sample{}, fmt.Errorf("bad field %q in %q", field, line)
		}
		value := field[1:]
		switch field[0] {
		case 'P':
			v, err := strconv.ParseUint(value, 10, 16)
			if err != nil {
				return Sample{}, fmt.Errorf("bad position in %q: %w", line, err)
			}
			s.Position, havePos = uint16(v), true
		case 'C':
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Sample{}, fmt.Errorf("bad current in %q: %w", line, err)
			}
			s.Current, haveCur = v, true
		case 'R':
			v, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return Sample{}, fmt.Errorf("bad projector current in %q: %w", line, err)
			}
			s.ProjectorCurrent, s.HasProjector = v, true
		default:
			return Sample{}, fmt.Errorf("unknown field %q in %q", field, line)
		}
	}

	if !havePos || !haveCur {
		return Sample{}, fmt.Errorf("incomplete sample %q", line)
	}
	return s, nil
}
