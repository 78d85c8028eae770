package eventpipe

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"strconv"
	"strings"
	"syscall"
)

// Command names accepted on the pipe.
const (
	CmdOpen   = "open"
	CmdClose  = "close"
	CmdToggle = "toggle"
	CmdTarget = "target"
	CmdFan    = "fan"
)

// Command is one parsed pipe line.
type Command struct {
	Name  string
	Value float64 // argument of target (mm) and fan (%)
}

// Config holds configuration for the event pipe.
type Config struct {
	Path string `yaml:"path"` // Path to named pipe (e.g., "/tmp/cabinetd-events")
}

// EventHandler is called when a command is received from the pipe.
type EventHandler func(Command)

// EventPipe listens for events on a named pipe.
type EventPipe struct {
	path    string
	handler EventHandler
	ctx     context.Context
	cancel  context.CancelFunc
}

// New creates a new EventPipe. Returns nil if path is empty.
func New(cfg Config, handler EventHandler) (*EventPipe, error) {
	if cfg.Path == "" {
		return nil, nil
	}

	// Remove existing pipe if it exists
	os.Remove(cfg.Path)

	// Create the named pipe
	if err := syscall.Mkfifo(cfg.Path, 0666); err != nil {
		return nil, fmt.Errorf("create named pipe %s: %w", cfg.Path, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	ep := &EventPipe{
		path:    cfg.Path,
		handler: handler,
		ctx:     ctx,
		cancel:  cancel,
	}

	return ep, nil
}

// Start begins listening for commands on the pipe.
// This should be called as a goroutine.
func (ep *EventPipe) Start() {
	log.Printf("Event pipe listening on %s", ep.path)

	for {
		select {
		case <-ep.ctx.Done():
			return
		default:
		}

		// Open pipe for reading (blocks until writer connects, Close wakes it)
		file, err := os.OpenFile(ep.path, os.O_RDONLY, 0)
		if err != nil {
			if ep.ctx.Err() != nil {
				return
			}
			log.Printf("Event pipe open error: %v", err)
			continue
		}

		scanner := bufio.NewScanner(file)
		for scanner.Scan() {
			select {
			case <-ep.ctx.Done():
				file.Close()
				return
			default:
			}

			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}

			cmd, err := parseLine(line)
			if err != nil {
				log.Printf("Event pipe parse error: %v", err)
				continue
			}

			if ep.handler != nil {
				ep.handler(cmd)
			}
		}

		file.Close()
		// Writer closed the pipe, loop back to wait for next writer
	}
}

// Close stops the event pipe listener and removes the pipe.
func (ep *EventPipe) Close() error {
	ep.cancel()
	// Wake a listener blocked in open.
	if f, err := os.OpenFile(ep.path, os.O_WRONLY|syscall.O_NONBLOCK, 0); err == nil {
		f.Close()
	}
	return os.Remove(ep.path)
}

// parseLine parses a command line into a Command.
// Command format:
//
//	open                            - Open the cabinet
//	close                           - Close the cabinet
//	toggle                          - Close if open, open otherwise
//	target <mm>                     - Store a new open position
//	fan <percent>                   - Store a new fan duty cycle
func parseLine(line string) (Command, error) {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Command{}, fmt.Errorf("empty command")
	}

	cmd := strings.ToLower(parts[0])

	switch cmd {
	case CmdOpen, CmdClose, CmdToggle:
		return Command{Name: cmd}, nil

	case "on":
		return Command{Name: CmdOpen}, nil

	case "off":
		return Command{Name: CmdClose}, nil

	case CmdTarget:
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("target requires millimeters")
		}
		mm, err := strconv.ParseFloat(parts[1], 64)
		if err != nil || math.IsNaN(mm) {
			return Command{}, fmt.Errorf("invalid target: %s", parts[1])
		}
		return Command{Name: CmdTarget, Value: mm}, nil

	case CmdFan:
		if len(parts) < 2 {
			return Command{}, fmt.Errorf("fan requires a duty cycle")
		}
		pct, err := strconv.Atoi(strings.TrimSuffix(parts[1], "%"))
		if err != nil {
			return Command{}, fmt.Errorf("invalid duty cycle: %s", parts[1])
		}
		return Command{Name: CmdFan, Value: float64(pct)}, nil

	default:
		return Command{}, fmt.Errorf("unknown command: %s", cmd)
	}
}
