package trigger

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/kenshaw/evdev"
)

// Remote watches an input device for the trigger key.
type Remote struct {
	device  *evdev.Evdev
	key     evdev.KeyType
	onPress func()
	last    time.Time
	repeat  time.Duration
}

// NewRemote opens the input device. Returns nil if no device is configured.
func NewRemote(cfg RemoteConfig, onPress func()) (*Remote, error) {
	if cfg.Device == "" {
		return nil, nil
	}

	dev, err := evdev.OpenFile(cfg.Device)
	if err != nil {
		return nil, fmt.Errorf("open evdev %s: %w", cfg.Device, err)
	}

	log.Printf("Trigger: remote %s", dev.Name())
	log.Printf("Vendor: 0x%04x, Product: 0x%04x", dev.ID().Vendor, dev.ID().Product)

	var key evdev.KeyType = evdev.KeyEnter
	if cfg.KeyCode != 0 {
		key = evdev.KeyType(cfg.KeyCode)
	}

	return &Remote{
		device:  dev,
		key:     key,
		onPress: onPress,
		repeat:  time.Second,
	}, nil
}

// Run delivers key presses until ctx is cancelled.
// This should be called as a goroutine.
func (r *Remote) Run(ctx context.Context) error {
	ch := r.device.Poll(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event := <-ch:
			if event == nil {
				return fmt.Errorf("remote device closed")
			}

			switch event.Type.(type) {
			case evdev.KeyType:
				if event.Value != 1 || event.Type != r.key {
					continue
				}
				// IR remotes repeat a held key.
				if now := time.Now(); now.Sub(r.last) > r.repeat {
					r.last = now
					log.Println("Trigger: remote key pressed")
					if r.onPress != nil {
						go r.onPress()
					}
				}
			}
		}
	}
}

// Close releases the input device.
func (r *Remote) Close() error {
	if r == nil || r.device == nil {
		return nil
	}
	return r.device.Close()
}
