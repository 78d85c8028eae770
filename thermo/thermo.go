// Package thermo reads the cabinet temperature from a DS18B20 sensor
// exposed by the Linux 1-wire driver.
package thermo

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Invalid is reported when no valid reading could be taken.
const Invalid = -127.0

var (
	// ErrNoDevice is returned when no sensor is found on the bus.
	ErrNoDevice = errors.New("no DS18B20 sensor found")

	// ErrCRC is returned when the sensor reports a bad checksum.
	ErrCRC = errors.New("DS18B20 checksum mismatch")
)

// Sensor is the interface for temperature sources.
type Sensor interface {
	// Temperature returns degrees Celsius, or Invalid when the sensor can't be read.
	Temperature(ctx context.Context) float64
}

// Config holds configuration for the 1-wire sensor.
type Config struct {
	BusDir  string        `yaml:"bus_dir"` // default "/sys/bus/w1/devices"
	Device  string        `yaml:"device"`  // e.g. "28-0316a2795bff"; first 28-* device if empty
	Retries int           `yaml:"retries"` // attempts per reading (default 3)
	Delay   time.Duration `yaml:"delay"`   // pause between attempts (default 750ms, one conversion)
}

// OneWire implements Sensor on top of the w1_slave sysfs file.
type OneWire struct {
	busDir  string
	device  string
	retries int
	delay   time.Duration
}

// New creates a OneWire sensor.
func New(cfg Config) *OneWire {
	if cfg.BusDir == "" {
		cfg.BusDir = "/sys/bus/w1/devices"
	}
	if cfg.Retries <= 0 {
		cfg.Retries = 3
	}
	if cfg.Delay <= 0 {
		cfg.Delay = 750 * time.Millisecond
	}
	return &OneWire{
		busDir:  cfg.BusDir,
		device:  cfg.Device,
		retries: cfg.Retries,
		delay:   cfg.Delay,
	}
}

// Temperature implements Sensor.
func (o *OneWire) Temperature(ctx context.Context) float64 {
	var err error
	for i := 0; i < o.retries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				log.Printf("Thermo: %v", ctx.Err())
				return Invalid
			case <-time.After(o.delay):
			}
		}

		var t float64
		t, err = o.read()
		if err == nil {
			return t
		}
	}
	log.Printf("Thermo: giving up after %d attempts: %v", o.retries, err)
	return Invalid
}

func (o *OneWire) read() (float64, error) {
	path, err := o.path()
	if err != nil {
		return 0, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return parse(string(data))
}

func (o *OneWire) path() (string, error) {
	if o.device != "" {
		return filepath.Join(o.busDir, o.device, "w1_slave"), nil
	}
	matches, err := filepath.Glob(filepath.Join(o.busDir, "28-*", "w1_slave"))
	if err != nil {
		return "", err
	}
	if len(matches) == 0 {
		return "", ErrNoDevice
	}
	return matches[0], nil
}

// parse decodes the two line w1_slave format:
//
//	72 01 4b 46 7f ff 0e 10 57 : crc=57 YES
//	72 01 4b 46 7f ff 0e 10 57 t=23125
func parse(data string) (float64, error) {
	lines := strings.Split(strings.TrimSpace(data), "\n")
	if len(lines) < 2 {
		return 0, fmt.Errorf("short reading %q", data)
	}
	if !strings.HasSuffix(strings.TrimSpace(lines[0]), "YES") {
		return 0, ErrCRC
	}

	i := strings.LastIndex(lines[1], "t=")
	if i < 0 {
		return 0, fmt.Errorf("no temperature in %q", lines[1])
	}
	milli, err := strconv.Atoi(strings.TrimSpace(lines[1][i+2:]))
	if err != nil {
		return 0, fmt.Errorf("parse temperature: %w", err)
	}
	// 85C is the power-on reset value, not a measurement.
	if milli == 85000 {
		return 0, errors.New("sensor returned power-on value")
	}
	return float64(milli) / 1000, nil
}

// Fixed implements Sensor with a constant value.
type Fixed float64

// Temperature implements Sensor.
func (f Fixed) Temperature(ctx context.Context) float64 {
	return float64(f)
}
