package actuator

import (
	"context"
	"fmt"
	"time"
)

// MaxADCValue is the full scale of the 16-bit position reading.
const MaxADCValue = 1 << 16

// ADC is a raw 16-bit analog input.
type ADC interface {
	ReadU16() (uint16, error)
}

// ADCFromPosition converts an arm extension in millimetres to ADC units.
func ADCFromPosition(position, length float64) float64 {
	return position / length * MaxADCValue
}

// PositionFromADC converts a raw ADC reading to an arm extension in millimetres.
func PositionFromADC(reading, length float64) float64 {
	return reading / MaxADCValue * length
}

// PositionSensor wraps the position potentiometer of the actuator.
type PositionSensor struct {
	adc      ADC
	length   float64
	interval time.Duration
}

// NewPositionSensor creates a sensor for an actuator of the given length (mm)
// that polls the ADC every interval while waiting.
func NewPositionSensor(adc ADC, length float64, interval time.Duration) *PositionSensor {
	if interval <= 0 {
		interval = 10 * time.Millisecond
	}
	return &PositionSensor{adc: adc, length: length, interval: interval}
}

// Raw returns the raw ADC reading.
func (s *PositionSensor) Raw() (uint16, error) {
	v, err := s.adc.ReadU16()
	if err != nil {
		return 0, fmt.Errorf("read position: %w", err)
	}
	return v, nil
}

// Position returns the current extension in millimetres.
func (s *PositionSensor) Position() (float64, error) {
	v, err := s.Raw()
	if err != nil {
		return 0, err
	}
	return PositionFromADC(float64(v), s.length), nil
}

// WaitInRange blocks until the raw reading is within [low, high].
// It returns ctx.Err() once ctx is cancelled and does not read again after that.
func (s *PositionSensor) WaitInRange(ctx context.Context, low, high float64) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		v, err := s.Raw()
		if err != nil {
			return err
		}
		if r := float64(v); r >= low && r <= high {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
