package fan

import (
	"log"
	"sync"

	"github.com/hjkoskel/govattu"
)

const (
	// 19.2MHz oscillator / 4 / 960 gives the 5kHz the fan expects.
	pwmClockDivisor = 4
	pwmRange        = 960
)

// PWM implements Fan using the hardware PWM0 channel.
type PWM struct {
	mu        sync.Mutex
	hw        govattu.Vattu
	pin       uint8
	dutyCycle int
	on        bool
}

// NewPWM creates a new PWM fan. The fan starts stopped.
func NewPWM(hw govattu.Vattu, pin uint8, dutyCycle int) (*PWM, error) {
	if err := checkDutyCycle(dutyCycle); err != nil {
		hw.Close()
		return nil, err
	}

	hw.PinMode(pin, govattu.ALT5) // ALT5 for PWM0
	hw.PwmSetMode(true, true, false, false)
	hw.PwmSetClock(pwmClockDivisor)
	hw.Pwm0SetRange(pwmRange)

	f := &PWM{
		hw:        hw,
		pin:       pin,
		dutyCycle: dutyCycle,
	}
	f.write(0)
	return f, nil
}

// SetDutyCycle implements Fan.SetDutyCycle.
func (f *PWM) SetDutyCycle(pct int) error {
	if err := checkDutyCycle(pct); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.dutyCycle = pct
	if f.on {
		f.write(pct)
	}
	return nil
}

// On implements Fan.On.
func (f *PWM) On() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.Printf("Fan: on at %d%%", f.dutyCycle)
	f.on = true
	f.write(f.dutyCycle)
	return nil
}

// Off implements Fan.Off.
func (f *PWM) Off() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	log.Println("Fan: off")
	f.on = false
	f.write(0)
	return nil
}

// Release implements Fan.Release.
func (f *PWM) Release() error {
	f.Off()
	return f.hw.Close()
}

func (f *PWM) write(pct int) {
	f.hw.Pwm0Set(uint32(pct * pwmRange / 100))
}
