// Package pca9685 drives PWM motor controllers (VictorSP and friends) from a
// PCA9685 16-channel PWM board on I2C.
package pca9685

import (
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"
)

const (
	DefaultAddr = 0x40

	RegMode1 = 0x00
	RegMode2 = 0x01

	// Each PWM output has two 16-bit (low byte first) registers.
	// First register is the on time, second is the off time.
	RegLEDBase = 0x06

	RegPreScale = 0xfe // Pre-scaler for PWM frequency.

	NumChannels = 16

	PWMPeriod = 20 * time.Millisecond
	PWMMax    = 4095

	// Pulse widths understood by a VictorSP: full reverse, neutral and full
	// forward.
	ReversePulse = 1000 * time.Microsecond
	NeutralPulse = 1500 * time.Microsecond
	ForwardPulse = 2000 * time.Microsecond
)

// Device is the subset of an I2C device the driver uses.
type Device interface {
	WriteReg(reg byte, buf []byte) error
	Close() error
}

type PCA9685 struct {
	lock sync.Mutex
	dev  Device
}

func New(deviceFile string) (*PCA9685, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, DefaultAddr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening PCA9685 on %s", deviceFile)
	}
	return NewWithDevice(dev), nil
}

func NewWithDevice(dev Device) *PCA9685 {
	return &PCA9685{dev: dev}
}

func (p *PCA9685) Configure() (err error) {
	p.lock.Lock()
	defer p.lock.Unlock()
	// Put device to sleep.
	err = p.dev.WriteReg(RegMode1, []byte{0x11})
	if err != nil {
		return
	}
	// Update pre-scaler for 50Hz.
	err = p.dev.WriteReg(RegPreScale, []byte{0x79})
	if err != nil {
		return
	}
	// Trigger a reset
	err = p.dev.WriteReg(RegMode1, []byte{0x01})
	if err != nil {
		return
	}
	// Required delay after reset.
	time.Sleep(1 * time.Millisecond)
	// Enable, with register auto-increment.
	err = p.dev.WriteReg(RegMode1, []byte{0xa1})
	return
}

// PulseFor maps a speed in [-1, 1] to the controller pulse width.  NaN is
// neutral.
func PulseFor(speed float64) time.Duration {
	if math.IsNaN(speed) {
		return NeutralPulse
	}
	if speed < -1 {
		speed = -1
	} else if speed > 1 {
		speed = 1
	}
	halfRange := float64(ForwardPulse-NeutralPulse)
	return NeutralPulse + time.Duration(speed*halfRange)
}

func (p *PCA9685) SetPulse(channel int, pulse time.Duration) error {
	if channel < 0 || channel >= NumChannels {
		return errors.Errorf("PWM channel out of range: %d", channel)
	}
	pwmValue := uint16(PWMMax * pulse / PWMPeriod)
	addr := RegLEDBase + channel*4

	p.lock.Lock()
	defer p.lock.Unlock()
	return p.dev.WriteReg(byte(addr), []byte{0, 0, byte(pwmValue & 0xff), byte(pwmValue >> 8)})
}

func (p *PCA9685) SetSpeed(channel int, speed float64) error {
	return p.SetPulse(channel, PulseFor(speed))
}

// Neutral puts every channel at the stop pulse.
func (p *PCA9685) Neutral() error {
	var firstErr error
	for ch := 0; ch < NumChannels; ch++ {
		if err := p.SetSpeed(ch, 0); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (p *PCA9685) Close() error {
	return p.dev.Close()
}

// Motor is one motor controller on one channel.
type Motor struct {
	Board    *PCA9685
	Channel  int
	Inverted bool
}

func (m *Motor) SetSpeed(speed float64) error {
	if m.Inverted {
		speed = -speed
	}
	return m.Board.SetSpeed(m.Channel, speed)
}

// Group drives several motors with the same speed, e.g. both motors on one
// side of the drive train.
type Group []*Motor

func (g Group) SetSpeed(speed float64) error {
	var firstErr error
	for _, m := range g {
		if err := m.SetSpeed(speed); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
