// Package adxrs450 reads the ADXRS450 single-axis rate gyro over SPI and
// integrates its rate output into a heading.
package adxrs450

import (
	"context"
	"encoding/binary"
	"fmt"
	"math/bits"
	"sync"
	"time"

	"github.com/pkg/errors"
	"periph.io/x/periph/conn/physic"
	"periph.io/x/periph/conn/spi"
	"periph.io/x/periph/conn/spi/spireg"
	"periph.io/x/periph/host"
)

const (
	CmdSensorData = 0x20000000
	CmdRead       = 0x80000000

	RegPID = 0x0c
	// The upper byte of the part ID register.
	PartID = 0x52

	DegreesPerSecondPerLSB = 1.0 / 80.0

	DefaultPeriod = 5 * time.Millisecond
)

var ErrBadStatus = errors.New("adxrs450: sensor status not valid")

// Conn is the subset of spi.Conn that the driver needs.
type Conn interface {
	Tx(w, r []byte) error
}

type ADXRS450 struct {
	lock sync.Mutex
	conn Conn
	w, r [4]byte

	offset   float64
	angle    float64
	lastTime time.Time
	lastErr  error
}

func New(deviceFile string) (*ADXRS450, error) {
	// Make sure periph is initialized.
	if _, err := host.Init(); err != nil {
		return nil, errors.Wrap(err, "initialising periph")
	}

	p, err := spireg.Open(deviceFile)
	if err != nil {
		return nil, errors.Wrapf(err, "opening SPI port %s", deviceFile)
	}

	c, err := p.Connect(4*physic.MegaHertz, spi.Mode0, 8)
	if err != nil {
		return nil, errors.Wrapf(err, "connecting to SPI port %s", deviceFile)
	}
	return NewWithConn(c), nil
}

func NewWithConn(c Conn) *ADXRS450 {
	return &ADXRS450{conn: c}
}

// withParity sets bit 0 if needed to give the word odd parity.
func withParity(cmd uint32) uint32 {
	if bits.OnesCount32(cmd)%2 == 0 {
		cmd |= 1
	}
	return cmd
}

func (g *ADXRS450) transfer(cmd uint32) (uint32, error) {
	binary.BigEndian.PutUint32(g.w[:], withParity(cmd))
	if err := g.conn.Tx(g.w[:], g.r[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(g.r[:]), nil
}

// DecodeRate extracts the rate in LSBs from a sensor data response.
func DecodeRate(resp uint32) (int16, error) {
	if resp&0x0c000000 != 0x04000000 {
		return 0, ErrBadStatus
	}
	return int16(resp >> 10), nil
}

func (g *ADXRS450) readRegister(reg uint8) (uint16, error) {
	// The response to a read arrives with the next command.
	if _, err := g.transfer(CmdRead | uint32(reg)<<17); err != nil {
		return 0, err
	}
	resp, err := g.transfer(CmdRead | uint32(reg)<<17)
	if err != nil {
		return 0, err
	}
	return uint16(resp >> 5), nil
}

// Probe checks that an ADXRS450 is answering.
func (g *ADXRS450) Probe() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	pid, err := g.readRegister(RegPID)
	if err != nil {
		return errors.Wrap(err, "reading part ID")
	}
	if pid>>8 != PartID {
		return errors.Errorf("adxrs450: unexpected part ID %#04x", pid)
	}
	return nil
}

// ReadRate returns the raw rotation rate in degrees per second.
func (g *ADXRS450) ReadRate() (float64, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.readRateLocked()
}

func (g *ADXRS450) readRateLocked() (float64, error) {
	resp, err := g.transfer(CmdSensorData)
	if err != nil {
		return 0, err
	}
	lsb, err := DecodeRate(resp)
	if err != nil {
		return 0, err
	}
	return float64(lsb) * DegreesPerSecondPerLSB, nil
}

// Calibrate averages n rate samples with the robot held still and uses the
// result as the zero-rate offset.
func (g *ADXRS450) Calibrate(n int, interval time.Duration) error {
	if n <= 0 {
		return errors.Errorf("calibrating gyro: need at least one sample, got %d", n)
	}
	fmt.Println("HW: Calibrating gyro")
	var sum float64
	for i := 0; i < n; i++ {
		r, err := g.ReadRate()
		if err != nil {
			return errors.Wrap(err, "calibrating gyro")
		}
		sum += r
		time.Sleep(interval)
	}
	g.lock.Lock()
	g.offset = sum / float64(n)
	g.angle = 0
	g.lastTime = time.Time{}
	g.lock.Unlock()
	fmt.Printf("HW: Gyro offset %.4f deg/s\n", g.offset)
	return nil
}

// Sample reads the rate once and integrates it up to now.
func (g *ADXRS450) Sample(now time.Time) error {
	g.lock.Lock()
	defer g.lock.Unlock()
	rate, err := g.readRateLocked()
	g.lastErr = err
	if err != nil {
		return err
	}
	if !g.lastTime.IsZero() {
		dt := now.Sub(g.lastTime).Seconds()
		g.angle += (rate - g.offset) * dt
	}
	g.lastTime = now
	return nil
}

// Run samples the gyro every period until the context is cancelled.
func (g *ADXRS450) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			_ = g.Sample(now)
		}
	}
}

// Angle returns the integrated heading in degrees since the last Reset.  If
// the most recent sample failed, that error is returned instead.
func (g *ADXRS450) Angle() (float64, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.lastErr != nil {
		return 0, g.lastErr
	}
	return g.angle, nil
}

func (g *ADXRS450) Reset() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.angle = 0
	return nil
}
