// Package bno08x reads yaw from a BNO08x IMU running in UART-RVC mode and
// presents it as a heading gyro: a continuous angle relative to the last
// reset, without the ±180 wrap.
package bno08x

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.bug.st/serial"

	"github.com/team5957/oki/pkg/angle"
)

const DefaultDevice = "/dev/ttyAMA0"

const ReportFrequency = 100
const ReportInterval = time.Second / ReportFrequency

// StaleAfter is how long the gyro waits for a report before Angle starts
// returning ErrStale.
const StaleAfter = 250 * time.Millisecond

const packetLen = 19

var (
	ErrNoReports   = errors.New("bno08x: no reports received yet")
	ErrStale       = errors.New("bno08x: reports stopped")
	ErrBadChecksum = errors.New("bno08x: bad checksum")
	ErrLostSync    = errors.New("bno08x: lost sync")
)

var header = []byte{0xaa, 0xaa}

type Report struct {
	Time  time.Time
	Index uint8
	Yaw   int16
	Pitch int16
	Roll  int16
}

func (r Report) YawDegrees() float64 {
	return float64(r.Yaw) / 100.0
}

func (r Report) String() string {
	return fmt.Sprintf("[%02x] Y:%7.2f P:%7.2f R:%7.2f", r.Index,
		r.YawDegrees(), float64(r.Pitch)/100.0, float64(r.Roll)/100.0)
}

// DecodePacket parses one 19 byte RVC packet, header included.
func DecodePacket(buf []byte) (Report, error) {
	if len(buf) != packetLen || !bytes.Equal(buf[:2], header) {
		return Report{}, ErrLostSync
	}
	var checksum uint8
	for _, b := range buf[2 : packetLen-1] {
		checksum += b
	}
	if buf[packetLen-1] != checksum {
		return Report{}, ErrBadChecksum
	}
	return Report{
		Index: buf[2],
		Yaw:   int16(binary.LittleEndian.Uint16(buf[3:5])),
		Pitch: int16(binary.LittleEndian.Uint16(buf[5:7])),
		Roll:  int16(binary.LittleEndian.Uint16(buf[7:9])),
	}, nil
}

type BNO08X struct {
	Device string
	// Invert flips the sign of the heading so that clockwise is positive.
	Invert bool

	lock       sync.Mutex
	lastReport Report
	have       bool
	unwrap     angle.Unwrapper
	now        func() time.Time
}

func New(device string) *BNO08X {
	if device == "" {
		device = DefaultDevice
	}
	return &BNO08X{Device: device, now: time.Now}
}

func (b *BNO08X) CurrentReport() (Report, bool) {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.lastReport, b.have
}

func (b *BNO08X) Angle() (float64, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if !b.have {
		return 0, ErrNoReports
	}
	if b.now().Sub(b.lastReport.Time) > StaleAfter {
		return 0, ErrStale
	}
	a := b.unwrap.Angle()
	if b.Invert {
		a = -a
	}
	return a, nil
}

// Reset makes the most recent report the new zero.
func (b *BNO08X) Reset() error {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.unwrap.Reset()
	if b.have {
		b.unwrap.Update(b.lastReport.YawDegrees())
	}
	return nil
}

// LoopReadingReports reopens the serial port whenever it fails, until the
// context is cancelled.
func (b *BNO08X) LoopReadingReports(ctx context.Context) {
	for ctx.Err() == nil {
		err := b.openAndLoop(ctx)
		if ctx.Err() != nil {
			return
		}
		fmt.Println("BNO08X loop stopped; will retry", err)
		time.Sleep(100 * time.Millisecond)
	}
}

func (b *BNO08X) openAndLoop(ctx context.Context) error {
	mode := &serial.Mode{
		BaudRate: 115200,
	}
	s, err := serial.Open(b.Device, mode)
	if err != nil {
		return errors.Wrapf(err, "failed to open serial port %s", b.Device)
	}
	defer s.Close()
	return b.ReadReports(ctx, s)
}

// ReadReports consumes the packet stream from r until it fails or the
// context is cancelled.  Corrupt packets cause a resync.
func (b *BNO08X) ReadReports(ctx context.Context, r io.Reader) error {
	br := bufio.NewReader(r)
	buf := make([]byte, packetLen)
	for {
		if err := resync(ctx, br); err != nil {
			return err
		}
		for {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if _, err := io.ReadFull(br, buf); err != nil {
				return errors.Wrap(err, "failed to read from serial")
			}
			report, err := DecodePacket(buf)
			if err != nil {
				fmt.Println("BNO08X:", err)
				break
			}
			b.setReport(report)
		}
	}
}

func resync(ctx context.Context, br *bufio.Reader) error {
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		buf, err := br.Peek(2)
		if err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
		if bytes.Equal(buf, header) {
			return nil
		}
		if _, err := br.Discard(1); err != nil {
			return errors.Wrap(err, "failed to read from serial")
		}
	}
}

func (b *BNO08X) setReport(report Report) {
	b.lock.Lock()
	defer b.lock.Unlock()
	report.Time = b.now()
	b.lastReport = report
	b.have = true
	b.unwrap.Update(report.YawDegrees())
}
