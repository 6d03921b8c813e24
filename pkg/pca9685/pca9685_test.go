package pca9685

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"
)

type write struct {
	reg byte
	buf []byte
}

type fakeDevice struct {
	writes []write
	err    error
}

func (f *fakeDevice) WriteReg(reg byte, buf []byte) error {
	f.writes = append(f.writes, write{reg, append([]byte(nil), buf...)})
	return f.err
}

func (f *fakeDevice) Close() error { return nil }

func offCount(w write) uint16 {
	return uint16(w.buf[2]) | uint16(w.buf[3])<<8
}

func TestPulseFor(t *testing.T) {
	for _, tc := range []struct {
		speed float64
		pulse time.Duration
	}{
		{-1, 1000 * time.Microsecond},
		{0, 1500 * time.Microsecond},
		{1, 2000 * time.Microsecond},
		{0.5, 1750 * time.Microsecond},
		{-3, 1000 * time.Microsecond},
		{3, 2000 * time.Microsecond},
		{math.NaN(), 1500 * time.Microsecond},
	} {
		if got := PulseFor(tc.speed); got != tc.pulse {
			t.Errorf("PulseFor(%v) = %v, expected %v", tc.speed, got, tc.pulse)
		}
	}
}

func TestSetSpeedWritesChannelRegister(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev)
	if err := p.SetSpeed(3, 0); err != nil {
		t.Fatal(err)
	}
	if err := p.SetSpeed(15, 1); err != nil {
		t.Fatal(err)
	}
	if err := p.SetSpeed(0, -1); err != nil {
		t.Fatal(err)
	}

	if dev.writes[0].reg != RegLEDBase+12 || offCount(dev.writes[0]) != 307 {
		t.Errorf("Neutral on channel 3: %+v", dev.writes[0])
	}
	if dev.writes[1].reg != RegLEDBase+60 || offCount(dev.writes[1]) != 409 {
		t.Errorf("Forward on channel 15: %+v", dev.writes[1])
	}
	if dev.writes[2].reg != RegLEDBase || offCount(dev.writes[2]) != 204 {
		t.Errorf("Reverse on channel 0: %+v", dev.writes[2])
	}
}

func TestChannelOutOfRange(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev)
	if err := p.SetSpeed(16, 0); err == nil {
		t.Error("Expected an error for channel 16")
	}
	if len(dev.writes) != 0 {
		t.Error("Out of range channel should not be written")
	}
}

func TestInvertedMotorAndGroup(t *testing.T) {
	dev := &fakeDevice{}
	p := NewWithDevice(dev)
	g := Group{{Board: p, Channel: 1}, {Board: p, Channel: 2, Inverted: true}}
	if err := g.SetSpeed(1); err != nil {
		t.Fatal(err)
	}
	if offCount(dev.writes[0]) != 409 || offCount(dev.writes[1]) != 204 {
		t.Fatalf("Unexpected writes %+v", dev.writes)
	}
}

func TestNeutralReportsErrors(t *testing.T) {
	dev := &fakeDevice{err: errors.New("bus error")}
	p := NewWithDevice(dev)
	if err := p.Neutral(); err == nil {
		t.Fatal("Expected bus error")
	}
	if len(dev.writes) != NumChannels {
		t.Fatalf("Expected all %d channels to be tried, got %d", NumChannels, len(dev.writes))
	}
}
