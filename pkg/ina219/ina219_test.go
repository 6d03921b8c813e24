package ina219

import (
	"math"
	"testing"

	"github.com/pkg/errors"
)

type fakePort struct {
	regs   map[byte]uint16
	writes map[byte][]byte
}

func (f *fakePort) ReadReg(reg byte, buf []byte) error {
	v := f.regs[reg]
	buf[0], buf[1] = byte(v>>8), byte(v)
	return nil
}

func (f *fakePort) WriteReg(reg byte, buf []byte) error {
	if f.writes == nil {
		f.writes = map[byte][]byte{}
	}
	f.writes[reg] = append([]byte(nil), buf...)
	return nil
}

func TestReadings(t *testing.T) {
	// 12.5V is 3125 LSBs, stored in the top 13 bits.
	p := &fakePort{regs: map[byte]uint16{RegBusV: 3125 << 3, RegCurrent: 0xfc18}}
	m := &INA219{dev: p}
	if err := m.Configure(0.1, 3.2768); err != nil {
		t.Fatal(err)
	}
	cal := p.writes[RegCalibration]
	if got := int(cal[0])<<8 | int(cal[1]); got < 4095 || got > 4096 {
		t.Errorf("Calibration value %d, expected about 4096", got)
	}
	v, err := m.ReadBusVoltage()
	if err != nil || math.Abs(v-12.5) > 1e-9 {
		t.Errorf("Bus voltage %v, %v", v, err)
	}
	// -1000 LSBs at 0.1mA each.
	i, _ := m.ReadCurrent()
	if math.Abs(i+0.1) > 1e-9 {
		t.Errorf("Current %v, expected -0.1", i)
	}
}

type fakeVoltage struct {
	v   float64
	err error
}

func (f *fakeVoltage) ReadBusVoltage() (float64, error) { return f.v, f.err }

func TestMonitorSmoothsAndFlagsLow(t *testing.T) {
	src := &fakeVoltage{v: 12}
	m := NewMonitor(src, 7, nil)
	if _, ok := m.Voltage(); ok {
		t.Fatal("No reading yet")
	}
	m.Sample()
	if v, ok := m.Voltage(); !ok || v != 12 {
		t.Fatalf("First sample should be taken as is, got %v", v)
	}
	src.v = 2
	m.Sample()
	if v, _ := m.Voltage(); math.Abs(v-10) > 1e-9 {
		t.Fatalf("Expected smoothed 10V, got %v", v)
	}
	if m.Low() {
		t.Fatal("10V isn't low")
	}
	for i := 0; i < 10; i++ {
		m.Sample()
	}
	if !m.Low() {
		t.Fatal("Expected low battery")
	}

	src.err = errors.New("i2c")
	if err := m.Sample(); err == nil {
		t.Fatal("Expected the read error")
	}
}
