// Package ina219 reads the INA219 power monitor that sits on the main
// battery feed, and watches the battery for brownouts.
package ina219

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/exp/io/i2c"

	"github.com/team5957/oki/pkg/logger"
)

const (
	DefaultAddr = 0x40

	RegConfig      = 0
	RegShuntV      = 1
	RegBusV        = 2
	RegPower       = 3
	RegCurrent     = 4
	RegCalibration = 5

	BusVoltageLSB = 0.004
)

type port interface {
	// ReadReg reads len(buf) bytes from the device.
	ReadReg(reg byte, buf []byte) error
	WriteReg(reg byte, buf []byte) error
}

type INA219 struct {
	currentLSB float64
	dev        port
}

func NewI2C(deviceFile string, addr int) (*INA219, error) {
	dev, err := i2c.Open(&i2c.Devfs{Dev: deviceFile}, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "opening INA219 at %#x on %s", addr, deviceFile)
	}
	return &INA219{
		dev: dev,
	}, nil
}

func (m *INA219) Configure(shuntOhms float64, maxCurrent float64) error {
	// Write Calibration register
	m.currentLSB = maxCurrent / (1 << 15)
	cval := CalculateCalibrationValue(m.currentLSB, shuntOhms)
	fmt.Printf("HW: INA219 calibration value: 0x%x\n", cval)
	return m.dev.WriteReg(RegCalibration, []byte{byte(cval >> 8), byte(cval)})
}

func (m *INA219) ReadBusVoltage() (float64, error) {
	raw, err := m.Read16(RegBusV)
	shifted := raw >> 3
	return float64(shifted) * BusVoltageLSB, err
}

func (m *INA219) ReadCurrent() (float64, error) {
	raw, err := m.Read16(RegCurrent)
	return float64(int16(raw)) * m.currentLSB, err
}

func (m *INA219) Read16(reg byte) (uint16, error) {
	var buf [2]byte
	err := m.dev.ReadReg(reg, buf[:])
	return uint16(buf[0])<<8 | uint16(buf[1]), err
}

func CalculateCalibrationValue(currentLSB float64, shuntOhms float64) int16 {
	return int16(0.04096 / (currentLSB * shuntOhms))
}

type VoltageReader interface {
	ReadBusVoltage() (float64, error)
}

// Monitor samples the battery voltage in the background.  It keeps a
// smoothed reading for the status screen and logs a warning when the
// battery sags below LowVoltage.
type Monitor struct {
	Sensor     VoltageReader
	LowVoltage float64
	Log        *logger.Logger

	lock    sync.Mutex
	have    bool
	voltage float64
	low     bool
}

func NewMonitor(sensor VoltageReader, lowVoltage float64, log *logger.Logger) *Monitor {
	if log == nil {
		log = logger.Discard()
	}
	return &Monitor{Sensor: sensor, LowVoltage: lowVoltage, Log: log}
}

// Sample takes one reading.
func (m *Monitor) Sample() error {
	v, err := m.Sensor.ReadBusVoltage()
	if err != nil {
		return err
	}
	m.lock.Lock()
	defer m.lock.Unlock()
	if !m.have {
		m.voltage = v
		m.have = true
	} else {
		m.voltage = 0.8*m.voltage + 0.2*v
	}
	low := m.voltage < m.LowVoltage
	if low && !m.low {
		m.Log.Warnf("Battery low: %.2fV", m.voltage)
	} else if !low && m.low {
		m.Log.Infof("Battery recovered: %.2fV", m.voltage)
	}
	m.low = low
	return nil
}

// Voltage returns the smoothed voltage and whether any reading has been
// taken yet.
func (m *Monitor) Voltage() (float64, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.voltage, m.have
}

func (m *Monitor) Low() bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.low
}

func (m *Monitor) Run(ctx context.Context, period time.Duration) {
	ticker := time.NewTicker(period)
	defer ticker.Stop()
	failures := 0
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := m.Sample(); err != nil {
				if failures == 0 {
					m.Log.Warnf("Battery monitor read failed: %v", err)
				}
				failures++
				continue
			}
			failures = 0
		}
	}
}
