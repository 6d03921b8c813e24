// Package hardware opens the robot's devices and assembles them into the
// hw.Robot that the control code runs against.
package hardware

import (
	"context"
	"io"
	"time"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/adxrs450"
	"github.com/team5957/oki/pkg/arcade"
	"github.com/team5957/oki/pkg/bno08x"
	"github.com/team5957/oki/pkg/config"
	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/ina219"
	"github.com/team5957/oki/pkg/limitswitch"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/pca9685"
	"github.com/team5957/oki/pkg/rumble"
)

// Hardware owns the open devices.  Only the motor board is required; the
// rest are optional and a failure to open one is logged and left out, which
// the hw.Robot treats as a sensor reading its safe value.
type Hardware struct {
	Robot *hw.Robot
	// Battery is nil if the monitor is disabled or failed to open.
	Battery *ina219.Monitor
	// Rumble is nil if no rumble device is configured.
	Rumble *rumble.Rumbler

	board   *pca9685.PCA9685
	closers []io.Closer
	log     *logger.Logger
}

// Open brings up the hardware described by cfg.  Background samplers (gyro,
// battery) run until ctx is cancelled.
func Open(ctx context.Context, cfg config.Config, log *logger.Logger) (*Hardware, error) {
	if log == nil {
		log = logger.Discard()
	}
	board, err := pca9685.New(cfg.Motors.I2CDevice)
	if err != nil {
		return nil, err
	}
	if err := board.Configure(); err != nil {
		_ = board.Close()
		return nil, errors.Wrap(err, "configuring PWM board")
	}
	h := &Hardware{
		Robot: Assemble(cfg.Motors, board),
		board: board,
		log:   log,
	}
	h.Robot.Log = log.WithTag("hw")
	h.closers = append(h.closers, board)

	h.Robot.Gyro = h.openGyro(ctx, cfg.Gyro)
	h.Robot.LowerLimit = h.openSwitch("lower", cfg.Switches.Lower)
	h.Robot.UpperLimit = h.openSwitch("upper", cfg.Switches.Upper)

	if cfg.Battery.Enabled {
		h.Battery = h.openBattery(ctx, cfg.Battery)
	}
	if cfg.Gamepads.DriverRumble != "" {
		r, err := rumble.Open(cfg.Gamepads.DriverRumble)
		if err != nil {
			log.Warnf("No rumble: %v", err)
		} else {
			h.Rumble = r
			h.closers = append(h.closers, r)
		}
	}
	return h, nil
}

// Assemble wires the drive train and mechanisms to the PWM board.  Sensors
// are left for the caller to fill in.
func Assemble(m config.Motors, board *pca9685.PCA9685) *hw.Robot {
	motor := func(c config.Motor) *pca9685.Motor {
		return &pca9685.Motor{Board: board, Channel: c.Channel, Inverted: c.Inverted}
	}
	drive := arcade.New(
		pca9685.Group{motor(m.FrontLeft), motor(m.RearLeft)},
		pca9685.Group{motor(m.FrontRight), motor(m.RearRight)},
	)
	drive.SquaredInputs = m.SquaredInputs
	return &hw.Robot{
		Drive: drive,
		Coil:  motor(m.Coil),
		Dump:  motor(m.Dump),
		Winch: motor(m.Winch),
	}
}

func (h *Hardware) openGyro(ctx context.Context, cfg config.Gyro) hw.Gyro {
	switch cfg.Kind {
	case config.GyroADXRS450:
		g, err := adxrs450.New(cfg.SPIDevice)
		if err == nil {
			err = g.Probe()
		}
		if err == nil {
			err = g.Calibrate(cfg.CalibrationSamples, cfg.SamplePeriod)
		}
		if err != nil {
			h.log.Errorf("No gyro, turns will run to their deadlines: %v", err)
			return nil
		}
		go g.Run(ctx, cfg.SamplePeriod)
		if cfg.Invert {
			return inverted{g}
		}
		return g
	case config.GyroBNO08x:
		g := bno08x.New(cfg.SerialDevice)
		g.Invert = cfg.Invert
		go g.LoopReadingReports(ctx)
		return g
	}
	h.log.Infof("Gyro disabled")
	return nil
}

func (h *Hardware) openSwitch(name string, cfg limitswitch.Config) hw.LimitSwitch {
	sw, err := limitswitch.Open(name, cfg)
	if err != nil {
		h.log.Warnf("No %s limit switch: %v", name, err)
		return nil
	}
	h.closers = append(h.closers, sw)
	return sw
}

func (h *Hardware) openBattery(ctx context.Context, cfg config.Battery) *ina219.Monitor {
	sensor, err := ina219.NewI2C(cfg.I2CDevice, cfg.Addr)
	if err == nil {
		err = sensor.Configure(cfg.ShuntOhms, cfg.MaxCurrent)
	}
	if err != nil {
		h.log.Warnf("No battery monitor: %v", err)
		return nil
	}
	m := ina219.NewMonitor(sensor, cfg.LowVoltage, h.log.WithTag("battery"))
	go m.Run(ctx, cfg.Period)
	return m
}

// Shutdown neutralises every PWM output and closes the devices.
func (h *Hardware) Shutdown() {
	h.log.Infof("Shutting down hardware")
	h.Robot.StopAll()
	if err := h.board.Neutral(); err != nil {
		h.log.Errorf("Failed to neutralise PWM board: %v", err)
	}
	// Give the controllers a frame to see the neutral pulse.
	time.Sleep(pca9685.PWMPeriod)
	for i := len(h.closers) - 1; i >= 0; i-- {
		if err := h.closers[i].Close(); err != nil {
			h.log.Warnf("Close failed: %v", err)
		}
	}
}

// inverted flips a gyro so that clockwise reads positive.
type inverted struct {
	hw.Gyro
}

func (g inverted) Angle() (float64, error) {
	a, err := g.Gyro.Angle()
	return -a, err
}
