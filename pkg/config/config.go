// Package config loads the robot configuration.  Everything has a default;
// the YAML file only needs to list what differs.  The effective
// configuration is written back next to the file so that it's easy to see
// what the robot actually ran with.
package config

import (
	"io/ioutil"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v2"

	"github.com/team5957/oki/pkg/limitswitch"
	"github.com/team5957/oki/pkg/motion"
	"github.com/team5957/oki/pkg/teleop"
)

const DefaultPath = "/cfg/oki.yaml"

type Motor struct {
	Channel  int  `yaml:"channel"`
	Inverted bool `yaml:"inverted"`
}

type Motors struct {
	I2CDevice  string `yaml:"i2c_device"`
	RearLeft   Motor  `yaml:"rear_left"`
	FrontLeft  Motor  `yaml:"front_left"`
	RearRight  Motor  `yaml:"rear_right"`
	FrontRight Motor  `yaml:"front_right"`
	Dump       Motor  `yaml:"dump"`
	Coil       Motor  `yaml:"coil"`
	Winch      Motor  `yaml:"winch"`
	// SquaredInputs applies the arcade drive's square curve.
	SquaredInputs bool `yaml:"squared_inputs"`
}

const (
	GyroADXRS450 = "adxrs450"
	GyroBNO08x   = "bno08x"
	GyroNone     = "none"
)

type Gyro struct {
	Kind         string        `yaml:"kind"`
	SPIDevice    string        `yaml:"spi_device"`
	SerialDevice string        `yaml:"serial_device"`
	SamplePeriod time.Duration `yaml:"sample_period"`
	// Number of samples averaged to find the zero-rate offset at startup.
	CalibrationSamples int  `yaml:"calibration_samples"`
	Invert             bool `yaml:"invert"`
}

type Switches struct {
	Lower limitswitch.Config `yaml:"lower"`
	Upper limitswitch.Config `yaml:"upper"`
}

type Battery struct {
	Enabled    bool          `yaml:"enabled"`
	I2CDevice  string        `yaml:"i2c_device"`
	Addr       int           `yaml:"addr"`
	ShuntOhms  float64       `yaml:"shunt_ohms"`
	MaxCurrent float64       `yaml:"max_current"`
	LowVoltage float64       `yaml:"low_voltage"`
	Period     time.Duration `yaml:"period"`
}

type Gamepads struct {
	Driver   string `yaml:"driver"`
	Operator string `yaml:"operator"`
	// Event device for the driver's rumble motors; empty disables rumble.
	DriverRumble string `yaml:"driver_rumble"`
}

type Match struct {
	Autonomous time.Duration `yaml:"autonomous"`
	Teleop     time.Duration `yaml:"teleop"`
}

type Config struct {
	Motors   Motors   `yaml:"motors"`
	Gyro     Gyro     `yaml:"gyro"`
	Switches Switches `yaml:"switches"`
	Battery  Battery  `yaml:"battery"`
	Gamepads Gamepads `yaml:"gamepads"`

	Motion    motion.Params    `yaml:"motion"`
	Deadlines motion.Deadlines `yaml:"deadlines"`
	// StopOnStall ends the autonomous routine at the first stalled step
	// instead of carrying on.
	StopOnStall bool `yaml:"stop_on_stall"`

	Teleop   teleop.Params   `yaml:"teleop"`
	Bindings teleop.Bindings `yaml:"bindings"`

	SelectionFile string        `yaml:"selection_file"`
	SoundDir      string        `yaml:"sound_dir"`
	ScreenDevice  string        `yaml:"screen_device"`
	TickPeriod    time.Duration `yaml:"tick_period"`
	Match         Match         `yaml:"match"`
}

func Default() Config {
	return Config{
		Motors: Motors{
			I2CDevice:     "/dev/i2c-1",
			RearLeft:      Motor{Channel: 0},
			FrontLeft:     Motor{Channel: 1},
			RearRight:     Motor{Channel: 2},
			FrontRight:    Motor{Channel: 3},
			Dump:          Motor{Channel: 7},
			Coil:          Motor{Channel: 8},
			Winch:         Motor{Channel: 9},
			SquaredInputs: true,
		},
		Gyro: Gyro{
			Kind:               GyroADXRS450,
			SPIDevice:          "/dev/spidev0.0",
			SerialDevice:       "/dev/ttyAMA0",
			SamplePeriod:       5 * time.Millisecond,
			CalibrationSamples: 1000,
		},
		Switches: Switches{
			Lower: limitswitch.Config{Chip: "gpiochip0", Offset: 17, ActiveLow: true, PullUp: true},
			Upper: limitswitch.Config{Chip: "gpiochip0", Offset: 27, ActiveLow: true, PullUp: true},
		},
		Battery: Battery{
			Enabled:    true,
			I2CDevice:  "/dev/i2c-1",
			Addr:       0x41,
			ShuntOhms:  0.1,
			MaxCurrent: 2.0,
			LowVoltage: 11.0,
			Period:     500 * time.Millisecond,
		},
		Gamepads: Gamepads{
			Driver:   "/dev/input/js0",
			Operator: "/dev/input/js1",
		},
		Motion:        motion.DefaultParams(),
		Deadlines:     motion.DefaultDeadlines(),
		Teleop:        teleop.DefaultParams(),
		Bindings:      teleop.DefaultBindings(),
		SelectionFile: "/cfg/selection.yaml",
		SoundDir:      "/cfg/sounds",
		ScreenDevice:  "/dev/fb1",
		TickPeriod:    20 * time.Millisecond,
		Match: Match{
			Autonomous: 15 * time.Second,
			Teleop:     135 * time.Second,
		},
	}
}

// Load reads the config at path over the defaults.  A missing file is not an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := ioutil.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, &cfg); err != nil {
		return Default(), errors.Wrapf(err, "parsing config %s", path)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), errors.Wrapf(err, "config %s", path)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	switch c.Gyro.Kind {
	case GyroADXRS450, GyroBNO08x, GyroNone:
	default:
		return errors.Errorf("unknown gyro kind %q", c.Gyro.Kind)
	}
	if c.Gyro.SamplePeriod <= 0 {
		return errors.New("gyro.sample_period must be positive")
	}
	if c.Gyro.CalibrationSamples <= 0 {
		return errors.New("gyro.calibration_samples must be positive")
	}
	if c.Battery.Enabled && c.Battery.Period <= 0 {
		return errors.New("battery.period must be positive")
	}
	if c.TickPeriod <= 0 {
		return errors.New("tick_period must be positive")
	}
	if c.Motion.TurnTolerance < 0 {
		return errors.New("motion.turn_tolerance must not be negative")
	}
	return nil
}

// InUsePath is where the effective config for path is written:
// /cfg/oki.yaml -> /cfg/oki-in-use.yaml.
func InUsePath(path string) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-in-use" + ext
}

// WriteInUse records the effective config beside the file it came from.
func WriteInUse(path string, cfg Config) error {
	data, err := yaml.Marshal(&cfg)
	if err != nil {
		return errors.Wrap(err, "marshalling config")
	}
	return ioutil.WriteFile(InUsePath(path), data, 0666)
}
