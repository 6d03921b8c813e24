// Package teleop maps the two gamepads onto the robot during driver
// control.  The driver gamepad drives in one of three styles; the operator
// gamepad runs the coil, dump and winch.  The driver gets rumble feedback
// while the operator's mechanisms are moving.
package teleop

import (
	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/joystick"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/selection"
)

type Params struct {
	LowSpeed     float64 `yaml:"low_speed"`
	HighSpeed    float64 `yaml:"high_speed"`
	DefaultSpeed float64 `yaml:"default_speed"`
	TurnSpeed    float64 `yaml:"turn_speed"`
	CoilSpeed    float64 `yaml:"coil_speed"`
	DumpSpeed    float64 `yaml:"dump_speed"`
	// Trigger travel needed before the winch moves.
	WinchThreshold float64 `yaml:"winch_threshold"`
}

func DefaultParams() Params {
	return Params{
		LowSpeed:       0.2,
		HighSpeed:      1.0,
		DefaultSpeed:   0.5,
		TurnSpeed:      0.5,
		CoilSpeed:      1,
		DumpSpeed:      1,
		WinchThreshold: 0.1,
	}
}

// DriverBindings are axis and button numbers on the driver gamepad.
type DriverBindings struct {
	LeftX        int `yaml:"left_x"`
	LeftY        int `yaml:"left_y"`
	RightX       int `yaml:"right_x"`
	LeftTrigger  int `yaml:"left_trigger"`
	RightTrigger int `yaml:"right_trigger"`
	FlightX      int `yaml:"flight_x"`
	FlightY      int `yaml:"flight_y"`
	LowGear      int `yaml:"low_gear"`
	HighGear     int `yaml:"high_gear"`
}

type OperatorBindings struct {
	CoilIn  int `yaml:"coil_in"`
	CoilOut int `yaml:"coil_out"`
	// Trigger axes.
	WinchUp   int `yaml:"winch_up"`
	WinchDown int `yaml:"winch_down"`
	POVX      int `yaml:"pov_x"`
	POVY      int `yaml:"pov_y"`
	// POV angles.
	DumpUp   int `yaml:"dump_up"`
	DumpDown int `yaml:"dump_down"`
}

type Bindings struct {
	Driver   DriverBindings   `yaml:"driver"`
	Operator OperatorBindings `yaml:"operator"`
}

func DefaultBindings() Bindings {
	return Bindings{
		Driver: DriverBindings{
			LeftX:        joystick.AxisLStickX,
			LeftY:        joystick.AxisLStickY,
			RightX:       joystick.AxisRStickX,
			LeftTrigger:  joystick.AxisL2,
			RightTrigger: joystick.AxisR2,
			// A flight stick reports its roll on axis 0 and pitch on axis 1,
			// and the team's stick is mounted sideways.
			FlightX:  1,
			FlightY:  0,
			LowGear:  joystick.ButtonCircle,
			HighGear: joystick.ButtonCross,
		},
		Operator: OperatorBindings{
			CoilIn:    joystick.ButtonCircle,
			CoilOut:   joystick.ButtonCross,
			WinchUp:   joystick.AxisR2,
			WinchDown: joystick.AxisL2,
			POVX:      joystick.AxisDPadX,
			POVY:      joystick.AxisDPadY,
			DumpUp:    0,
			DumpDown:  180,
		},
	}
}

type rumbleMode int

const (
	noRumble rumbleMode = iota
	leftRumble
	rightRumble
	bothRumble
)

type rumbleState struct {
	left, right float64
}

// apply follows the gamepad API: a side is only changed when the mode
// names it, and "none" clears both.
func (s *rumbleState) apply(m rumbleMode) {
	switch m {
	case leftRumble:
		s.left = 1
	case rightRumble:
		s.right = 1
	case bothRumble:
		s.left, s.right = 1, 1
	default:
		s.left, s.right = 0, 0
	}
}

type Dispatcher struct {
	Params   Params
	Bindings Bindings
	Rumble   hw.Rumbler

	log       *logger.Logger
	mode      selection.DriveMode
	rumble    rumbleState
	written   bool
	lastWrite rumbleState
}

func New(params Params, bindings Bindings, rumble hw.Rumbler, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.Discard()
	}
	return &Dispatcher{
		Params:   params,
		Bindings: bindings,
		Rumble:   rumble,
		log:      log,
	}
}

// Init fixes the drive mode for the rest of the phase.
func (d *Dispatcher) Init(mode selection.DriveMode) {
	d.mode = mode
	d.log.Infof("Driving with %v", mode)
}

func (d *Dispatcher) Mode() selection.DriveMode {
	return d.mode
}

func (d *Dispatcher) Tick(r *hw.Robot, driver, operator joystick.State) {
	d.drive(r, driver)

	p := d.Params
	ob := d.Bindings.Operator

	// Coil
	if operator.Button(ob.CoilIn) {
		r.SetActuatorSpeed(hw.ChannelCoil, p.CoilSpeed)
	} else if operator.Button(ob.CoilOut) {
		r.SetActuatorSpeed(hw.ChannelCoil, -p.CoilSpeed)
		d.rumble.apply(bothRumble)
	} else {
		r.SetActuatorSpeed(hw.ChannelCoil, 0)
		d.rumble.apply(noRumble)
	}

	// Dump
	pov := operator.POV(ob.POVX, ob.POVY)
	if pov == ob.DumpUp {
		r.SetActuatorSpeed(hw.ChannelDump, p.DumpSpeed)
		d.rumble.apply(rightRumble)
	} else if pov == ob.DumpDown {
		r.SetActuatorSpeed(hw.ChannelDump, -p.DumpSpeed)
	} else {
		r.SetActuatorSpeed(hw.ChannelDump, 0)
		d.rumble.apply(noRumble)
	}

	// Winch
	if up := operator.Trigger(ob.WinchUp); up >= p.WinchThreshold {
		r.SetActuatorSpeed(hw.ChannelWinch, up)
		d.rumble.apply(leftRumble)
	} else if down := operator.Trigger(ob.WinchDown); down >= p.WinchThreshold {
		r.SetActuatorSpeed(hw.ChannelWinch, -down)
		d.rumble.apply(bothRumble)
	} else {
		r.SetActuatorSpeed(hw.ChannelWinch, 0)
		d.rumble.apply(noRumble)
	}

	d.flushRumble()
}

func (d *Dispatcher) drive(r *hw.Robot, driver joystick.State) {
	p := d.Params
	db := d.Bindings.Driver
	switch d.mode {
	case selection.Triggers:
		r.SetDrive(driver.Trigger(db.RightTrigger)-driver.Trigger(db.LeftTrigger),
			p.TurnSpeed*driver.Axis(db.LeftX))
	case selection.FlightStick:
		r.SetDrive(-driver.Axis(db.FlightY), driver.Axis(db.FlightX))
	default:
		gear := p.DefaultSpeed
		if driver.Button(db.LowGear) {
			gear = p.LowSpeed
		} else if driver.Button(db.HighGear) {
			gear = p.HighSpeed
		}
		r.SetDrive(gear*driver.Axis(db.LeftY), p.TurnSpeed*driver.Axis(db.RightX))
	}
}

func (d *Dispatcher) flushRumble() {
	if d.Rumble == nil {
		return
	}
	if d.written && d.rumble == d.lastWrite {
		return
	}
	if err := d.Rumble.SetRumble(d.rumble.left, d.rumble.right); err != nil {
		d.log.Warnf("Rumble failed: %v", err)
		return
	}
	d.written = true
	d.lastWrite = d.rumble
}

// Stop turns the rumble off; the actuators are stopped by the caller.
func (d *Dispatcher) Stop() {
	d.rumble.apply(noRumble)
	d.flushRumble()
}
