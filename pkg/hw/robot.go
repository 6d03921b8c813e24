package hw

import (
	"math"
	"sync"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/logger"
)

// Robot is the context passed to everything that reads sensors or drives
// actuators.  Nothing in the control code holds hardware in globals; tests
// build a Robot out of fakes.
//
// Speeds are clamped to [-1, 1] on the way out.  Failed sensor reads are
// logged and replaced by a safe value (angle 0, switch open).  Failed writes
// are logged and dropped.
type Robot struct {
	Drive      Drive
	Coil       SpeedController
	Dump       SpeedController
	Winch      SpeedController
	Gyro       Gyro
	UpperLimit LimitSwitch
	LowerLimit LimitSwitch

	Log *logger.Logger

	lock       sync.Mutex
	lastDrive  MotionCommand
	lastAngle  float64
	faultState map[string]bool
}

// ErrNotFinite reports a sensor that returned NaN or an infinity.
var ErrNotFinite = errors.New("reading is not finite")

// Clamp limits v to [-1, 1].  NaN maps to 0.
func Clamp(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < -1 {
		return -1
	}
	if v > 1 {
		return 1
	}
	return v
}

func (r *Robot) SetDrive(translation, rotation float64) {
	cmd := MotionCommand{Translation: Clamp(translation), Rotation: Clamp(rotation)}
	r.lock.Lock()
	r.lastDrive = cmd
	r.lock.Unlock()
	if r.Drive == nil {
		return
	}
	r.noteFault("drive", r.Drive.ArcadeDrive(cmd.Translation, cmd.Rotation))
}

func (r *Robot) SetActuatorSpeed(ch Channel, speed float64) {
	sc := r.controller(ch)
	if sc == nil {
		return
	}
	r.noteFault(ch.String(), sc.SetSpeed(Clamp(speed)))
}

// ReadAngle returns the gyro heading in degrees relative to the last reset.
func (r *Robot) ReadAngle() float64 {
	if r.Gyro == nil {
		return 0
	}
	a, err := r.Gyro.Angle()
	if err == nil && (math.IsNaN(a) || math.IsInf(a, 0)) {
		err = errors.Wrapf(ErrNotFinite, "gyro read %v", a)
	}
	if r.noteFault("gyro", err) {
		return 0
	}
	r.lock.Lock()
	r.lastAngle = a
	r.lock.Unlock()
	return a
}

func (r *Robot) ResetGyro() {
	if r.Gyro == nil {
		return
	}
	r.noteFault("gyro reset", r.Gyro.Reset())
}

// ReadSwitch reports whether the given limit switch is closed.
func (r *Robot) ReadSwitch(id SwitchID) bool {
	var sw LimitSwitch
	switch id {
	case SwitchLower:
		sw = r.LowerLimit
	case SwitchUpper:
		sw = r.UpperLimit
	}
	if sw == nil {
		return false
	}
	closed, err := sw.IsClosed()
	if r.noteFault(id.String()+" switch", err) {
		return false
	}
	return closed
}

// StopAll zeroes the drive and every mechanism.
func (r *Robot) StopAll() {
	r.SetDrive(0, 0)
	for _, ch := range []Channel{ChannelCoil, ChannelDump, ChannelWinch} {
		r.SetActuatorSpeed(ch, 0)
	}
}

// LastDrive is the most recent drive command, after clamping.
func (r *Robot) LastDrive() MotionCommand {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.lastDrive
}

// LastAngle is the most recent successful gyro reading.
func (r *Robot) LastAngle() float64 {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.lastAngle
}

func (r *Robot) controller(ch Channel) SpeedController {
	switch ch {
	case ChannelCoil:
		return r.Coil
	case ChannelDump:
		return r.Dump
	case ChannelWinch:
		return r.Winch
	}
	return nil
}

// noteFault logs err once per fault episode so a dead sensor doesn't flood
// the log at 50Hz.  Returns true if err is non-nil.
func (r *Robot) noteFault(what string, err error) bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.faultState == nil {
		r.faultState = map[string]bool{}
	}
	if err == nil {
		if r.faultState[what] {
			r.faultState[what] = false
			if r.Log != nil {
				r.Log.Infof("%s recovered", what)
			}
		}
		return false
	}
	if !r.faultState[what] {
		r.faultState[what] = true
		if r.Log != nil {
			r.Log.Warnf("%s unavailable: %v", what, err)
		}
	}
	return true
}
