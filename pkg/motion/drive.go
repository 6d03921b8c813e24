package motion

import (
	"fmt"
	"math"
	"time"

	"github.com/team5957/oki/pkg/hw"
)

type Direction int

const (
	Forward  Direction = 1
	Backward Direction = -1
)

// TimedDrive drives straight for a fixed time, holding heading with a
// proportional correction on the gyro angle.
type TimedDrive struct {
	params    Params
	direction Direction
	duration  time.Duration

	start time.Time
	done  bool
}

func NewTimedDrive(params Params, dir Direction, d time.Duration) *TimedDrive {
	return &TimedDrive{
		params:    params,
		direction: dir,
		duration:  d,
	}
}

func (t *TimedDrive) Name() string {
	if t.direction == Backward {
		return fmt.Sprintf("moveBackward(%v)", t.duration)
	}
	return fmt.Sprintf("moveForward(%v)", t.duration)
}

func (t *TimedDrive) Duration() time.Duration {
	return t.duration
}

func (t *TimedDrive) Start(r *hw.Robot, now time.Time) {
	t.start = now
	t.done = false
}

func (t *TimedDrive) Step(r *hw.Robot, now time.Time) {
	if t.done {
		return
	}
	if now.Sub(t.start) >= t.duration {
		r.SetDrive(0, 0)
		t.done = true
		return
	}
	correction := -t.params.Kp * r.ReadAngle()
	r.SetDrive(float64(t.direction)*t.params.DefaultSpeed, correction)
}

func (t *TimedDrive) Stop(r *hw.Robot) {
	r.SetDrive(0, 0)
}

func (t *TimedDrive) IsComplete() bool {
	return t.done
}

// TurnToAngle spins on the spot at a fixed speed until the gyro reads the
// target.  Targets above 180 degrees spin the other way.
type TurnToAngle struct {
	params Params
	target float64

	done bool
}

func NewTurnToAngle(params Params, target float64) *TurnToAngle {
	return &TurnToAngle{
		params: params,
		target: target,
	}
}

func (t *TurnToAngle) Name() string {
	return fmt.Sprintf("turnToAngle(%v)", t.target)
}

func (t *TurnToAngle) Start(r *hw.Robot, now time.Time) {
	t.done = false
	r.ResetGyro()
}

func (t *TurnToAngle) Step(r *hw.Robot, now time.Time) {
	if t.done {
		return
	}
	angle := r.ReadAngle()
	if t.reached(angle) {
		r.SetDrive(0, 0)
		t.done = true
		return
	}
	if t.target > 180 {
		r.SetDrive(0, -t.params.TurnSpeed)
	} else {
		r.SetDrive(0, t.params.TurnSpeed)
	}
}

func (t *TurnToAngle) reached(angle float64) bool {
	if t.params.TurnTolerance <= 0 {
		return angle == t.target
	}
	return math.Abs(angle-t.target) <= t.params.TurnTolerance
}

func (t *TurnToAngle) Stop(r *hw.Robot) {
	r.SetDrive(0, 0)
}

func (t *TurnToAngle) IsComplete() bool {
	return t.done
}

// TurnToAngleWithNeg sends a single rotation command proportional to the
// error between the target and the freshly reset gyro, then completes.  It
// does not iterate; the autonomous scripts are tuned against the one-shot
// pulse.
type TurnToAngleWithNeg struct {
	params Params
	target float64

	done bool
}

func NewTurnToAngleWithNeg(params Params, target float64) *TurnToAngleWithNeg {
	return &TurnToAngleWithNeg{
		params: params,
		target: target,
	}
}

func (t *TurnToAngleWithNeg) Name() string {
	return fmt.Sprintf("turnToAngleWithNeg(%v)", t.target)
}

func (t *TurnToAngleWithNeg) Start(r *hw.Robot, now time.Time) {
	t.done = false
	r.ResetGyro()
}

func (t *TurnToAngleWithNeg) Step(r *hw.Robot, now time.Time) {
	if t.done {
		return
	}
	angleError := t.target - r.ReadAngle()
	r.SetDrive(0, t.params.TurnSpeed*angleError*t.params.Kp)
	t.done = true
}

func (t *TurnToAngleWithNeg) Stop(r *hw.Robot) {
	r.SetDrive(0, 0)
}

func (t *TurnToAngleWithNeg) IsComplete() bool {
	return t.done
}
