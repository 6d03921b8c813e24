// Package motion holds the robot's motion primitives.  Each primitive is a
// small state machine that is stepped once per control tick: Start captures
// the entry state, Step makes one decision and sends at most one command per
// actuator, and IsComplete reports when the termination condition has been
// met.  None of them block.
package motion

import (
	"time"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/hw"
)

// ErrStalled is reported by a Bounded primitive that ran past its deadline.
var ErrStalled = errors.New("primitive stalled")

type Primitive interface {
	Name() string
	// Start resets per-run state.  It is called on the tick that the primitive
	// begins, immediately before the first Step.
	Start(r *hw.Robot, now time.Time)
	Step(r *hw.Robot, now time.Time)
	// Stop zeroes whatever actuator the primitive drives.
	Stop(r *hw.Robot)
	IsComplete() bool
}

// Params are the tuning constants shared by the primitives.
type Params struct {
	Kp           float64       `yaml:"kp"`
	DefaultSpeed float64       `yaml:"default_speed"`
	TurnSpeed    float64       `yaml:"turn_speed"`
	CoilSpeed    float64       `yaml:"coil_speed"`
	DumpSpeed    float64       `yaml:"dump_speed"`
	DropCoilTime time.Duration `yaml:"drop_coil_time"`
	// TurnTolerance is the band in degrees around the target that counts as
	// "reached" for TurnToAngle.  Zero means exact equality.
	TurnTolerance float64 `yaml:"turn_tolerance"`
}

func DefaultParams() Params {
	return Params{
		Kp:            0.03,
		DefaultSpeed:  0.5,
		TurnSpeed:     0.5,
		CoilSpeed:     1,
		DumpSpeed:     1,
		DropCoilTime:  4 * time.Second,
		TurnTolerance: 0.5,
	}
}

// Deadlines bound how long each kind of primitive may run before it is
// aborted.  Zero disables the bound.
type Deadlines struct {
	Turn  time.Duration `yaml:"turn"`
	Pulse time.Duration `yaml:"pulse"`
	Dump  time.Duration `yaml:"dump"`
	// Timed primitives get their own duration plus a margin.
	GearMargin  time.Duration `yaml:"gear_margin"`
	DriveMargin time.Duration `yaml:"drive_margin"`
}

func DefaultDeadlines() Deadlines {
	return Deadlines{
		Turn:        5 * time.Second,
		Pulse:       time.Second,
		Dump:        3 * time.Second,
		GearMargin:  2 * time.Second,
		DriveMargin: 2 * time.Second,
	}
}

// Seconds converts the fractional seconds used in autonomous scripts.
func Seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
