package autonomous

import (
	"fmt"
	"time"

	"github.com/team5957/oki/pkg/motion"
	"github.com/team5957/oki/pkg/selection"
)

type Kind int

const (
	MoveForward Kind = iota
	MoveBackward
	TurnToAngle
	TurnToAngleWithNeg
	DropGear
	OpenDump
	CloseDump
)

func (k Kind) String() string {
	switch k {
	case MoveForward:
		return "moveForward"
	case MoveBackward:
		return "moveBackward"
	case TurnToAngle:
		return "turnToAngle"
	case TurnToAngleWithNeg:
		return "turnToAngleWithNeg"
	case DropGear:
		return "dropGear"
	case OpenDump:
		return "openDump"
	case CloseDump:
		return "closeDump"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Step is one line of an autonomous script.  Arg is seconds of travel for
// the moves, degrees for the turns and unused otherwise.
type Step struct {
	Kind Kind
	Arg  float64
}

func (s Step) String() string {
	switch s.Kind {
	case DropGear, OpenDump, CloseDump:
		return s.Kind.String() + "()"
	default:
		return fmt.Sprintf("%v(%v)", s.Kind, s.Arg)
	}
}

func forward(secs float64) Step  { return Step{MoveForward, secs} }
func backward(secs float64) Step { return Step{MoveBackward, secs} }
func turn(deg float64) Step      { return Step{TurnToAngle, deg} }
func pulse(deg float64) Step     { return Step{TurnToAngleWithNeg, deg} }

var (
	dropGear  = Step{Kind: DropGear}
	openDump  = Step{Kind: OpenDump}
	closeDump = Step{Kind: CloseDump}
)

// Wiggle shakes the last fuel out of the open dump.
var wiggle = []Step{pulse(5), pulse(-10), pulse(10), pulse(-10), pulse(10), pulse(-10)}

// Starting points are measured to the centre of the back of the robot.
func Script(sel selection.Selection) []Step {
	switch sel.Position {
	case selection.Middle:
		// Start pointing the coil at the middle spike; deliver the gear, back
		// off the hook, then head for the reloading station.
		steps := []Step{forward(3), dropGear, backward(2)}
		switch sel.Color {
		case selection.Red:
			return append(steps, pulse(-60), forward(3), turn(60), forward(10))
		case selection.Blue:
			return append(steps, turn(60), forward(3), pulse(-60), forward(10))
		}
	case selection.Left:
		switch sel.Color {
		case selection.Red:
			// Start where the blue line meets the alliance wall.  Gear on the
			// right spike, then back up to fill the dump.
			return []Step{forward(2), pulse(45), dropGear, closeDump, backward(3.3)}
		case selection.Blue:
			// Start with the back right touching the blue line and the wall.
			// Gear on the left spike, back up to the boiler and empty the dump.
			steps := []Step{forward(2), pulse(45), forward(0.5), dropGear, backward(3.33), openDump}
			return append(steps, wiggle...)
		}
	case selection.Right:
		switch sel.Color {
		case selection.Red:
			// Start with the back left touching the red line and the wall.
			steps := []Step{forward(2), pulse(-45), forward(0.5), dropGear, backward(3.33), openDump}
			return append(steps, wiggle...)
		case selection.Blue:
			// Start where the red line meets the alliance wall.
			return []Step{forward(2), pulse(-45), dropGear, closeDump, backward(3.3)}
		}
	case selection.Demo:
		// Show boat time: a million-degree turn, stopped only by its deadline.
		return []Step{turn(1000000)}
	}
	return nil
}

// Build turns a script step into a primitive bounded by the matching
// deadline.
func Build(step Step, params motion.Params, deadlines motion.Deadlines) *motion.Bounded {
	switch step.Kind {
	case MoveForward, MoveBackward:
		dir := motion.Forward
		if step.Kind == MoveBackward {
			dir = motion.Backward
		}
		d := motion.Seconds(step.Arg)
		return motion.Bound(motion.NewTimedDrive(params, dir, d), marginDeadline(d, deadlines.DriveMargin))
	case TurnToAngle:
		return motion.Bound(motion.NewTurnToAngle(params, step.Arg), deadlines.Turn)
	case TurnToAngleWithNeg:
		return motion.Bound(motion.NewTurnToAngleWithNeg(params, step.Arg), deadlines.Pulse)
	case DropGear:
		return motion.Bound(motion.NewDropGear(params), marginDeadline(params.DropCoilTime, deadlines.GearMargin))
	case OpenDump:
		return motion.Bound(motion.NewOpenDump(params), deadlines.Dump)
	case CloseDump:
		return motion.Bound(motion.NewCloseDump(params), deadlines.Dump)
	}
	panic(fmt.Sprintf("unknown step kind %v", step.Kind))
}

func marginDeadline(d, margin time.Duration) time.Duration {
	if margin <= 0 {
		return 0
	}
	return d + margin
}
