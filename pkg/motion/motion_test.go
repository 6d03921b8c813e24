package motion

import (
	"math"
	"testing"
	"time"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/sim"
)

const tick = 20 * time.Millisecond

var t0 = time.Date(2017, 3, 4, 10, 0, 0, 0, time.UTC)

// runTicks starts p and steps it once per tick until it completes or maxTicks
// is reached.  Returns the number of ticks it took.
func runTicks(t *testing.T, p Primitive, r *hw.Robot, maxTicks int) int {
	t.Helper()
	p.Start(r, t0)
	for i := 0; i < maxTicks; i++ {
		p.Step(r, t0.Add(time.Duration(i)*tick))
		if p.IsComplete() {
			return i + 1
		}
	}
	t.Fatalf("%s didn't complete in %d ticks", p.Name(), maxTicks)
	return 0
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestTimedDriveForward(t *testing.T) {
	s := sim.New()
	s.Gyro.Frozen = true
	r := s.Robot(nil)

	p := NewTimedDrive(DefaultParams(), Forward, 3*time.Second)
	ticks := runTicks(t, p, r, 1000)
	if ticks != 151 {
		t.Fatalf("Expected 150 driving ticks plus a stop tick, got %d ticks", ticks)
	}

	cmds := s.Drive.Commands()
	if len(cmds) != 151 {
		t.Fatalf("Expected 151 commands, got %d", len(cmds))
	}
	for i, c := range cmds[:150] {
		if c.Translation != 0.5 {
			t.Fatalf("Command %d: translation %v, expected 0.5", i, c.Translation)
		}
	}
	if cmds[150] != (hw.MotionCommand{}) {
		t.Fatalf("Final command should be a stop, got %+v", cmds[150])
	}

	// Completed primitives stay quiet.
	p.Step(r, t0.Add(time.Hour))
	if len(s.Drive.Commands()) != 151 {
		t.Fatal("TimedDrive issued a command after completion")
	}
}

func TestTimedDriveBackwardCorrectsHeading(t *testing.T) {
	s := sim.New()
	s.Gyro.Frozen = true
	s.Gyro.Set(10)
	r := s.Robot(nil)

	p := NewTimedDrive(DefaultParams(), Backward, time.Second)
	p.Start(r, t0)
	p.Step(r, t0)
	cmd, _ := s.Drive.Last()
	if cmd.Translation != -0.5 {
		t.Errorf("Backward drive should use -0.5, got %v", cmd.Translation)
	}
	if !near(cmd.Rotation, -0.3) {
		t.Errorf("Heading correction for 10 degrees should be -0.3, got %v", cmd.Rotation)
	}
	if s.Gyro.Resets() != 0 {
		t.Error("TimedDrive must not reset the gyro")
	}
}

func TestTimedDriveZeroDuration(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	if ticks := runTicks(t, NewTimedDrive(DefaultParams(), Forward, 0), r, 5); ticks != 1 {
		t.Fatalf("Zero duration drive should finish on its first tick, took %d", ticks)
	}
	cmds := s.Drive.Commands()
	if len(cmds) != 1 || cmds[0] != (hw.MotionCommand{}) {
		t.Fatalf("Expected a single stop command, got %+v", cmds)
	}
}

func TestTurnToAngle(t *testing.T) {
	s := sim.New()
	s.Gyro.Set(33)
	r := s.Robot(nil)

	p := NewTurnToAngle(DefaultParams(), 60)
	runTicks(t, p, r, 1000)

	if s.Gyro.Resets() != 1 {
		t.Errorf("Expected one gyro reset, got %d", s.Gyro.Resets())
	}
	cmds := s.Drive.Commands()
	for i, c := range cmds[:len(cmds)-1] {
		if c.Rotation != 0.5 || c.Translation != 0 {
			t.Fatalf("Command %d: %+v, expected pure +0.5 rotation", i, c)
		}
	}
	if cmds[len(cmds)-1] != (hw.MotionCommand{}) {
		t.Errorf("Turn should finish with a stop, got %+v", cmds[len(cmds)-1])
	}
	if a, _ := s.Gyro.Angle(); a != 60 {
		t.Errorf("Expected to stop at exactly 60 degrees, got %v", a)
	}
}

func TestTurnToAngleAbove180SpinsNegative(t *testing.T) {
	s := sim.New()
	// An inverted gyro lets a negative spin count upwards so the turn can
	// actually finish.
	s.DegreesPerUnit = -4
	r := s.Robot(nil)

	runTicks(t, NewTurnToAngle(DefaultParams(), 270), r, 1000)
	cmds := s.Drive.Commands()
	for i, c := range cmds[:len(cmds)-1] {
		if c.Rotation != -0.5 {
			t.Fatalf("Command %d: rotation %v, expected -0.5", i, c.Rotation)
		}
	}
	if a, _ := s.Gyro.Angle(); a != 270 {
		t.Errorf("Expected to stop at 270, got %v", a)
	}
}

func TestTurnToAngleAlreadyThere(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	if ticks := runTicks(t, NewTurnToAngle(DefaultParams(), 0), r, 5); ticks != 1 {
		t.Fatalf("Turn to 0 after reset should finish immediately, took %d ticks", ticks)
	}
}

func TestTurnToAngleExactEqualityStalls(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)

	params := DefaultParams()
	params.TurnTolerance = 0
	// 2 degree steps never land on 61 exactly.
	b := Bound(NewTurnToAngle(params, 61), time.Second)
	ticks := runTicks(t, b, r, 1000)
	if ticks != 51 {
		t.Errorf("Expected the deadline to fire on tick 51, fired on %d", ticks)
	}
	if errors.Cause(b.Err()) != ErrStalled {
		t.Fatalf("Expected ErrStalled, got %v", b.Err())
	}
	if cmd, _ := s.Drive.Last(); cmd != (hw.MotionCommand{}) {
		t.Fatalf("Aborted turn left the drive at %+v", cmd)
	}
}

func TestTurnToAngleWithNegIsOneShot(t *testing.T) {
	for _, target := range []float64{-60, -45, 45, 5, -10, 10} {
		s := sim.New()
		s.Gyro.Set(17)
		r := s.Robot(nil)

		p := NewTurnToAngleWithNeg(DefaultParams(), target)
		if ticks := runTicks(t, p, r, 5); ticks != 1 {
			t.Fatalf("Pulse(%v) took %d ticks", target, ticks)
		}
		p.Step(r, t0.Add(tick))

		cmds := s.Drive.Commands()
		if len(cmds) != 1 {
			t.Fatalf("Pulse(%v) sent %d commands, expected 1", target, len(cmds))
		}
		expected := 0.5 * 0.03 * target
		if !near(cmds[0].Rotation, expected) || cmds[0].Translation != 0 {
			t.Errorf("Pulse(%v) sent %+v, expected rotation %v", target, cmds[0], expected)
		}
	}
}

func TestDropGear(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)

	ticks := runTicks(t, NewDropGear(DefaultParams()), r, 1000)
	if ticks != 201 {
		t.Errorf("Expected 200 ticks of coil plus a stop tick, got %d", ticks)
	}
	speeds := s.Coil.Speeds()
	zeros := 0
	for i, sp := range speeds {
		if sp == 0 {
			zeros++
			if i != len(speeds)-1 {
				t.Fatalf("Coil stopped early at command %d", i)
			}
		} else if sp != 1 {
			t.Fatalf("Coil command %d = %v, expected full speed", i, sp)
		}
	}
	if zeros != 1 {
		t.Fatalf("Expected exactly one stop command, got %d", zeros)
	}
}

func TestOpenAndCloseDump(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)

	runTicks(t, NewOpenDump(DefaultParams()), r, 100)
	expectSpeeds(t, s.Dump.Speeds(), []float64{1, 1, 1, 1, 0})

	// Already open: completes straight away with a single stop.
	runTicks(t, NewOpenDump(DefaultParams()), r, 1)
	expectSpeeds(t, s.Dump.Speeds(), []float64{1, 1, 1, 1, 0, 0})

	runTicks(t, NewCloseDump(DefaultParams()), r, 100)
	expectSpeeds(t, s.Dump.Speeds()[6:], []float64{-1, -1, -1, -1, 0})
	if closed, _ := s.LowerLimit.IsClosed(); !closed {
		t.Fatal("Dump should have ended on the lower switch")
	}
}

func TestDumpStuckSwitchIsBounded(t *testing.T) {
	s := sim.New()
	s.DumpTravelPerUnit = 0
	r := s.Robot(nil)

	b := Bound(NewOpenDump(DefaultParams()), 3*time.Second)
	runTicks(t, b, r, 1000)
	if errors.Cause(b.Err()) != ErrStalled {
		t.Fatalf("Expected ErrStalled, got %v", b.Err())
	}
	if s.Dump.Last() != 0 {
		t.Fatal("Aborted dump wasn't stopped")
	}
}

func TestBoundedPassesThroughWhenInTime(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	b := Bound(NewTimedDrive(DefaultParams(), Forward, time.Second), 3*time.Second)
	runTicks(t, b, r, 1000)
	if b.Err() != nil {
		t.Fatalf("Unexpected error: %v", b.Err())
	}
}

func expectSpeeds(t *testing.T, actual, expected []float64) {
	t.Helper()
	if len(actual) != len(expected) {
		t.Fatalf("Expected speeds %v, got %v", expected, actual)
	}
	for i := range actual {
		if actual[i] != expected[i] {
			t.Fatalf("Expected speeds %v, got %v", expected, actual)
		}
	}
}
