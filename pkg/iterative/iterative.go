// Package iterative is the robot's main loop.  It ticks at a fixed period,
// works out which phase the robot should be in, calls that phase's Init on
// entry and its Periodic every tick.  A panic in either is recovered and the
// robot is stopped, so a bug in one phase can't take driver control away.
package iterative

import (
	"context"
	"fmt"
	"time"

	"github.com/team5957/oki/pkg/joystick"
	"github.com/team5957/oki/pkg/logger"
)

type Phase int

const (
	Disabled Phase = iota
	Autonomous
	Teleop
	Test

	numPhases
)

func (p Phase) String() string {
	switch p {
	case Disabled:
		return "Disabled"
	case Autonomous:
		return "Autonomous"
	case Teleop:
		return "Teleop"
	case Test:
		return "Test"
	default:
		return fmt.Sprintf("Phase(%d)", int(p))
	}
}

func (p Phase) Next() Phase {
	return (p + 1) % numPhases
}

func (p Phase) Prev() Phase {
	return (p + numPhases - 1) % numPhases
}

// Inputs is the state of both gamepads for one tick.
type Inputs struct {
	Driver   joystick.State
	Operator joystick.State
}

type Robot interface {
	Init(phase Phase, now time.Time)
	Periodic(phase Phase, now time.Time, in Inputs)
	// StopAll zeroes every actuator.
	StopAll()
}

// MatchTimes runs a scripted match: autonomous then teleop then disabled.
type MatchTimes struct {
	Autonomous time.Duration
	Teleop     time.Duration
}

type Runner struct {
	Robot    Robot
	Driver   *joystick.Gamepad
	Operator *joystick.Gamepad
	Period   time.Duration
	// Match, if set, makes the phase follow the match clock instead of the
	// driver's Options/Share buttons.
	Match *MatchTimes
	// OnPhase is called after each phase change.
	OnPhase func(Phase)

	log *logger.Logger

	phase      Phase
	started    bool
	matchStart time.Time
	requested  *Phase
	panics     int
}

func New(robot Robot, period time.Duration, log *logger.Logger) *Runner {
	if log == nil {
		log = logger.Discard()
	}
	return &Runner{
		Robot:  robot,
		Period: period,
		log:    log,
	}
}

func (r *Runner) Phase() Phase {
	return r.phase
}

// Panics counts the entry point panics recovered so far.
func (r *Runner) Panics() int {
	return r.panics
}

// Request asks for a phase change on the next tick.  It must be called from
// the same goroutine as Tick.
func (r *Runner) Request(p Phase) {
	r.requested = &p
}

func (r *Runner) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.Period)
	defer ticker.Stop()
	defer r.Robot.StopAll()
	for {
		select {
		case <-ctx.Done():
			r.log.Infof("Stopping: %v", ctx.Err())
			return ctx.Err()
		case now := <-ticker.C:
			r.Tick(now)
		}
	}
}

func snapshot(g *joystick.Gamepad) joystick.State {
	if g == nil {
		return joystick.State{}
	}
	return g.Snapshot()
}

func (r *Runner) Tick(now time.Time) {
	in := Inputs{
		Driver:   snapshot(r.Driver),
		Operator: snapshot(r.Operator),
	}

	next := r.phase
	if !r.started {
		r.matchStart = now
		if r.Match != nil {
			next = Autonomous
		}
	}
	switch {
	case r.requested != nil:
		next = *r.requested
		r.requested = nil
	case r.Match != nil:
		next = r.matchPhase(now)
	case in.Driver.Pressed(joystick.ButtonOptions):
		next = r.phase.Next()
	case in.Driver.Pressed(joystick.ButtonShare):
		next = r.phase.Prev()
	}

	if !r.started || next != r.phase {
		if r.started {
			r.log.Infof("%v -> %v", r.phase, next)
		} else {
			r.log.Infof("Starting in %v", next)
		}
		r.started = true
		r.phase = next
		r.safely("Init", func() { r.Robot.Init(next, now) })
		if r.OnPhase != nil {
			r.OnPhase(next)
		}
	}
	r.safely("Periodic", func() { r.Robot.Periodic(r.phase, now, in) })
}

func (r *Runner) matchPhase(now time.Time) Phase {
	elapsed := now.Sub(r.matchStart)
	switch {
	case elapsed < r.Match.Autonomous:
		return Autonomous
	case elapsed < r.Match.Autonomous+r.Match.Teleop:
		return Teleop
	default:
		return Disabled
	}
}

func (r *Runner) safely(what string, f func()) {
	defer func() {
		if p := recover(); p != nil {
			r.panics++
			r.log.Errorf("%v %s panicked: %v; stopping robot", r.phase, what, p)
			r.Robot.StopAll()
		}
	}()
	f()
}
