// Package autonomous runs the pre-scripted routines chosen by starting
// position and alliance color.
package autonomous

import (
	"time"

	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/motion"
)

type State int

const (
	Idle State = iota
	Running
	Complete
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Complete:
		return "complete"
	default:
		return "unknown"
	}
}

// Sequencer steps through a script one primitive at a time.  It is driven by
// Tick, once per control cycle, and never blocks.  When a primitive
// completes, the next one starts on the following tick.
type Sequencer struct {
	Params    motion.Params
	Deadlines motion.Deadlines
	// StopOnStall abandons the rest of the script when a primitive hits its
	// deadline.  Otherwise the script carries on with the next step.
	StopOnStall bool

	log *logger.Logger

	state   State
	steps   []Step
	index   int
	current *motion.Bounded
	started []Step
	stalls  []error
}

func New(params motion.Params, deadlines motion.Deadlines, log *logger.Logger) *Sequencer {
	if log == nil {
		log = logger.Discard()
	}
	return &Sequencer{
		Params:    params,
		Deadlines: deadlines,
		log:       log,
	}
}

// Load arms the sequencer with a new script.  An empty script goes straight
// to Complete without touching the hardware.
func (s *Sequencer) Load(steps []Step) {
	s.steps = steps
	s.index = 0
	s.current = nil
	s.started = nil
	s.stalls = nil
	if len(steps) == 0 {
		s.log.Infof("No autonomous routine selected")
		s.state = Complete
		return
	}
	s.log.Infof("Loaded %d step routine", len(steps))
	s.state = Running
}

// Abort drops whatever is running and zeroes the hardware it owned.
func (s *Sequencer) Abort(r *hw.Robot) {
	if s.state != Running {
		return
	}
	if s.current != nil {
		s.current.Stop(r)
	}
	s.log.Warnf("Routine aborted at step %d of %d", s.index+1, len(s.steps))
	s.current = nil
	s.state = Complete
}

func (s *Sequencer) Tick(r *hw.Robot, now time.Time) {
	if s.state != Running {
		return
	}
	if s.current == nil {
		step := s.steps[s.index]
		s.current = Build(step, s.Params, s.Deadlines)
		s.started = append(s.started, step)
		s.log.Infof("Step %d/%d: %v", s.index+1, len(s.steps), step)
		s.current.Start(r, now)
	}

	s.current.Step(r, now)
	if !s.current.IsComplete() {
		return
	}

	if err := s.current.Err(); err != nil {
		s.stalls = append(s.stalls, err)
		if s.StopOnStall {
			s.log.Warnf("Stopping routine: %v", err)
			r.StopAll()
			s.current = nil
			s.state = Complete
			return
		}
	}
	s.current = nil
	s.index++
	if s.index >= len(s.steps) {
		// A trailing one-shot turn leaves its pulse on the drive.
		if r.LastDrive() != (hw.MotionCommand{}) {
			r.SetDrive(0, 0)
		}
		s.log.Infof("Routine complete")
		s.state = Complete
	}
}

func (s *Sequencer) State() State {
	return s.state
}

// Index is the position of the current step in the script.
func (s *Sequencer) Index() int {
	return s.index
}

// Started lists the steps that have been started so far, in order.
func (s *Sequencer) Started() []Step {
	return append([]Step(nil), s.started...)
}

// Stalls lists the deadline errors hit during this run.
func (s *Sequencer) Stalls() []error {
	return append([]error(nil), s.stalls...)
}
