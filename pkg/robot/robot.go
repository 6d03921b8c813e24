// Package robot ties the pieces together into the phase entry points that the
// main loop calls: Init once on entering a phase, Periodic every tick.
package robot

import (
	"fmt"
	"time"

	"github.com/team5957/oki/pkg/autonomous"
	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/iterative"
	"github.com/team5957/oki/pkg/joystick"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/screen"
	"github.com/team5957/oki/pkg/selection"
	"github.com/team5957/oki/pkg/sound"
	"github.com/team5957/oki/pkg/teleop"
	"github.com/team5957/oki/pkg/tunable"
)

// Sounds played on entering each phase, relative to the sound directory.
var phaseSounds = map[iterative.Phase]string{
	iterative.Disabled:   "disabled.wav",
	iterative.Autonomous: "autonomous.wav",
	iterative.Teleop:     "teleop.wav",
	iterative.Test:       "test.wav",
}

type VoltageSource interface {
	Voltage() (float64, bool)
}

type Robot struct {
	HW        *hw.Robot
	Chooser   *selection.Chooser
	Sequencer *autonomous.Sequencer
	Teleop    *teleop.Dispatcher
	Tunables  *tunable.Tunables

	// Optional feedback; nil disables each.
	Store   *selection.FileSource
	Sound   *sound.Player
	Screen  *screen.Screen
	Battery VoltageSource

	log *logger.Logger

	kp, tolerance *tunable.Tunable

	sel        selection.Selection
	autoRan    bool
	lastPOV    int
	stallsSeen int
}

// New is the robot's one-time initialisation: it wires the control code to
// the hardware and sets up the tunables from the sequencer's parameters.
func New(hwr *hw.Robot, chooser *selection.Chooser, seq *autonomous.Sequencer, tele *teleop.Dispatcher, log *logger.Logger) *Robot {
	if log == nil {
		log = logger.Discard()
	}
	r := &Robot{
		HW:        hwr,
		Chooser:   chooser,
		Sequencer: seq,
		Teleop:    tele,
		Tunables:  &tunable.Tunables{Log: log},
		log:       log,
		lastPOV:   -1,
	}
	r.kp = r.Tunables.Create("kp", seq.Params.Kp, 0.005, 0, 0.2)
	r.tolerance = r.Tunables.Create("turn tolerance", seq.Params.TurnTolerance, 0.25, 0, 10)
	return r
}

func (r *Robot) Init(phase iterative.Phase, now time.Time) {
	r.Sound.Play(phaseSounds[phase])
	r.Screen.Update(func(st *screen.Status) {
		st.Phase = phase.String()
		st.Notice = ""
	})
	switch phase {
	case iterative.Disabled:
		r.DisabledInit()
	case iterative.Autonomous:
		r.AutonomousInit(now)
	case iterative.Teleop:
		r.TeleopInit()
	case iterative.Test:
		r.TestInit()
	}
}

func (r *Robot) Periodic(phase iterative.Phase, now time.Time, in iterative.Inputs) {
	switch phase {
	case iterative.Disabled:
		r.DisabledPeriodic(in)
	case iterative.Autonomous:
		r.AutonomousPeriodic(now)
	case iterative.Teleop:
		r.TeleopPeriodic(in)
	case iterative.Test:
		r.TestPeriodic(in)
	}
	r.updateScreen()
}

func (r *Robot) StopAll() {
	r.HW.StopAll()
	if r.Teleop != nil {
		r.Teleop.Stop()
	}
}

func (r *Robot) DisabledInit() {
	r.Sequencer.Abort(r.HW)
	r.StopAll()
	r.showSelection()
}

// DisabledPeriodic lets the driver pick the autonomous routine: Triangle
// cycles the position, Circle the alliance color, Square the drive mode.
func (r *Robot) DisabledPeriodic(in iterative.Inputs) {
	var sel selection.Selection
	switch {
	case in.Driver.Pressed(joystick.ButtonTriangle):
		sel = r.Chooser.CyclePosition()
	case in.Driver.Pressed(joystick.ButtonCircle):
		sel = r.Chooser.CycleColor()
	case in.Driver.Pressed(joystick.ButtonSquare):
		sel = r.Chooser.CycleDriveMode()
	default:
		return
	}
	r.log.Infof("Selected %v", sel)
	if r.Store != nil {
		if err := r.Store.Save(sel); err != nil {
			r.log.Warnf("Failed to save selection: %v", err)
		}
	}
	r.showSelection()
}

func (r *Robot) selected() selection.Selection {
	sel, err := r.Chooser.Selected()
	if err != nil {
		r.log.Warnf("Selection unavailable, using %v: %v", sel, err)
	}
	return sel
}

func (r *Robot) AutonomousInit(now time.Time) {
	r.sel = r.selected()
	r.autoRan = true

	r.log.Infof("Team: %v", r.sel.Color)
	r.log.Infof("Auto selected: %v", r.sel.Position)
	r.log.Infof("Driving Mode: %v", r.sel.DriveMode)

	r.Sequencer.Params.Kp = r.kp.Get()
	r.Sequencer.Params.TurnTolerance = r.tolerance.Get()
	r.Sequencer.Load(autonomous.Script(r.sel))
	r.stallsSeen = 0
}

func (r *Robot) AutonomousPeriodic(now time.Time) {
	r.Sequencer.Tick(r.HW, now)
	stalls := r.Sequencer.Stalls()
	if len(stalls) > r.stallsSeen {
		r.stallsSeen = len(stalls)
		r.Screen.Update(func(st *screen.Status) {
			st.Notice = fmt.Sprintf("%d stalled", len(stalls))
		})
	}
}

// TeleopInit stops anything autonomous left running.  The drive mode is the
// one read when autonomous started; if autonomous never ran it is read now.
func (r *Robot) TeleopInit() {
	r.Sequencer.Abort(r.HW)
	if !r.autoRan {
		r.sel = r.selected()
	}
	r.Teleop.Init(r.sel.DriveMode)
}

func (r *Robot) TeleopPeriodic(in iterative.Inputs) {
	r.Teleop.Tick(r.HW, in.Driver, in.Operator)
}

func (r *Robot) TestInit() {
	r.Sequencer.Abort(r.HW)
	r.StopAll()
	r.lastPOV = -1
	for _, t := range r.Tunables.All {
		r.log.Infof("Tunable %s = %v", t.Name, t.Get())
	}
}

// TestPeriodic tunes the autonomous constants: L1/R1 pick the tunable,
// D-pad up/down changes it.  New values apply from the next autonomous run.
func (r *Robot) TestPeriodic(in iterative.Inputs) {
	if in.Driver.Pressed(joystick.ButtonL1) {
		r.Tunables.SelectPrev()
	}
	if in.Driver.Pressed(joystick.ButtonR1) {
		r.Tunables.SelectNext()
	}
	pov := in.Driver.POV(joystick.AxisDPadX, joystick.AxisDPadY)
	if pov != r.lastPOV {
		switch pov {
		case 0:
			r.Tunables.Adjust(1)
		case 180:
			r.Tunables.Adjust(-1)
		}
	}
	r.lastPOV = pov
	cur := r.Tunables.Current()
	r.Screen.Update(func(st *screen.Status) {
		st.Notice = fmt.Sprintf("%s=%.3f", cur.Name, cur.Get())
	})
}

func (r *Robot) showSelection() {
	sel, _ := r.Chooser.Selected()
	r.Screen.Update(func(st *screen.Status) {
		st.Selection = fmt.Sprintf("%v/%v", sel.Position, sel.Color)
		st.DriveMode = sel.DriveMode.String()
	})
}

func (r *Robot) updateScreen() {
	if r.Screen == nil {
		return
	}
	heading := r.HW.LastAngle()
	var voltage float64
	if r.Battery != nil {
		voltage, _ = r.Battery.Voltage()
	}
	r.Screen.Update(func(st *screen.Status) {
		st.Heading = heading
		st.Voltage = voltage
	})
}

var _ iterative.Robot = (*Robot)(nil)
