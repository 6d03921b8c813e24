// Package sim is an idealised stand-in for the robot's hardware.  Commands are
// recorded so tests and the autosim tool can inspect exactly what was sent,
// and the sensors respond to those commands in a simple, deterministic way:
// every drive command with rotation r turns the robot by r*DegreesPerUnit,
// and every dump command moves the bin by speed*DumpTravelPerUnit.
package sim

import (
	"sync"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/logger"
)

var ErrInjected = errors.New("sim: injected fault")

type Sim struct {
	lock sync.Mutex

	// Degrees turned per drive command at rotation 1.0.
	DegreesPerUnit float64
	// Dump travel per command at speed 1.0; the bin spans [0, 1].
	DumpTravelPerUnit float64

	Drive      *Drive
	Coil       *Motor
	Dump       *Motor
	Winch      *Motor
	Gyro       *Gyro
	UpperLimit *Switch
	LowerLimit *Switch
	Rumble     *Rumble

	dumpPosition float64
}

func New() *Sim {
	s := &Sim{
		DegreesPerUnit:    4,
		DumpTravelPerUnit: 0.25,
	}
	s.Gyro = &Gyro{}
	s.Drive = &Drive{sim: s}
	s.Coil = &Motor{Name: "coil"}
	s.Dump = &Motor{Name: "dump", sim: s}
	s.Winch = &Motor{Name: "winch"}
	s.UpperLimit = &Switch{}
	s.LowerLimit = &Switch{closed: true}
	s.Rumble = &Rumble{}
	return s
}

// Robot wraps the simulated parts in the context struct used by the control
// code.
func (s *Sim) Robot(log *logger.Logger) *hw.Robot {
	if log == nil {
		log = logger.Discard()
	}
	return &hw.Robot{
		Drive:      s.Drive,
		Coil:       s.Coil,
		Dump:       s.Dump,
		Winch:      s.Winch,
		Gyro:       s.Gyro,
		UpperLimit: s.UpperLimit,
		LowerLimit: s.LowerLimit,
		Log:        log,
	}
}

// CommandCount is the total number of drive and mechanism commands recorded.
func (s *Sim) CommandCount() int {
	return len(s.Drive.Commands()) + len(s.Coil.Speeds()) + len(s.Dump.Speeds()) + len(s.Winch.Speeds())
}

func (s *Sim) moveDump(speed float64) {
	s.lock.Lock()
	s.dumpPosition += speed * s.DumpTravelPerUnit
	if s.dumpPosition >= 1 {
		s.dumpPosition = 1
	} else if s.dumpPosition <= 0 {
		s.dumpPosition = 0
	}
	pos := s.dumpPosition
	s.lock.Unlock()

	s.UpperLimit.Set(pos >= 1)
	s.LowerLimit.Set(pos <= 0)
}

// SetDumpPosition places the bin; 0 is closed (lower switch), 1 is open.
func (s *Sim) SetDumpPosition(pos float64) {
	s.lock.Lock()
	s.dumpPosition = pos
	s.lock.Unlock()
	s.UpperLimit.Set(pos >= 1)
	s.LowerLimit.Set(pos <= 0)
}

type Drive struct {
	sim *Sim

	lock     sync.Mutex
	commands []hw.MotionCommand
	Err      error
}

func (d *Drive) ArcadeDrive(throttle, rotation float64) error {
	d.lock.Lock()
	d.commands = append(d.commands, hw.MotionCommand{Translation: throttle, Rotation: rotation})
	err := d.Err
	d.lock.Unlock()
	if d.sim != nil {
		d.sim.Gyro.turn(rotation * d.sim.DegreesPerUnit)
	}
	return err
}

func (d *Drive) Commands() []hw.MotionCommand {
	d.lock.Lock()
	defer d.lock.Unlock()
	return append([]hw.MotionCommand(nil), d.commands...)
}

func (d *Drive) Last() (hw.MotionCommand, bool) {
	d.lock.Lock()
	defer d.lock.Unlock()
	if len(d.commands) == 0 {
		return hw.MotionCommand{}, false
	}
	return d.commands[len(d.commands)-1], true
}

type Motor struct {
	Name string
	sim  *Sim

	lock   sync.Mutex
	speeds []float64
}

func (m *Motor) SetSpeed(speed float64) error {
	m.lock.Lock()
	m.speeds = append(m.speeds, speed)
	m.lock.Unlock()
	if m.sim != nil {
		m.sim.moveDump(speed)
	}
	return nil
}

func (m *Motor) Speeds() []float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	return append([]float64(nil), m.speeds...)
}

func (m *Motor) Last() float64 {
	m.lock.Lock()
	defer m.lock.Unlock()
	if len(m.speeds) == 0 {
		return 0
	}
	return m.speeds[len(m.speeds)-1]
}

type Gyro struct {
	lock   sync.Mutex
	angle  float64
	resets int
	Err    error
	// Frozen stops the gyro from following drive commands, to model a
	// sensor that never reaches its target.
	Frozen bool
}

func (g *Gyro) Angle() (float64, error) {
	g.lock.Lock()
	defer g.lock.Unlock()
	if g.Err != nil {
		return 0, g.Err
	}
	return g.angle, nil
}

func (g *Gyro) Reset() error {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.angle = 0
	g.resets++
	return nil
}

func (g *Gyro) Set(angle float64) {
	g.lock.Lock()
	g.angle = angle
	g.lock.Unlock()
}

func (g *Gyro) Resets() int {
	g.lock.Lock()
	defer g.lock.Unlock()
	return g.resets
}

func (g *Gyro) turn(delta float64) {
	g.lock.Lock()
	if !g.Frozen {
		g.angle += delta
	}
	g.lock.Unlock()
}

type Switch struct {
	lock   sync.Mutex
	closed bool
	Err    error
}

func (s *Switch) IsClosed() (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	return s.closed, s.Err
}

func (s *Switch) Set(closed bool) {
	s.lock.Lock()
	s.closed = closed
	s.lock.Unlock()
}

type Rumble struct {
	lock        sync.Mutex
	Left, Right float64
	Writes      int
}

func (r *Rumble) SetRumble(left, right float64) error {
	r.lock.Lock()
	r.Left, r.Right = left, right
	r.Writes++
	r.lock.Unlock()
	return nil
}

var (
	_ hw.Drive           = (*Drive)(nil)
	_ hw.SpeedController = (*Motor)(nil)
	_ hw.Gyro            = (*Gyro)(nil)
	_ hw.LimitSwitch     = (*Switch)(nil)
	_ hw.Rumbler         = (*Rumble)(nil)
)
