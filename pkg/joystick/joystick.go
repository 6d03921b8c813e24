package joystick

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Numbering used by the Linux xpad driver for an Xbox-style pad, which is
// what the drive team uses:
//
// Buttons
//
//    A = 0, B = 1, X = 2, Y = 3, LB = 4, RB = 5, Back = 6, Start = 7,
//    Guide = 8, L stick = 9, R stick = 10
//
// Axes
//
//    L stick l/r = 0, u/d = 1 (left/up = -32767)
//    LT          = 2 (unpressed = -32767; fully-pressed = 32767)
//    R stick l/r = 3, u/d = 4
//    RT          = 5
//    D-pad   l/r = 6, u/d = 7 (left/up = -32767)
//
// The chooser and mode switching use the PlayStation names for the same
// physical positions.

type EventType uint8

const (
	EventTypeButton = 1
	EventTypeAxis   = 2
	eventTypeInit   = 0x80
)

const (
	ButtonCross    = 0 // A
	ButtonCircle   = 1 // B
	ButtonSquare   = 2 // X
	ButtonTriangle = 3 // Y
	ButtonL1       = 4
	ButtonR1       = 5
	ButtonShare    = 6 // Back
	ButtonOptions  = 7 // Start
	ButtonPS       = 8
	ButtonLStick   = 9
	ButtonRStick   = 10

	AxisLStickX = 0
	AxisLStickY = 1
	AxisL2      = 2
	AxisRStickX = 3
	AxisRStickY = 4
	AxisR2      = 5
	AxisDPadX   = 6
	AxisDPadY   = 7

	MaxAxes    = 16
	MaxButtons = 32
)

func (e EventType) String() string {
	switch e {
	case EventTypeAxis:
		return "axis"
	case EventTypeButton:
		return "button"
	default:
		return fmt.Sprintf("unknown(%d)", uint8(e))
	}
}

type Joystick struct {
	device io.ReadCloser

	deviceEpoch    uint32
	wallclockEpoch time.Time
}

type rawEvent struct {
	Time   uint32
	Value  int16
	Type   uint8
	Number uint8
}

type Event struct {
	Time   time.Time
	Value  int16
	Type   EventType
	Number uint8
	// Init is set on the synthetic events the driver sends on open to
	// report the initial state.
	Init bool
}

func (e *Event) String() string {
	return fmt.Sprintf("%v(%v)=%v", e.Type, e.Number, e.Value)
}

func NewJoystick(device string) (*Joystick, error) {
	f, err := os.Open(device)
	if err != nil {
		return nil, err
	}
	return FromReader(f), nil
}

// FromReader reads js events from an already open stream.
func FromReader(r io.ReadCloser) *Joystick {
	return &Joystick{device: r}
}

func (j *Joystick) ReadEvent() (*Event, error) {
	var rawEvent rawEvent
	err := binary.Read(j.device, binary.LittleEndian, &rawEvent)
	if err != nil {
		return nil, err
	}

	if j.deviceEpoch == 0 {
		j.deviceEpoch = rawEvent.Time
		j.wallclockEpoch = time.Now()
	}

	return &Event{
		Time:   j.wallclockEpoch.Add(time.Duration(rawEvent.Time-j.deviceEpoch) * time.Millisecond),
		Value:  rawEvent.Value,
		Type:   EventType(rawEvent.Type &^ eventTypeInit),
		Number: rawEvent.Number,
		Init:   rawEvent.Type&eventTypeInit != 0,
	}, nil
}

func (j *Joystick) Close() error {
	return j.device.Close()
}

// Gamepad keeps the latest state of one controller, fed by events from the
// reader goroutine and polled once per control tick.
type Gamepad struct {
	lock      sync.Mutex
	connected bool
	state     State
}

func NewGamepad() *Gamepad {
	return &Gamepad{}
}

func (g *Gamepad) Apply(e *Event) {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.connected = true
	switch e.Type {
	case EventTypeAxis:
		if int(e.Number) < MaxAxes {
			g.state.axes[e.Number] = e.Value
		}
	case EventTypeButton:
		if int(e.Number) < MaxButtons {
			down := e.Value != 0
			if down && !g.state.buttons[e.Number] && !e.Init {
				g.state.presses[e.Number]++
			}
			g.state.buttons[e.Number] = down
		}
	}
}

// Disconnect returns the pad to its neutral state.
func (g *Gamepad) Disconnect() {
	g.lock.Lock()
	defer g.lock.Unlock()
	g.connected = false
	g.state = State{}
}

// Snapshot returns the current state and clears the press counters, so each
// press is seen by exactly one snapshot.
func (g *Gamepad) Snapshot() State {
	g.lock.Lock()
	defer g.lock.Unlock()
	s := g.state
	s.Connected = g.connected
	g.state.presses = [MaxButtons]uint8{}
	return s
}

// Run feeds events from j into the pad until the context is cancelled or
// the device fails.
func (g *Gamepad) Run(ctx context.Context, j *Joystick) error {
	defer g.Disconnect()
	for ctx.Err() == nil {
		event, err := j.ReadEvent()
		if err != nil {
			return err
		}
		g.Apply(event)
	}
	return ctx.Err()
}

// State is a point-in-time copy of a gamepad.  The zero State is a pad with
// everything centred and released.
type State struct {
	Connected bool

	axes    [MaxAxes]int16
	buttons [MaxButtons]bool
	presses [MaxButtons]uint8
}

// Axis returns the stick position in [-1, 1].
func (s State) Axis(n int) float64 {
	if n < 0 || n >= MaxAxes {
		return 0
	}
	v := float64(s.axes[n]) / 32767
	if v < -1 {
		v = -1
	}
	return v
}

// Trigger returns an analog trigger in [0, 1], 0 when released.  A pad that
// hasn't reported the axis yet reads as released.
func (s State) Trigger(n int) float64 {
	if n < 0 || n >= MaxAxes || !s.Connected {
		return 0
	}
	return (float64(s.axes[n]) + 32767) / 65534
}

func (s State) Button(n int) bool {
	if n < 0 || n >= MaxButtons {
		return false
	}
	return s.buttons[n]
}

// Pressed reports whether the button went down since the previous snapshot.
func (s State) Pressed(n int) bool {
	if n < 0 || n >= MaxButtons {
		return false
	}
	return s.presses[n] > 0
}

// POV returns the D-pad direction in degrees clockwise from up (0, 45, ...,
// 315), or -1 if it is centred.
func (s State) POV(xAxis, yAxis int) int {
	x, y := s.Axis(xAxis), s.Axis(yAxis)
	const threshold = 0.5
	var dx, dy int
	if x > threshold {
		dx = 1
	} else if x < -threshold {
		dx = -1
	}
	if y > threshold {
		dy = 1
	} else if y < -threshold {
		dy = -1
	}
	switch {
	case dx == 0 && dy == -1:
		return 0
	case dx == 1 && dy == -1:
		return 45
	case dx == 1 && dy == 0:
		return 90
	case dx == 1 && dy == 1:
		return 135
	case dx == 0 && dy == 1:
		return 180
	case dx == -1 && dy == 1:
		return 225
	case dx == -1 && dy == 0:
		return 270
	case dx == -1 && dy == -1:
		return 315
	}
	return -1
}

// WithAxis and WithButton build states for tests and simulation.
func (s State) WithAxis(n int, v int16) State {
	s.Connected = true
	s.axes[n] = v
	return s
}

func (s State) WithButton(n int, down bool) State {
	s.Connected = true
	if down && !s.buttons[n] {
		s.presses[n]++
	}
	s.buttons[n] = down
	return s
}
