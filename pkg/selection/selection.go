// Package selection holds the pre-match choices: starting position, alliance
// color and teleop drive mode.
package selection

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

type Position int

const (
	DoNothing Position = iota
	Middle
	Left
	Right
	Demo

	numPositions
)

type Color int

const (
	Blue Color = iota
	Red

	numColors
)

type DriveMode int

const (
	Sticks DriveMode = iota
	Triggers
	FlightStick

	numDriveModes
)

// Selection is read once on phase entry and never modified afterwards.
type Selection struct {
	Position  Position  `yaml:"position"`
	Color     Color     `yaml:"color"`
	DriveMode DriveMode `yaml:"drive_mode"`
}

func (s Selection) String() string {
	return fmt.Sprintf("%v/%v/%v", s.Position, s.Color, s.DriveMode)
}

var positionNames = [...]string{
	DoNothing: "Do Nothing",
	Middle:    "Drive Forward",
	Left:      "Left Auto",
	Right:     "Right Auto",
	Demo:      "Demo",
}

// Keys accepted in config files and on the command line, alongside the
// display names.
var positionKeys = [...]string{
	DoNothing: "do-nothing",
	Middle:    "middle",
	Left:      "left",
	Right:     "right",
	Demo:      "demo",
}

var colorNames = [...]string{
	Blue: "Blue",
	Red:  "Red",
}

var driveModeNames = [...]string{
	Sticks:      "Sticks",
	Triggers:    "Triggers",
	FlightStick: "Flight Stick",
}

var driveModeKeys = [...]string{
	Sticks:      "sticks",
	Triggers:    "triggers",
	FlightStick: "flight-stick",
}

func (p Position) String() string {
	if p < 0 || p >= numPositions {
		return fmt.Sprintf("Position(%d)", int(p))
	}
	return positionNames[p]
}

// Next cycles through the positions; used by the gamepad chooser.
func (p Position) Next() Position {
	return (p + 1) % numPositions
}

func (c Color) String() string {
	if c < 0 || c >= numColors {
		return fmt.Sprintf("Color(%d)", int(c))
	}
	return colorNames[c]
}

func (c Color) Next() Color {
	return (c + 1) % numColors
}

func (m DriveMode) String() string {
	if m < 0 || m >= numDriveModes {
		return fmt.Sprintf("DriveMode(%d)", int(m))
	}
	return driveModeNames[m]
}

func (m DriveMode) Next() DriveMode {
	return (m + 1) % numDriveModes
}

func normalise(s string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
}

func ParsePosition(s string) (Position, error) {
	n := normalise(s)
	for p := Position(0); p < numPositions; p++ {
		if n == positionKeys[p] || n == normalise(positionNames[p]) {
			return p, nil
		}
	}
	return DoNothing, errors.Errorf("unknown position %q", s)
}

func ParseColor(s string) (Color, error) {
	n := normalise(s)
	for c := Color(0); c < numColors; c++ {
		if n == normalise(colorNames[c]) {
			return c, nil
		}
	}
	return Blue, errors.Errorf("unknown color %q", s)
}

func ParseDriveMode(s string) (DriveMode, error) {
	n := normalise(s)
	for m := DriveMode(0); m < numDriveModes; m++ {
		if n == driveModeKeys[m] || n == normalise(driveModeNames[m]) {
			return m, nil
		}
	}
	return Sticks, errors.Errorf("unknown drive mode %q", s)
}

func (p Position) MarshalYAML() (interface{}, error) {
	if p < 0 || p >= numPositions {
		return nil, errors.Errorf("invalid position %d", int(p))
	}
	return positionKeys[p], nil
}

func (p *Position) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParsePosition(s)
	if err != nil {
		return err
	}
	*p = v
	return nil
}

func (c Color) MarshalYAML() (interface{}, error) {
	if c < 0 || c >= numColors {
		return nil, errors.Errorf("invalid color %d", int(c))
	}
	return strings.ToLower(colorNames[c]), nil
}

func (c *Color) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseColor(s)
	if err != nil {
		return err
	}
	*c = v
	return nil
}

func (m DriveMode) MarshalYAML() (interface{}, error) {
	if m < 0 || m >= numDriveModes {
		return nil, errors.Errorf("invalid drive mode %d", int(m))
	}
	return driveModeKeys[m], nil
}

func (m *DriveMode) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	v, err := ParseDriveMode(s)
	if err != nil {
		return err
	}
	*m = v
	return nil
}
