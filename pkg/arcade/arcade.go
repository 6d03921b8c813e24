// Package arcade mixes a (throttle, rotation) pair onto the left and right
// sides of a skid-steer drive train, the same way the classic WPILib arcade
// drive does.
package arcade

import (
	"math"

	"github.com/team5957/oki/pkg/hw"
)

// Drive implements hw.Drive over two motor groups.  The right side is
// mounted mirrored, so its output is negated.
type Drive struct {
	Left, Right hw.SpeedController

	// SquaredInputs applies a square curve (keeping the sign) to both
	// inputs for finer control at low speed.
	SquaredInputs bool
	// MaxOutput scales both outputs; zero means 1.
	MaxOutput float64
}

func New(left, right hw.SpeedController) *Drive {
	return &Drive{
		Left:          left,
		Right:         right,
		SquaredInputs: true,
		MaxOutput:     1,
	}
}

func (d *Drive) ArcadeDrive(throttle, rotation float64) error {
	left, right := Mix(throttle, rotation, d.SquaredInputs)
	max := d.MaxOutput
	if max == 0 {
		max = 1
	}
	errL := d.Left.SetSpeed(left * max)
	errR := d.Right.SetSpeed(-right * max)
	if errL != nil {
		return errL
	}
	return errR
}

// Mix returns the left and right side speeds, both in [-1, 1] and both
// positive for forward motion.
func Mix(throttle, rotation float64, squared bool) (left, right float64) {
	move := hw.Clamp(throttle)
	rotate := hw.Clamp(rotation)
	if squared {
		move = applyExpo(move, 2)
		rotate = applyExpo(rotate, 2)
	}

	if move > 0 {
		if rotate > 0 {
			left = move - rotate
			right = math.Max(move, rotate)
		} else {
			left = math.Max(move, -rotate)
			right = move + rotate
		}
	} else {
		if rotate > 0 {
			left = -math.Max(-move, rotate)
			right = move + rotate
		} else {
			left = move - rotate
			right = -math.Max(-move, -rotate)
		}
	}
	return hw.Clamp(left), hw.Clamp(right)
}

func applyExpo(value float64, expo float64) float64 {
	absVal := math.Abs(value)
	absExpo := math.Pow(absVal, expo)
	return math.Copysign(absExpo, value)
}
