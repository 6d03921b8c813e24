// Package angle has helpers for headings.  Sensors such as the BNO08x report
// a wrapped yaw in (-180, 180]; the control code wants the continuous angle
// that a rate-integrating gyro gives, so Unwrapper stitches the seam back
// together.
package angle

import "math"

// PlusMinus180 is an angle in degrees, stored in range (-180, 180].
type PlusMinus180 struct {
	float64
}

func (a PlusMinus180) Sub(b PlusMinus180) PlusMinus180 {
	return FromFloat(a.float64 - b.float64)
}

// Float returns the angle in degrees, range (-180, 180].
func (a PlusMinus180) Float() float64 {
	return a.float64
}

// FromFloat reduces f modulo 360 into (-180, 180].
func FromFloat(f float64) PlusMinus180 {
	d := math.Mod(f, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return PlusMinus180{d}
}

// Unwrapper accumulates successive wrapped readings into a continuous angle,
// measured from the reading at the last Reset.  It assumes the robot turns
// less than 180 degrees between readings.
type Unwrapper struct {
	primed bool
	last   PlusMinus180
	total  float64
}

// Update feeds a new wrapped reading and returns the continuous angle.
func (u *Unwrapper) Update(wrapped float64) float64 {
	a := FromFloat(wrapped)
	if !u.primed {
		u.primed = true
		u.last = a
		return u.total
	}
	u.total += a.Sub(u.last).Float()
	u.last = a
	return u.total
}

// Angle is the continuous angle as of the last Update.
func (u *Unwrapper) Angle() float64 {
	return u.total
}

// Reset zeroes the continuous angle; the next reading becomes the new
// reference.
func (u *Unwrapper) Reset() {
	u.primed = false
	u.total = 0
}
