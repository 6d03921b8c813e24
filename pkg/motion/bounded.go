package motion

import (
	"time"

	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/hw"
)

// Bounded aborts the wrapped primitive if it is still running Max after it
// started.  An aborted primitive has its actuator zeroed, reports complete,
// and returns an error wrapping ErrStalled from Err.
type Bounded struct {
	Primitive
	Max time.Duration

	start   time.Time
	aborted bool
	err     error
}

func Bound(p Primitive, max time.Duration) *Bounded {
	return &Bounded{Primitive: p, Max: max}
}

func (b *Bounded) Start(r *hw.Robot, now time.Time) {
	b.start = now
	b.aborted = false
	b.err = nil
	b.Primitive.Start(r, now)
}

func (b *Bounded) Step(r *hw.Robot, now time.Time) {
	if b.IsComplete() {
		return
	}
	if b.Max > 0 && now.Sub(b.start) >= b.Max {
		b.Primitive.Stop(r)
		b.aborted = true
		b.err = errors.Wrapf(ErrStalled, "%s still running after %v", b.Name(), b.Max)
		if r.Log != nil {
			r.Log.Warnf("Aborting: %v", b.err)
		}
		return
	}
	b.Primitive.Step(r, now)
}

func (b *Bounded) IsComplete() bool {
	return b.aborted || b.Primitive.IsComplete()
}

// Err is non-nil only if the deadline fired.
func (b *Bounded) Err() error {
	return b.err
}
