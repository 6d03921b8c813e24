// Package tunable holds controller constants that can be nudged from the
// gamepad in test mode, so they can be tuned on the practice field without a
// redeploy.
package tunable

import (
	"math"
	"sync"

	"github.com/team5957/oki/pkg/logger"
)

type Tunable struct {
	Name string
	Step float64
	Min  float64
	Max  float64

	lock  sync.Mutex
	value float64
}

// Add moves the value by steps increments, staying within [Min, Max].
func (t *Tunable) Add(steps int) float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	v := t.value + float64(steps)*t.Step
	if t.Step > 0 {
		// Round to the step to keep repeated adds from drifting.
		v = math.Round(v/t.Step) * t.Step
	}
	t.value = math.Max(t.Min, math.Min(t.Max, v))
	return t.value
}

func (t *Tunable) Get() float64 {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.value
}

type Tunables struct {
	All []*Tunable
	Log *logger.Logger

	selected int
}

func (t *Tunables) Create(name string, value, step, min, max float64) *Tunable {
	newTunable := &Tunable{
		Name:  name,
		Step:  step,
		Min:   min,
		Max:   max,
		value: value,
	}
	t.All = append(t.All, newTunable)
	return newTunable
}

func (t *Tunables) SelectNext() {
	t.selected++
	if t.selected >= len(t.All) {
		t.selected = 0
	}
	t.logSelected()
}

func (t *Tunables) SelectPrev() {
	t.selected--
	if t.selected < 0 {
		t.selected = len(t.All) - 1
	}
	t.logSelected()
}

// Adjust changes the selected tunable.
func (t *Tunables) Adjust(steps int) {
	cur := t.Current()
	v := cur.Add(steps)
	if t.Log != nil {
		t.Log.Infof("Tunable %s = %v", cur.Name, v)
	}
}

func (t *Tunables) logSelected() {
	if t.Log != nil {
		t.Log.Infof("Tunable %s selected, value: %v", t.Current().Name, t.Current().Get())
	}
}

func (t *Tunables) Current() *Tunable {
	return t.All[t.selected]
}
