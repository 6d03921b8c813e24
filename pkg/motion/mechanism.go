package motion

import (
	"time"

	"github.com/team5957/oki/pkg/hw"
)

// DropGear runs the coil at full speed for DropCoilTime to push the gear off.
type DropGear struct {
	params Params

	start time.Time
	done  bool
}

func NewDropGear(params Params) *DropGear {
	return &DropGear{params: params}
}

func (d *DropGear) Name() string {
	return "dropGear"
}

func (d *DropGear) Start(r *hw.Robot, now time.Time) {
	d.start = now
	d.done = false
}

func (d *DropGear) Step(r *hw.Robot, now time.Time) {
	if d.done {
		return
	}
	if now.Sub(d.start) < d.params.DropCoilTime {
		r.SetActuatorSpeed(hw.ChannelCoil, d.params.CoilSpeed)
		return
	}
	r.SetActuatorSpeed(hw.ChannelCoil, 0)
	d.done = true
}

func (d *DropGear) Stop(r *hw.Robot) {
	r.SetActuatorSpeed(hw.ChannelCoil, 0)
}

func (d *DropGear) IsComplete() bool {
	return d.done
}

// MoveDump drives the dump bin until its limit switch closes.
type MoveDump struct {
	params Params
	open   bool

	done bool
}

// NewOpenDump raises the bin until the upper switch closes.
func NewOpenDump(params Params) *MoveDump {
	return &MoveDump{params: params, open: true}
}

// NewCloseDump lowers the bin until the lower switch closes.
func NewCloseDump(params Params) *MoveDump {
	return &MoveDump{params: params, open: false}
}

func (d *MoveDump) Name() string {
	if d.open {
		return "openDump"
	}
	return "closeDump"
}

func (d *MoveDump) Start(r *hw.Robot, now time.Time) {
	d.done = false
}

func (d *MoveDump) Step(r *hw.Robot, now time.Time) {
	if d.done {
		return
	}
	sw, speed := hw.SwitchLower, -d.params.DumpSpeed
	if d.open {
		sw, speed = hw.SwitchUpper, d.params.DumpSpeed
	}
	if r.ReadSwitch(sw) {
		r.SetActuatorSpeed(hw.ChannelDump, 0)
		d.done = true
		return
	}
	r.SetActuatorSpeed(hw.ChannelDump, speed)
}

func (d *MoveDump) Stop(r *hw.Robot) {
	r.SetActuatorSpeed(hw.ChannelDump, 0)
}

func (d *MoveDump) IsComplete() bool {
	return d.done
}
