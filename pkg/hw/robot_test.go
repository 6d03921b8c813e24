package hw_test

import (
	"math"
	"testing"

	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/sim"
)

func TestClamp(t *testing.T) {
	for _, tc := range []struct{ in, out float64 }{
		{0, 0}, {0.5, 0.5}, {-0.5, -0.5}, {1, 1}, {-1, -1}, {1.7, 1}, {-30, -1},
		{math.NaN(), 0}, {math.Inf(1), 1}, {math.Inf(-1), -1},
	} {
		if got := hw.Clamp(tc.in); got != tc.out {
			t.Errorf("Clamp(%v) = %v, expected %v", tc.in, got, tc.out)
		}
	}
}

func TestSetDriveClamps(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	r.SetDrive(2, -3)
	cmd, ok := s.Drive.Last()
	if !ok {
		t.Fatal("No drive command recorded")
	}
	if cmd.Translation != 1 || cmd.Rotation != -1 {
		t.Fatalf("Expected clamped command (1, -1), got %+v", cmd)
	}
	if r.LastDrive() != cmd {
		t.Fatalf("LastDrive %+v doesn't match %+v", r.LastDrive(), cmd)
	}
}

func TestSensorFaultsReadSafe(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	s.Gyro.Set(42)
	s.Gyro.Err = sim.ErrInjected
	if a := r.ReadAngle(); a != 0 {
		t.Fatalf("Failed gyro should read 0, got %v", a)
	}
	s.Gyro.Err = nil
	if a := r.ReadAngle(); a != 42 {
		t.Fatalf("Recovered gyro should read 42, got %v", a)
	}

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		s.Gyro.Set(bad)
		if a := r.ReadAngle(); a != 0 {
			t.Fatalf("Gyro reading %v should read 0, got %v", bad, a)
		}
		if r.LastAngle() != 42 {
			t.Fatalf("Non-finite reading %v replaced the last good angle: %v", bad, r.LastAngle())
		}
	}

	s.LowerLimit.Set(true)
	s.LowerLimit.Err = sim.ErrInjected
	if r.ReadSwitch(hw.SwitchLower) {
		t.Fatal("Failed switch should read open")
	}
}

func TestMissingHardwareIsHarmless(t *testing.T) {
	r := &hw.Robot{}
	r.StopAll()
	r.ResetGyro()
	if r.ReadAngle() != 0 || r.ReadSwitch(hw.SwitchUpper) {
		t.Fatal("Empty robot should read safe defaults")
	}
}

func TestStopAll(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	r.SetActuatorSpeed(hw.ChannelWinch, 0.7)
	r.SetActuatorSpeed(hw.ChannelCoil, -0.4)
	r.StopAll()
	if s.Winch.Last() != 0 || s.Coil.Last() != 0 || s.Dump.Last() != 0 {
		t.Fatal("StopAll left a mechanism running")
	}
	if cmd, _ := s.Drive.Last(); cmd != (hw.MotionCommand{}) {
		t.Fatalf("StopAll left the drive at %+v", cmd)
	}
}

func TestNaNNeverReachesTheDrive(t *testing.T) {
	s := sim.New()
	r := s.Robot(nil)
	r.SetDrive(math.NaN(), 0.5)
	r.SetActuatorSpeed(hw.ChannelCoil, math.NaN())
	if cmd, _ := s.Drive.Last(); cmd != (hw.MotionCommand{Rotation: 0.5}) {
		t.Fatalf("Expected NaN throttle to be sent as 0, got %+v", cmd)
	}
	if s.Coil.Last() != 0 {
		t.Fatalf("Expected NaN coil speed to be sent as 0, got %v", s.Coil.Last())
	}
}
