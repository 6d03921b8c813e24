package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/team5957/oki/pkg/joystick"
	"github.com/team5957/oki/pkg/rumble"
)

var CLI struct {
	Device string `arg:"" optional:"" help:"Joystick device." default:"/dev/input/js0"`
	Rumble string `help:"Event device to rumble while the triggers are held."`
	Raw    bool   `help:"Print raw events instead of the pad state."`
}

var buttonNames = map[int]string{
	joystick.ButtonCross:    "Cross",
	joystick.ButtonCircle:   "Circle",
	joystick.ButtonSquare:   "Square",
	joystick.ButtonTriangle: "Triangle",
	joystick.ButtonL1:       "L1",
	joystick.ButtonR1:       "R1",
	joystick.ButtonShare:    "Share",
	joystick.ButtonOptions:  "Options",
	joystick.ButtonPS:       "PS",
}

func main() {
	kong.Parse(&CLI, kong.Description("Prints what the robot sees from a gamepad."))

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	var r *rumble.Rumbler
	if CLI.Rumble != "" {
		var err error
		r, err = rumble.Open(CLI.Rumble)
		if err != nil {
			fmt.Println("No rumble:", err)
		} else {
			defer r.Close()
		}
	}

	j := initJoystick(CLI.Device)
	defer j.Close()

	if CLI.Raw {
		for ctx.Err() == nil {
			event, err := j.ReadEvent()
			if err != nil {
				fmt.Printf("Failed to read from joystick: %v.\n", err)
				return
			}
			fmt.Println(event)
		}
		return
	}

	pad := joystick.NewGamepad()
	go func() {
		defer cancel()
		err := pad.Run(ctx, j)
		fmt.Printf("Joystick failed: %v\n", err)
	}()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		s := pad.Snapshot()
		for n, name := range buttonNames {
			if s.Pressed(n) {
				fmt.Println("Pressed", name)
			}
		}
		l2, r2 := s.Trigger(joystick.AxisL2), s.Trigger(joystick.AxisR2)
		fmt.Printf("L(%5.2f,%5.2f) R(%5.2f,%5.2f) L2 %.2f R2 %.2f POV %d\n",
			s.Axis(joystick.AxisLStickX), s.Axis(joystick.AxisLStickY),
			s.Axis(joystick.AxisRStickX), s.Axis(joystick.AxisRStickY),
			l2, r2, s.POV(joystick.AxisDPadX, joystick.AxisDPadY))
		if r != nil {
			if err := r.SetRumble(l2, r2); err != nil {
				fmt.Println("Rumble failed:", err)
			}
		}
	}
}

func initJoystick(device string) *joystick.Joystick {
	firstLog := true
	for {
		j, err := joystick.NewJoystick(device)
		if err != nil {
			if firstLog {
				fmt.Printf("Waiting for joystick: %v.\n", err)
				firstLog = false
			}
			time.Sleep(1 * time.Second)
			continue
		}
		fmt.Printf("Opened joystick\n")
		return j
	}
}

func registerSignalHandlers(cancelFunc context.CancelFunc) {
	// Hook Ctrl-C to cause shut down.
	signals := make(chan os.Signal, 2)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		s := <-signals
		log.Println("Signal: ", s)
		cancelFunc()
		time.Sleep(2 * time.Second)
		os.Exit(0)
	}()
}
