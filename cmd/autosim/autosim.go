package main

import (
	"fmt"
	"os"
	"time"

	"github.com/alecthomas/kong"

	"github.com/team5957/oki/pkg/autonomous"
	"github.com/team5957/oki/pkg/config"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/selection"
	"github.com/team5957/oki/pkg/sim"
)

var CLI struct {
	Config      string        `help:"Robot config file; motion parameters and deadlines come from here." default:"/cfg/oki.yaml" type:"path"`
	Position    string        `arg:"" help:"Starting position (middle, left, right, demo, do-nothing)."`
	Color       string        `arg:"" help:"Alliance color (red, blue)."`
	MaxTime     time.Duration `help:"Give up after this much simulated time." default:"15s"`
	StuckDump   bool          `help:"Simulate a dump that never reaches its limit switch."`
	StopOnStall bool          `help:"End the routine at the first stalled step."`
	Verbose     bool          `short:"v" help:"Log every step."`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Description("Runs an autonomous routine against the simulator and prints what it commanded."))

	pos, err := selection.ParsePosition(CLI.Position)
	kctx.FatalIfErrorf(err)
	color, err := selection.ParseColor(CLI.Color)
	kctx.FatalIfErrorf(err)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Using default config:", err)
	}

	level := logger.LogLevelWarning
	if CLI.Verbose {
		level = logger.LogLevelInfo
	}
	l := logger.NewStdout(level)

	s := sim.New()
	if CLI.StuckDump {
		s.DumpTravelPerUnit = 0
	}
	r := s.Robot(l.WithTag("sim"))
	seq := autonomous.New(cfg.Motion, cfg.Deadlines, l.WithTag("auto"))
	seq.StopOnStall = CLI.StopOnStall || cfg.StopOnStall

	sel := selection.Selection{Position: pos, Color: color}
	seq.Load(autonomous.Script(sel))

	start := time.Now()
	now := start
	ticks := 0
	for seq.State() == autonomous.Running && now.Sub(start) < CLI.MaxTime {
		seq.Tick(r, now)
		now = now.Add(cfg.TickPeriod)
		ticks++
	}

	fmt.Printf("%v: %v after %d ticks (%v)\n", sel, seq.State(), ticks, now.Sub(start))
	for i, step := range seq.Started() {
		fmt.Printf("  %2d %v\n", i+1, step)
	}
	for _, err := range seq.Stalls() {
		fmt.Printf("  stalled: %v\n", err)
	}
	cmds := s.Drive.Commands()
	fmt.Printf("%d drive commands, final heading %.1f\n", len(cmds), r.LastAngle())
	if len(cmds) > 0 {
		fmt.Printf("last drive command %+v\n", cmds[len(cmds)-1])
	}
	fmt.Printf("coil %d, dump %d, winch %d commands\n",
		len(s.Coil.Speeds()), len(s.Dump.Speeds()), len(s.Winch.Speeds()))
}
