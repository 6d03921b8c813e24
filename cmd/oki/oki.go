package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/pkg/errors"

	"github.com/team5957/oki/pkg/autonomous"
	"github.com/team5957/oki/pkg/config"
	"github.com/team5957/oki/pkg/hardware"
	"github.com/team5957/oki/pkg/hw"
	"github.com/team5957/oki/pkg/iterative"
	"github.com/team5957/oki/pkg/joystick"
	"github.com/team5957/oki/pkg/logger"
	"github.com/team5957/oki/pkg/robot"
	"github.com/team5957/oki/pkg/screen"
	"github.com/team5957/oki/pkg/selection"
	"github.com/team5957/oki/pkg/sim"
	"github.com/team5957/oki/pkg/sound"
	"github.com/team5957/oki/pkg/teleop"
)

var CLI struct {
	Config   string `help:"Robot config file." default:"/cfg/oki.yaml" type:"path"`
	LogLevel string `help:"Log level." default:"info" enum:"error,warn,info,debug"`
	Match    bool   `help:"Follow the match clock instead of the Options/Share buttons."`
	Sim      bool   `help:"Run against simulated hardware."`

	Position  string `help:"Override the autonomous starting position."`
	Color     string `help:"Override the alliance color."`
	DriveMode string `help:"Override the teleop drive mode."`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Description("Oki, FRC team 5957's 2017 robot."))
	level, err := logger.ParseLevel(CLI.LogLevel)
	kctx.FatalIfErrorf(err)
	l := logger.NewStdout(level)

	l.Infof("---- Oki ----")
	l.Infof("GOMAXPROCS %d", runtime.GOMAXPROCS(0))

	overrides, err := parseOverrides()
	kctx.FatalIfErrorf(err)

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		l.Errorf("Using default config: %v", err)
	}
	if err := config.WriteInUse(CLI.Config, cfg); err != nil {
		l.Warnf("Failed to record config in use: %v", err)
	}

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Hook Ctrl-C etc.
	registerSignalHandlers(cancel)

	var (
		hwr     *hw.Robot
		rumbler hw.Rumbler
		battery robot.VoltageSource
	)
	if CLI.Sim {
		s := sim.New()
		hwr = s.Robot(l.WithTag("sim"))
		rumbler = s.Rumble
	} else {
		h, err := hardware.Open(ctx, cfg, l)
		if err != nil {
			l.Fatalf("Failed to open hardware: %v", err)
		}
		defer func() {
			l.Infof("Zeroing motors for shut down")
			h.Shutdown()
		}()
		hwr = h.Robot
		if h.Rumble != nil {
			rumbler = h.Rumble
		}
		if h.Battery != nil {
			battery = h.Battery
		}
	}

	store := &selection.FileSource{Path: cfg.SelectionFile}
	chooser := selection.NewChooser(selection.WithOverrides(store, overrides))
	chooser.Pinned = overrides

	seq := autonomous.New(cfg.Motion, cfg.Deadlines, l.WithTag("auto"))
	seq.StopOnStall = cfg.StopOnStall
	tele := teleop.New(cfg.Teleop, cfg.Bindings, rumbler, l.WithTag("teleop"))

	bot := robot.New(hwr, chooser, seq, tele, l.WithTag("robot"))
	bot.Store = store
	bot.Battery = battery
	bot.Sound = sound.Init(cfg.SoundDir)
	if !CLI.Sim {
		bot.Screen = screen.New()
		go bot.Screen.LoopUpdatingScreen(ctx, cfg.ScreenDevice)
	}

	runner := iterative.New(bot, cfg.TickPeriod, l.WithTag("runner"))
	runner.Driver = joystick.NewGamepad()
	runner.Operator = joystick.NewGamepad()
	go runGamepad(ctx, l, "driver", cfg.Gamepads.Driver, runner.Driver)
	go runGamepad(ctx, l, "operator", cfg.Gamepads.Operator, runner.Operator)
	if CLI.Match {
		runner.Match = &iterative.MatchTimes{
			Autonomous: cfg.Match.Autonomous,
			Teleop:     cfg.Match.Teleop,
		}
	}

	bot.Sound.Play("start.wav")
	if err := runner.Run(ctx); err != nil && err != context.Canceled {
		l.Errorf("Runner stopped: %v", err)
	}
	// Let the sound and screen goroutines see the cancellation.
	time.Sleep(100 * time.Millisecond)
}

func parseOverrides() (selection.Overrides, error) {
	var o selection.Overrides
	if CLI.Position != "" {
		p, err := selection.ParsePosition(CLI.Position)
		if err != nil {
			return o, errors.Wrap(err, "--position")
		}
		o.Position = &p
	}
	if CLI.Color != "" {
		c, err := selection.ParseColor(CLI.Color)
		if err != nil {
			return o, errors.Wrap(err, "--color")
		}
		o.Color = &c
	}
	if CLI.DriveMode != "" {
		m, err := selection.ParseDriveMode(CLI.DriveMode)
		if err != nil {
			return o, errors.Wrap(err, "--drive-mode")
		}
		o.DriveMode = &m
	}
	return o, nil
}

// runGamepad keeps the pad fed from its device, reopening it whenever it
// goes away.  While disconnected the pad reads as neutral.
func runGamepad(ctx context.Context, l *logger.Logger, name, device string, pad *joystick.Gamepad) {
	firstLog := true
	for ctx.Err() == nil {
		j, err := joystick.NewJoystick(device)
		if err != nil {
			if firstLog {
				l.Warnf("Waiting for %s joystick: %v", name, err)
				firstLog = false
			}
			time.Sleep(1 * time.Second)
			continue
		}
		l.Infof("Opened %s joystick", name)
		firstLog = true
		go func() {
			<-ctx.Done()
			_ = j.Close()
		}()
		err = pad.Run(ctx, j)
		_ = j.Close()
		if ctx.Err() == nil {
			l.Errorf("%s joystick failed: %v", name, err)
		}
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
		fmt.Println("Shutdown timed out")
		os.Exit(1)
	}()
}
