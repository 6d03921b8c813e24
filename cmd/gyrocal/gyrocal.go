package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/team5957/oki/pkg/config"
	"github.com/team5957/oki/pkg/hardware"
	"github.com/team5957/oki/pkg/logger"
)

var CLI struct {
	Config  string        `help:"Robot config file." default:"/cfg/oki.yaml" type:"path"`
	Kind    string        `help:"Override the gyro kind." placeholder:"adxrs450|bno08x"`
	Samples int           `help:"Override the number of calibration samples."`
	Speed   float64       `help:"Rotation speed while spinning." default:"0.3"`
	Spin    time.Duration `help:"How long to spin each way; 0 only prints readings." default:"5s"`
}

func main() {
	kctx := kong.Parse(&CLI, kong.Description("Calibrates the gyro, spins the robot both ways and prints the heading."))
	fmt.Println("---- Gyro calibration ----")
	fmt.Println("GOMAXPROCS", runtime.GOMAXPROCS(0))

	cfg, err := config.Load(CLI.Config)
	if err != nil {
		fmt.Println("Using default config:", err)
	}
	if CLI.Kind != "" {
		cfg.Gyro.Kind = CLI.Kind
	}
	if CLI.Samples > 0 {
		cfg.Gyro.CalibrationSamples = CLI.Samples
	}
	kctx.FatalIfErrorf(cfg.Validate())
	if cfg.Gyro.Kind == config.GyroNone {
		kctx.Fatalf("no gyro configured")
	}
	cfg.Battery.Enabled = false
	cfg.Gamepads.DriverRumble = ""

	// Our global context, we cancel it to trigger shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-signals
		cancel()
	}()

	start := time.Now()
	h, err := hardware.Open(ctx, cfg, logger.NewStdout(logger.LogLevelInfo))
	kctx.FatalIfErrorf(err)
	defer func() {
		fmt.Println("Zeroing motors for shut down")
		h.Shutdown()
	}()
	if h.Robot.Gyro == nil {
		kctx.Fatalf("gyro failed to start")
	}
	fmt.Printf("Ready after %v\n", time.Since(start))
	h.Robot.ResetGyro()

	phases := []float64{CLI.Speed, -CLI.Speed}
	if CLI.Spin <= 0 {
		phases = []float64{0}
		CLI.Spin = 30 * time.Second
	}
	ticker := time.NewTicker(cfg.TickPeriod)
	defer ticker.Stop()
	for _, rotation := range phases {
		fmt.Printf("Spinning at %.2f\n", rotation)
		phaseStart := time.Now()
		lastPrint := phaseStart
		for time.Since(phaseStart) < CLI.Spin {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
			h.Robot.SetDrive(0, rotation)
			a := h.Robot.ReadAngle()
			if time.Since(lastPrint) >= 250*time.Millisecond {
				fmt.Printf("Heading %8.2f\n", a)
				lastPrint = time.Now()
			}
		}
		h.Robot.SetDrive(0, 0)
		time.Sleep(500 * time.Millisecond)
		fmt.Printf("Heading after %v at %.2f: %.2f\n", CLI.Spin, rotation, h.Robot.ReadAngle())
	}
}
