// Package limitswitch reads the dump bin's end-of-travel switches from GPIO
// lines through the Linux GPIO character device.
package limitswitch

import (
	"fmt"

	"github.com/pkg/errors"
	"github.com/warthog618/go-gpiocdev"
)

const consumer = "oki"

// Line is the part of a requested GPIO line the switch uses.
type Line interface {
	Value() (int, error)
	Close() error
}

type Config struct {
	Chip   string `yaml:"chip"`
	Offset int    `yaml:"offset"`
	// ActiveLow is for switches wired to pull the line to ground when
	// closed.
	ActiveLow bool `yaml:"active_low"`
	PullUp    bool `yaml:"pull_up"`
}

type Switch struct {
	Name string
	line Line
}

func Open(name string, cfg Config) (*Switch, error) {
	opts := []gpiocdev.LineReqOption{
		gpiocdev.AsInput,
		gpiocdev.WithConsumer(consumer),
	}
	if cfg.ActiveLow {
		opts = append(opts, gpiocdev.AsActiveLow)
	}
	if cfg.PullUp {
		opts = append(opts, gpiocdev.WithPullUp)
	}
	line, err := gpiocdev.RequestLine(cfg.Chip, cfg.Offset, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "requesting %s switch on %s line %d", name, cfg.Chip, cfg.Offset)
	}
	fmt.Printf("HW: %s switch on %s line %d\n", name, cfg.Chip, cfg.Offset)
	return New(name, line), nil
}

func New(name string, line Line) *Switch {
	return &Switch{Name: name, line: line}
}

func (s *Switch) IsClosed() (bool, error) {
	v, err := s.line.Value()
	if err != nil {
		return false, errors.Wrapf(err, "reading %s switch", s.Name)
	}
	return v == 1, nil
}

func (s *Switch) Close() error {
	return s.line.Close()
}
