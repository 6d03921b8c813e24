// Package logger is the robot's levelled logger.  Lines carry the short
// upper-case component prefix used across the robot code ("HW: ...",
// "AUTO: ..."); warnings and errors are marked after the prefix.
package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/pkg/errors"
)

type LogLevel int

const (
	LogLevelNone LogLevel = iota
	LogLevelError
	LogLevelWarning
	LogLevelInfo
	LogLevelDebug
)

var levelNames = map[LogLevel]string{
	LogLevelNone:    "none",
	LogLevelError:   "error",
	LogLevelWarning: "warn",
	LogLevelInfo:    "info",
	LogLevelDebug:   "debug",
}

func (l LogLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return fmt.Sprintf("LogLevel(%d)", int(l))
}

// ParseLevel accepts the names printed by String.
func ParseLevel(s string) (LogLevel, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for l, name := range levelNames {
		if s == name {
			return l, nil
		}
	}
	if s == "warning" {
		return LogLevelWarning, nil
	}
	return LogLevelInfo, errors.Errorf("unknown log level %q", s)
}

type Logger struct {
	out    *log.Logger
	level  LogLevel
	prefix string
}

func NewLogger(out *log.Logger, level LogLevel) *Logger {
	return &Logger{out: out, level: level}
}

// NewStdout picks the output format the same way for every binary: bare lines
// under systemd (journald adds its own timestamps), timestamps otherwise.
func NewStdout(level LogLevel) *Logger {
	if os.Getenv("INVOCATION_ID") != "" {
		return NewLogger(log.New(os.Stdout, "", 0), level)
	}
	return NewLogger(log.New(os.Stdout, "", log.LstdFlags|log.Lmicroseconds), level)
}

// Discard returns a logger that drops everything; handy in tests.
func Discard() *Logger {
	return NewLogger(log.New(io.Discard, "", 0), LogLevelNone)
}

// WithTag returns a logger for one component.  Tags nest: "hw" then "gyro"
// prints as "HW/GYRO: ".
func (l *Logger) WithTag(tag string) *Logger {
	tag = strings.ToUpper(tag)
	if l.prefix != "" {
		tag = strings.TrimSuffix(l.prefix, ": ") + "/" + tag
	}
	return &Logger{out: l.out, level: l.level, prefix: tag + ": "}
}

func (l *Logger) Level() LogLevel {
	return l.level
}

func (l *Logger) logf(level LogLevel, mark, format string, v []interface{}) {
	if l.level < level {
		return
	}
	l.out.Print(l.prefix + mark + fmt.Sprintf(format, v...))
}

func (l *Logger) Debugf(format string, v ...interface{}) {
	l.logf(LogLevelDebug, "", format, v)
}

func (l *Logger) Infof(format string, v ...interface{}) {
	l.logf(LogLevelInfo, "", format, v)
}

func (l *Logger) Warnf(format string, v ...interface{}) {
	l.logf(LogLevelWarning, "WARNING: ", format, v)
}

func (l *Logger) Errorf(format string, v ...interface{}) {
	l.logf(LogLevelError, "ERROR: ", format, v)
}

// Fatalf logs regardless of level and exits.
func (l *Logger) Fatalf(format string, v ...interface{}) {
	l.out.Fatal(l.prefix + "FATAL: " + fmt.Sprintf(format, v...))
}
