// Package logger wraps zerolog with the level handling used across the
// scraper commands.
package logger

import (
	"io"
	"os"
	"strings"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Logger provides structured logging functionality.
type Logger struct {
	internal zerolog.Logger
	level    *atomic.Int32
}

// ParseLevel maps a config level name to a zerolog level. Unknown names map
// to info.
func ParseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New creates a logger writing JSON records to w at the given level. A nil
// writer means stderr.
func New(level string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stderr
	}

	lvl := new(atomic.Int32)
	lvl.Store(int32(ParseLevel(level)))

	return &Logger{
		internal: zerolog.New(w).With().Timestamp().Logger(),
		level:    lvl,
	}
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	lvl := new(atomic.Int32)
	lvl.Store(int32(zerolog.Disabled))

	return &Logger{
		internal: zerolog.Nop(),
		level:    lvl,
	}
}

// SetLevel changes the level of this logger and every child created with
// With.
func (l *Logger) SetLevel(level string) {
	l.level.Store(int32(ParseLevel(level)))
}

// Enabled reports whether records at level would be written.
func (l *Logger) Enabled(level zerolog.Level) bool {
	threshold := zerolog.Level(l.level.Load())
	return threshold != zerolog.Disabled && level >= threshold
}

func (l *Logger) log(level zerolog.Level, msg string, args []any) {
	if !l.Enabled(level) {
		return
	}
	l.internal.WithLevel(level).Fields(args).Msg(msg)
}

// Info logs an info level message.
func (l *Logger) Info(msg string, args ...any) {
	l.log(zerolog.InfoLevel, msg, args)
}

// Error logs an error level message.
func (l *Logger) Error(msg string, args ...any) {
	l.log(zerolog.ErrorLevel, msg, args)
}

// Debug logs a debug level message.
func (l *Logger) Debug(msg string, args ...any) {
	l.log(zerolog.DebugLevel, msg, args)
}

// Warn logs a warning level message.
func (l *Logger) Warn(msg string, args ...any) {
	l.log(zerolog.WarnLevel, msg, args)
}

// With creates a child logger with the given key/value pairs. The child
// shares the parent's level.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		internal: l.internal.With().Fields(args).Logger(),
		level:    l.level,
	}
}

// Zerolog exposes the underlying zerolog logger.
func (l *Logger) Zerolog() *zerolog.Logger {
	return &l.internal
}
