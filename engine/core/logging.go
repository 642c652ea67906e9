// Package core holds the process-wide plumbing shared by the engine subsystems.
package core

import (
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

var defaultLogger atomic.Pointer[log.Logger]

// Logger returns the process default logger, creating it on first use.
// Subsystems take a *log.Logger through their builder options and fall back to this one.
//
// Returns:
//   - *log.Logger: the shared engine logger
func Logger() *log.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	defaultLogger.CompareAndSwap(nil, NewLogger(os.Stderr, "oxy-rig", log.InfoLevel))
	return defaultLogger.Load()
}

// SetLogger replaces the process default logger. It is safe to call concurrently with Logger,
// but subsystems built earlier keep the logger they resolved at construction.
// A nil l restores the built-in default on the next Logger call.
//
// Parameters:
//   - l: the logger to use as the default
func SetLogger(l *log.Logger) {
	defaultLogger.Store(l)
}

// NewLogger creates a structured logger that reports the caller and an RFC3339 timestamp.
//
// Parameters:
//   - w: the log destination
//   - prefix: a short prefix identifying the subsystem
//   - level: the minimum level that will be written
//
// Returns:
//   - *log.Logger: the configured logger
func NewLogger(w io.Writer, prefix string, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Prefix:          prefix,
		Level:           level,
	})
}

// ParseLevel converts a level name ("debug", "info", "warn", "error", "fatal") into a log.Level.
// Unknown names resolve to info.
//
// Parameters:
//   - name: the level name
//
// Returns:
//   - log.Level: the parsed level
func ParseLevel(name string) log.Level {
	level, err := log.ParseLevel(name)
	if err != nil {
		return log.InfoLevel
	}
	return level
}

// DiscardLogger returns a logger that writes nowhere. Tests use it to keep output quiet.
func DiscardLogger() *log.Logger {
	return log.NewWithOptions(io.Discard, log.Options{Level: log.FatalLevel})
}
