// Package logger builds the process-wide structured logger.
package logger

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
)

// New creates a [log.Logger] writing to w with timestamps and caller
// reporting enabled. The writer defaults to [os.Stderr]; an unknown level
// falls back to info.
func New(w io.Writer, level string) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	l := log.NewWithOptions(w, log.Options{ReportTimestamp: true, ReportCaller: true})
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.InfoLevel
	}
	l.SetLevel(lvl)
	return l
}

// With creates a child [log.Logger] with the key-value pairs added to all entries.
func With(l *log.Logger, kv ...any) *log.Logger {
	return l.With(kv...)
}

// Discard returns a logger that drops everything. Used by tests.
func Discard() *log.Logger {
	return log.New(io.Discard)
}
