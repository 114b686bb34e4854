// Package logx wraps the standard logger with a debug switch.
package logx

import (
	"io"
	"log"
	"os"
)

// Logger writes informational messages always and debug messages only when
// debug output is enabled. A nil *Logger discards everything.
type Logger struct {
	l     *log.Logger
	debug bool
}

// New creates a logger writing to w.
func New(w io.Writer, debug bool) *Logger {
	return &Logger{l: log.New(w, "", log.LstdFlags), debug: debug}
}

// Default logs to stderr like the standard logger.
func Default(debug bool) *Logger {
	return New(os.Stderr, debug)
}

// Discard returns a logger that drops all output.
func Discard() *Logger {
	return New(io.Discard, false)
}

// Printf logs unconditionally.
func (g *Logger) Printf(format string, args ...any) {
	if g == nil {
		return
	}
	g.l.Printf(format, args...)
}

// Debugf logs only when debug output is enabled.
func (g *Logger) Debugf(format string, args ...any) {
	if g == nil || !g.debug {
		return
	}
	g.l.Printf("[debug] "+format, args...)
}

// DebugEnabled reports whether Debugf produces output.
func (g *Logger) DebugEnabled() bool {
	return g != nil && g.debug
}
