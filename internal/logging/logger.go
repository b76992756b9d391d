// Package logging provides structured logging for the navigation engine and
// the CLI built on top of it.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger wraps zerolog with a component tag so each subsystem (tree, nav,
// loader, cli) gets its own child logger.
type Logger struct {
	zlog      zerolog.Logger
	component string
	output    io.Writer
}

// NewLogger creates a logger scoped to the given component. Output goes to
// stderr with console formatting; stdout is reserved for command output.
func NewLogger(component string) *Logger {
	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	}

	logger := zerolog.New(output).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{
		zlog:      logger,
		component: component,
		output:    output,
	}
}

// NewWriterLogger creates a logger writing to an arbitrary writer. Used by
// tests to capture output.
func NewWriterLogger(component string, w io.Writer) *Logger {
	logger := zerolog.New(w).
		With().
		Timestamp().
		Str("component", component).
		Logger()

	return &Logger{
		zlog:      logger,
		component: component,
		output:    w,
	}
}

// Info returns an info level event.
func (l *Logger) Info() *zerolog.Event {
	return l.zlog.Info()
}

// Error returns an error level event.
func (l *Logger) Error() *zerolog.Event {
	return l.zlog.Error()
}

// Debug returns a debug level event.
func (l *Logger) Debug() *zerolog.Event {
	return l.zlog.Debug()
}

// Warn returns a warn level event.
func (l *Logger) Warn() *zerolog.Event {
	return l.zlog.Warn()
}

// With creates a child logger context with additional fields.
func (l *Logger) With() zerolog.Context {
	return l.zlog.With()
}

// SetGlobalLevel sets the global log level for all loggers.
func SetGlobalLevel(level zerolog.Level) {
	zerolog.SetGlobalLevel(level)
}

func init() {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	log.Logger = log.Output(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "15:04:05",
	})
}
