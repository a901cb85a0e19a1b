// Package logging configures the zerolog logger shared by the server and the
// command-line tools. Output goes to stderr: stdout carries the MCP protocol.
package logging

import (
	"io"
	"os"

	"github.com/rs/zerolog"
)

// ParseLevel maps a config level name to a zerolog level, defaulting to info.
func ParseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// New returns a console logger writing to w at level, tagged with app.
func New(w io.Writer, level, app string) zerolog.Logger {
	console := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: "15:04:05",
	}
	return zerolog.New(console).
		Level(ParseLevel(level)).
		With().
		Timestamp().
		Str("app", app).
		Logger()
}

// Stderr is New writing to os.Stderr.
func Stderr(level, app string) zerolog.Logger {
	return New(os.Stderr, level, app)
}

// Component derives a sub-logger for one part of the program.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
