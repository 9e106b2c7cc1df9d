// Package logger holds the process-wide zerolog logger.
package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger is the root logger. It writes JSON to stderr until Init is called.
var Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init configures the root logger. format is "json" or "console"; an
// unknown level falls back to info.
func Init(level, format string) {
	Logger = New(os.Stderr, level, format)
	zerolog.DefaultContextLogger = &Logger
}

// New builds a logger writing to w.
func New(w io.Writer, level, format string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if strings.EqualFold(format, "console") {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// For returns a child logger tagged with the component name.
func For(component string) *zerolog.Logger {
	l := Logger.With().Str("component", component).Logger()
	return &l
}
