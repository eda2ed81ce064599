// Package logging builds the diagnostic zerolog logger. User-facing output
// never goes through it; see package output for that.
package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// DefaultLevel is used when the config leaves log_level empty.
const DefaultLevel = "warn"

// New returns a console logger writing to w at the given level.
// An unparseable level falls back to info and prints a one-line warning to w.
func New(level string, w io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano

	lvl, err := ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
		fmt.Fprintf(w, "Invalid log level '%s', defaulting to 'info'\n", level)
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly, NoColor: true}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}

// ParseLevel parses a case-insensitive level name. Empty means DefaultLevel.
func ParseLevel(level string) (zerolog.Level, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("parse log level %q: %w", level, err)
	}
	return lvl, nil
}

// Component returns l tagged with a component name.
func Component(l zerolog.Logger, name string) zerolog.Logger {
	return l.With().Str("component", name).Logger()
}
