// Package logging builds the zerolog logger shared by the server and CLI.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string    // debug, info, warn, error; default info
	Format string    // json or console; default json
	Output io.Writer // default os.Stderr
}

// New returns a logger for cfg. An unknown level or format is an error.
func New(cfg Config) (zerolog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return zerolog.Nop(), err
	}

	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}

	switch strings.ToLower(cfg.Format) {
	case "", "json":
	case "console":
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	default:
		return zerolog.Nop(), fmt.Errorf("unknown log format %q (want json or console)", cfg.Format)
	}

	return zerolog.New(out).
		Level(level).
		With().
		Timestamp().
		Str("service", "pdf2docx").
		Logger(), nil
}

// ParseLevel parses a level name; "" means info.
func ParseLevel(s string) (zerolog.Level, error) {
	if s == "" {
		return zerolog.InfoLevel, nil
	}
	level, err := zerolog.ParseLevel(strings.ToLower(s))
	if err != nil || level == zerolog.NoLevel {
		return zerolog.InfoLevel, fmt.Errorf("unknown log level %q", s)
	}
	return level, nil
}
