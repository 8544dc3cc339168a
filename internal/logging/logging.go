// Package logging configures the global zerolog logger.
package logging

import (
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ParseLevel maps a config level name to a zerolog level, defaulting to
// info for anything unrecognised.
func ParseLevel(name string) zerolog.Level {
	lvl, err := zerolog.ParseLevel(name)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}

// ValidLevel reports whether name is a level zerolog understands.
func ValidLevel(name string) bool {
	lvl, err := zerolog.ParseLevel(name)
	return err == nil && lvl != zerolog.NoLevel
}

// Console logs human-readable lines to w. Used by CLI subcommands.
func Console(w io.Writer, level string) {
	output := zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	log.Logger = zerolog.New(output).With().Timestamp().Logger().Level(ParseLevel(level))
}

// File logs JSON lines to <dir>/adbdeck.log while the TUI owns the
// terminal. The returned closer flushes and closes the file.
func File(dir, level string) (io.Closer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create log dir")
	}
	f, err := os.OpenFile(filepath.Join(dir, "adbdeck.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, errors.Wrap(err, "open log file")
	}
	log.Logger = zerolog.New(f).With().Timestamp().Logger().Level(ParseLevel(level))
	return f, nil
}
