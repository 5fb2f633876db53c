package logging

import (
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// New creates the process-wide zerolog logger at the configured level.
// Console format when attached to a terminal-ish setup, JSON otherwise.
func New(level string, console bool) zerolog.Logger {
	var logger zerolog.Logger
	if console {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout})
	} else {
		logger = zerolog.New(os.Stdout)
	}
	return logger.Level(levelFromString(level)).With().Timestamp().Logger()
}

func levelFromString(value string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "error":
		return zerolog.ErrorLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "info":
		return zerolog.InfoLevel
	default:
		return zerolog.DebugLevel
	}
}
