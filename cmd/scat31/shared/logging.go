package shared

import (
	"os"

	"github.com/rs/zerolog"
)

// SetupLogger configures zerolog with pretty console output at the
// configured level. The debug flag wins over the configured level; an empty
// or unparseable level falls back to info.
func SetupLogger(level string, debug bool) zerolog.Logger {
	lvl := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(level); err == nil && parsed != zerolog.NoLevel {
		lvl = parsed
	}
	if debug {
		lvl = zerolog.DebugLevel
	}

	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(lvl).
		With().
		Timestamp().
		Logger()
}
