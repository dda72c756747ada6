package output

import (
	"io"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger returns the diagnostics logger. User-facing progress goes
// through sections on stdout; the logger carries debug detail and
// non-fatal warnings to w (normally stderr).
func NewLogger(w io.Writer, verbose, color bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	cw := zerolog.ConsoleWriter{
		Out:        w,
		NoColor:    !color,
		TimeFormat: time.Kitchen,
	}
	return zerolog.New(cw).Level(level).With().Timestamp().Logger()
}
