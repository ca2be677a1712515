package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Log is the process-wide structured logger. Until Init runs it writes to
// stderr.
var Log = zerolog.New(os.Stderr).With().Timestamp().Logger()

// Init sets up the global zerolog logger. Level is parsed from the given
// string ("debug", "info", "warn", "error"); unknown values fall back to info.
func Init(level, service string) {
	InitWithWriter(os.Stdout, level, service)
}

func InitWithWriter(w io.Writer, level, service string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond
	zerolog.DurationFieldInteger = true

	Log = zerolog.New(w).With().
		Timestamp().
		Str("service", service).
		Logger()
}
