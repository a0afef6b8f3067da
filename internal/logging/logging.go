package logging

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Debug controls whether debug logs are printed.
var Debug bool

// Logger is the process-wide structured logger.
var Logger = New(os.Stderr)

// New builds a console logger writing to w.
func New(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	return zerolog.New(out).With().Timestamp().Logger()
}

// Setup applies the debug flag to the global logger level.
func Setup(debug bool) {
	Debug = debug
	level := zerolog.InfoLevel
	if debug {
		level = zerolog.DebugLevel
	}
	Logger = Logger.Level(level)
}

// Debugf logs a formatted debug message when Debug is enabled.
func Debugf(format string, v ...any) {
	if Debug {
		Logger.Debug().Msgf(format, v...)
	}
}
