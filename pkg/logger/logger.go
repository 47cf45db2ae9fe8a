// Package logger builds the zerolog.Logger used throughout the engine,
// from command-line entry points down to the audit stream.
package logger

import (
	"os"

	"github.com/rs/zerolog"
)

// Config selects the logger's verbosity and output format.
type Config struct {
	Level  string
	Pretty bool
}

// New builds a zerolog.Logger writing to stdout and sets the requested
// level as zerolog's global level. Level strings are case-sensitive
// ("debug", "info", "warn", "error"); anything else defaults to info.
func New(cfg Config) zerolog.Logger {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05Z07:00"
	zerolog.SetGlobalLevel(parseLevel(cfg.Level))

	var writer zerolog.ConsoleWriter
	if cfg.Pretty {
		writer = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"}
		return zerolog.New(writer).With().Timestamp().Caller().Logger()
	}

	return zerolog.New(os.Stdout).With().Timestamp().Caller().Logger()
}

// SetGlobalLogger installs l as zerolog.DefaultContextLogger, the logger
// zerolog.Ctx returns for a context that carries none of its own.
func SetGlobalLogger(l zerolog.Logger) {
	log := l
	zerologDefault = &log
	zerolog.DefaultContextLogger = zerologDefault
}

var zerologDefault *zerolog.Logger

func parseLevel(level string) zerolog.Level {
	switch level {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
