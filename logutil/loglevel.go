package logutil

import (
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func ParseZerologLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	case "panic":
		return zerolog.PanicLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// NewConsoleLogger writes human-readable log lines to w. Colors are only used
// when noColor is false.
func NewConsoleLogger(w io.Writer, level zerolog.Level, noColor bool) zerolog.Logger {
	writer := zerolog.ConsoleWriter{ //nolint:exhaustruct
		Out:        w,
		NoColor:    noColor,
		TimeFormat: time.TimeOnly,
	}

	return zerolog.New(writer).Level(level).With().Timestamp().Logger()
}

// Setup installs a console logger on w as the global logger.
func Setup(w io.Writer, level zerolog.Level, noColor bool) {
	zerolog.SetGlobalLevel(level)
	log.Logger = NewConsoleLogger(w, level, noColor)
}
