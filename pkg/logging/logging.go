package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	gormlogger "gorm.io/gorm/logger"
)

// EnvLogLevel overrides the configured level when set.
const EnvLogLevel = "TRANSFER_LOG_LEVEL"

// Init installs the process logger. Output is human readable on a terminal
// and JSON otherwise.
func Init(app string, level zerolog.Level) zerolog.Logger {
	return InitWriter(os.Stderr, app, level)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, app string, level zerolog.Level) zerolog.Logger {
	if f, ok := w.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		w = zerolog.ConsoleWriter{
			Out:        f,
			TimeFormat: time.RFC3339,
		}
	}

	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		level = lvl
	}
	zerolog.SetGlobalLevel(level)

	logger := zerolog.New(w).With().Timestamp().Str("app", app).Logger()
	log.Logger = logger
	return logger
}

// SetLevel changes the global level of a running process.
func SetLevel(level zerolog.Level) {
	if zerolog.GlobalLevel() != level {
		log.Info().Stringer("from", zerolog.GlobalLevel()).Stringer("to", level).Msg("log level changed")
	}
	zerolog.SetGlobalLevel(level)
}

// ParseLevel accepts zerolog level names and a few common aliases.
func ParseLevel(raw string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "":
		return zerolog.InfoLevel, false
	case "trace":
		return zerolog.TraceLevel, true
	case "debug":
		return zerolog.DebugLevel, true
	case "info":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error":
		return zerolog.ErrorLevel, true
	case "fatal":
		return zerolog.FatalLevel, true
	case "disabled", "off", "none":
		return zerolog.Disabled, true
	default:
		return zerolog.InfoLevel, false
	}
}

// GormLogLevel maps a zerolog level to gorm's: SQL is only logged at debug
// and below.
func GormLogLevel(level zerolog.Level) gormlogger.LogLevel {
	switch {
	case level == zerolog.Disabled:
		return gormlogger.Silent
	case level <= zerolog.DebugLevel:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}

type gormWriter struct {
	logger zerolog.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.logger.Debug().Msgf(format, args...)
}

// GormLogger returns a gorm logger that writes through zerolog.
func GormLogger(level zerolog.Level) gormlogger.Interface {
	return gormlogger.New(
		gormWriter{logger: log.With().Str("component", "gorm").Logger()},
		gormlogger.Config{
			SlowThreshold: 200 * time.Millisecond,
			LogLevel:      GormLogLevel(level),
		},
	)
}
