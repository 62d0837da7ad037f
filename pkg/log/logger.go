// Package log provides the zerolog-backed logger used across the attrition
// toolkit. Estimators stay silent; the pipeline and binary log stage progress
// through this package, and solver warnings raised via pkg/errors are routed
// into the same stream.
package log

import (
	"io"
	"os"
	"sync"

	"github.com/rs/zerolog"

	"github.com/himetrics/attrition/pkg/errors"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
)

// Setup configures the global logger with the given output and level, and
// wires warning delivery from pkg/errors into it. Level accepts zerolog's
// names: "debug", "info", "warn", "error".
func Setup(w io.Writer, level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return errors.NewValidationError("level", "unknown log level", level)
	}

	mu.Lock()
	logger = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	mu.Unlock()

	errors.SetZerologWarnFunc(func(warning error) {
		l := Logger()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			l.Warn().Object("warning", obj).Msg(warning.Error())
			return
		}
		l.Warn().Err(warning).Msg("analysis warning")
	})
	return nil
}

// SetupConsole configures human-readable console output on stderr.
func SetupConsole(level string) error {
	return Setup(zerolog.ConsoleWriter{Out: os.Stderr}, level)
}

// Logger returns the global logger.
func Logger() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// Stage returns a logger tagged with a pipeline stage name.
func Stage(name string) zerolog.Logger {
	return Logger().With().Str(StageKey, name).Logger()
}
