// Package logging wraps zap the way the rest of the pack does: a small
// named logger type threaded through constructors instead of a package
// global, so each component's log lines carry its own name.
package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger embeds *zap.Logger and remembers its dotted name and build config
// so it can be cloned with a new name without losing level/encoding
// settings.
type Logger struct {
	*zap.Logger
	config *zap.Config
	name   string
}

// New builds a Logger at the given level ("debug", "info", "warn",
// "error"); an unrecognized level falls back to "info". encoding selects
// zap's "json" or "console" encoder; "console" is used when empty.
func New(level, encoding string) *Logger {
	cfg := zap.NewProductionConfig()
	if encoding == "console" || encoding == "" {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))

	zl, err := cfg.Build()
	if err != nil {
		// Config built above is always valid; this would only fail on an
		// environment that can't open its sink (e.g. stderr unavailable).
		panic(fmt.Sprintf("logging: build logger: %v", err))
	}
	return &Logger{Logger: zl, config: &cfg}
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zapcore.DebugLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Named returns a child logger whose name is appended to this one's,
// dot-separated, sharing the same level and encoding.
func (l *Logger) Named(name string) *Logger {
	full := name
	if l.name != "" {
		full = l.name + "." + name
	}
	return &Logger{Logger: l.Logger.Named(name), config: l.config, name: full}
}
