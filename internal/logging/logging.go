// Package logging is the process-wide logger. It keeps the package-level
// Info/Warn/Error helpers and routes them through zap.
package logging

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu       sync.RWMutex
	disabled = false
	level    = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	logger   = newLogger("console", level)
)

func newLogger(format string, lvl zap.AtomicLevel) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	if format == "json" {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = lvl
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	cfg.DisableStacktrace = true
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

// Setup configures the level ("debug", "info", "warn", "error" or "off")
// and the encoding ("console" or "json").
func Setup(levelName, format string) error {
	name := strings.ToLower(strings.TrimSpace(levelName))
	if format != "" && format != "console" && format != "json" {
		return fmt.Errorf("invalid log format %q (valid: console, json)", format)
	}
	if name == "off" {
		Disable()
		return nil
	}
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", levelName, err)
	}

	mu.Lock()
	defer mu.Unlock()

	disabled = false
	level.SetLevel(lvl)
	if format != "" {
		_ = logger.Sync()
		logger = newLogger(format, level)
	}
	return nil
}

// L returns the underlying zap logger, or a no-op logger when disabled.
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if disabled {
		return zap.NewNop()
	}
	return logger
}

// Sync flushes buffered log entries.
func Sync() {
	_ = L().Sync()
}

// Disable turns off all logging
func Disable() {
	mu.Lock()
	disabled = true
	mu.Unlock()
}

// Info logs an info message with structured fields.
func Info(msg string, fields ...zap.Field) {
	L().Info(msg, fields...)
}

// Infof logs a formatted info message
func Infof(format string, v ...any) {
	L().Sugar().Infof(format, v...)
}

// Warn logs a warning message with structured fields.
func Warn(msg string, fields ...zap.Field) {
	L().Warn(msg, fields...)
}

// Error logs an error message with structured fields.
func Error(msg string, fields ...zap.Field) {
	L().Error(msg, fields...)
}

// Debug logs a debug message with structured fields.
func Debug(msg string, fields ...zap.Field) {
	L().Debug(msg, fields...)
}

// Debugf logs a formatted debug message
func Debugf(format string, v ...any) {
	L().Sugar().Debugf(format, v...)
}

// With returns a child logger carrying fields, e.g. a run id.
func With(fields ...zap.Field) *zap.Logger {
	return L().With(fields...)
}
