// Package logger wraps a process-wide zap logger.
// Until Init is called every helper is a no-op, so library code and tests
// can log without setup.
package logger

import (
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu    sync.RWMutex
	sugar = zap.NewNop().Sugar()
)

// Init builds the global logger.
// format "console" selects the development encoder; anything else is JSON.
// If outputPath is "-" logs go nowhere; if it is a directory path, logs are
// written to outputPath/twin.log instead of stdout.
func Init(level, format, outputPath string) error {
	lvl := zap.NewAtomicLevel()
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl.SetLevel(zap.InfoLevel)
	}

	var cfg zap.Config
	if format == "console" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cfg.Encoding = "console"
	} else {
		cfg = zap.NewProductionConfig()
		cfg.Encoding = "json"
	}
	cfg.Level = lvl

	switch outputPath {
	case "-":
		Set(zap.NewNop())
		return nil
	case "":
		cfg.OutputPaths = []string{"stdout"}
	default:
		if err := os.MkdirAll(outputPath, 0o755); err != nil {
			return err
		}
		cfg.OutputPaths = []string{filepath.Join(outputPath, "twin.log")}
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return err
	}
	Set(l)
	return nil
}

// Set replaces the global logger. Useful for tests with zaptest/observer.
func Set(l *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	sugar = l.Sugar()
}

func get() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return sugar
}

// Info logs a message at info level.
func Info(msg string) { get().Info(msg) }

// Infof logs a formatted message at info level.
func Infof(template string, args ...any) { get().Infof(template, args...) }

// Infow logs a message with key/value pairs at info level.
// This is the preferred form for anything with context.
func Infow(msg string, keysAndValues ...any) { get().Infow(msg, keysAndValues...) }

// Debugw logs a message with key/value pairs at debug level.
func Debugw(msg string, keysAndValues ...any) { get().Debugw(msg, keysAndValues...) }

// Warnf logs a formatted message at warn level.
func Warnf(template string, args ...any) { get().Warnf(template, args...) }

// Warnw logs a message with key/value pairs at warn level.
func Warnw(msg string, keysAndValues ...any) { get().Warnw(msg, keysAndValues...) }

// Error logs msg at error level with err attached.
func Error(msg string, err error) { get().Errorw(msg, "error", err) }

// Errorf logs a formatted message at error level.
func Errorf(template string, args ...any) { get().Errorf(template, args...) }

// Sync flushes buffered entries. Call before exit.
func Sync() { _ = get().Sync() }
