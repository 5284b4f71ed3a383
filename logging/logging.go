// Package logging configures the process-wide logger used by the engine and
// its driver. Hot-path code never logs; thread zero reports phase timings
// and plan changes through the logger obtained here.
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger = zap.NewNop()

// Init replaces the process-wide logger. Verbose enables debug-level output
// such as the driver's relation fingerprints.
func Init(verbose bool) error {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	l, err := cfg.Build()
	if err != nil {
		return err
	}
	logger = l
	return nil
}

// Logger returns the process-wide logger.
func Logger() *zap.Logger {
	return logger
}

// Sugar returns the process-wide logger in sugared form.
func Sugar() *zap.SugaredLogger {
	return logger.Sugar()
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = logger.Sync()
}
