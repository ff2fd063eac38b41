// Package logging builds the zap loggers used across the harness.
//
// Loggers are constructed once and handed to components explicitly;
// nothing in this repository reads or replaces zap's globals.
package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production sugared logger at the given level with UTC
// RFC3339Nano timestamps and durations rendered as strings.
func New(level zapcore.Level) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()

	cfg.Sampling = nil

	cfg.Level = zap.NewAtomicLevelAt(level)

	cfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		zapcore.RFC3339NanoTimeEncoder(t.UTC(), enc)
	}

	cfg.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder

	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	return logger.Sugar(), nil
}

// OrNop returns logger if non-nil and a no-op logger otherwise.
//
// Components take their logger through this so a nil option is always safe.
func OrNop(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
