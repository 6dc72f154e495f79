package logging

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared zap logger. format "json" selects the production
// encoder; anything else the development console encoder.
func New(level, format string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.DisableStacktrace = true
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	return logger.Sugar(), nil
}

// Discard returns a logger that drops everything. Used when a nil logger is passed.
func Discard() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// OrDiscard returns l, or a no-op logger when l is nil.
func OrDiscard(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return Discard()
	}
	return l
}
