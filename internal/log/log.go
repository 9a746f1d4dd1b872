// Package log builds the zap loggers used across the application.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger. Debug enables the development encoder and debug level.
func New(debug bool) (*zap.SugaredLogger, error) {
	var zapLogger *zap.Logger
	var err error

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}

	return zapLogger.Sugar(), nil
}

// OrNop returns logger, or a no-op logger when it is nil
func OrNop(logger *zap.SugaredLogger) *zap.SugaredLogger {
	if logger == nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
