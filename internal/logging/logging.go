// Package logging builds the process logger.
package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Options struct {
	// Env is the deployment environment; "local" selects the console encoder.
	Env     string
	Verbose bool
}

// New returns a production JSON logger, or a development console logger when
// Env is local. Verbose lowers the level to debug in both cases.
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if strings.EqualFold(strings.TrimSpace(opts.Env), "local") {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		if !opts.Verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.InfoLevel)
		}
	}
	if opts.Verbose {
		config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Named("consolenav"), nil
}
