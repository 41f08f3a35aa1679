// Package logging configures the process-wide zap logger.
package logging

import (
	"go.uber.org/zap"
)

// Setup builds the logger used across the CLI. Debug mode prints everything
// at debug level with caller information; otherwise only warnings and above
// reach stderr, in a compact console form.
func Setup(debug bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	if !debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		cfg.EncoderConfig.TimeKey = ""
		cfg.DisableCaller = true
		cfg.DisableStacktrace = true
	}

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}

	zap.ReplaceGlobals(logger)
	return logger, nil
}
