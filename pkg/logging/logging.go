// Package logging builds the zap loggers the services share and
// installs them globally so infra helpers can use zap.S().
package logging

import (
	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string `yaml:"level"`
	// development switches to the console encoder
	Development bool `yaml:"development"`
}

// Init builds the process logger, tags it with the service name and a
// run id, and installs it as the zap global. The run id ties log lines
// from one process incarnation together across restarts.
func Init(service string, cfg Config) (*zap.Logger, error) {
	level := zapcore.InfoLevel
	if cfg.Level != "" {
		if err := level.Set(cfg.Level); err != nil {
			return nil, err
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, err
	}
	logger = logger.With(
		zap.String("service", service),
		zap.String("run_id", uuid.New().String()),
	)
	zap.ReplaceGlobals(logger)
	return logger, nil
}
