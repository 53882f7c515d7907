package config

import (
	goerrors "github.com/goliatone/go-errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the zap logger described by LogLevel and LogFormat.
func NewLogger(cfg Config) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	if cfg.LogLevel != "" {
		if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "config: log level").
				WithTextCode("INVALID_LOG_LEVEL")
		}
	}

	zc := zap.NewProductionConfig()
	if cfg.LogFormat == FormatConsole {
		zc = zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	zc.Level = level
	zc.EncoderConfig.TimeKey = "ts"
	zc.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := zc.Build()
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "config: build logger")
	}
	return logger, nil
}
