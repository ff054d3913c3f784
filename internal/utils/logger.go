package utils

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
// The level accepts zap level names such as "debug" or "info"; an empty level means info.
func NewApplicationLogger(level string) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if level != EmptyString {
		parsedLevel, parseErr := zapcore.ParseLevel(level)
		if parseErr != nil {
			return nil, fmt.Errorf("parse log level %q: %w", level, parseErr)
		}
		config.Level = zap.NewAtomicLevelAt(parsedLevel)
	}
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.NameKey = "logger"
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	return config.Build()
}
