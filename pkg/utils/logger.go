package utils

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewProductionLogger returns a JSON logger at info level. Timestamps are
// ISO8601 so log lines sort together with the extraction pipeline's.
func NewProductionLogger() (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise NewProductionLogger.
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return NewProductionLogger()
}
