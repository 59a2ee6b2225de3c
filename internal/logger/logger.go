// Package logger builds the application's zap loggers.  Two loggers exist:
// the main service logger writing JSON to stdout, and a dedicated audit
// logger writing authorization denials to a rotating file so the trail
// survives restarts and can be shipped independently.
package logger

import (
	"github.com/natefinch/lumberjack"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns the main application logger.  In dev the output is
// human-readable with colors; in any other environment it is JSON at info
// level.
func New(env string) *zap.Logger {
	if env == "dev" {
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		log, err := cfg.Build()
		if err != nil {
			return zap.NewNop()
		}
		return log
	}
	log, err := zap.NewProduction()
	if err != nil {
		return zap.NewNop()
	}
	return log
}

// NewAudit returns a logger that appends JSON lines to the given file with
// size-based rotation.  Used by the role middleware to record authorization
// denials.  Passing an empty path sends audit entries to the main logger's
// core instead.
func NewAudit(path string, fallback *zap.Logger) *zap.Logger {
	if path == "" {
		return fallback.Named("audit")
	}
	sink := zapcore.AddSync(&lumberjack.Logger{
		Filename:   path,
		MaxSize:    50, // megabytes
		MaxBackups: 10,
		MaxAge:     90, // days
		Compress:   true,
	})
	enc := zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	core := zapcore.NewCore(enc, sink, zapcore.InfoLevel)
	return zap.New(core).Named("audit")
}
