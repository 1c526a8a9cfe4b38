package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Log is the process-wide logger. It discards everything until Init runs.
var Log = zap.NewNop()

// Init builds the global logger. format "json" selects the production
// encoder; anything else gets the coloured console encoder.
func Init(level, format string) error {
	var config zap.Config

	if format == "json" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("2006-01-02 15:04:05")
	}
	config.Level = zap.NewAtomicLevelAt(parseLevel(level))

	built, err := config.Build()
	if err != nil {
		return err
	}

	Set(built)
	return nil
}

// Set replaces the global logger, mostly for tests
func Set(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	Log = l
}

func parseLevel(level string) zapcore.Level {
	switch level {
	case "debug":
		return zap.DebugLevel
	case "warn":
		return zap.WarnLevel
	case "error":
		return zap.ErrorLevel
	default:
		return zap.InfoLevel
	}
}

// Sync flushes any buffered log entries
func Sync() {
	_ = Log.Sync()
}

// WithTraceID scopes the logger to one HTTP request
func WithTraceID(traceID string) *zap.Logger {
	return Log.With(zap.String("trace_id", traceID))
}

// WithSession scopes the logger to one page or terminal session
func WithSession(sessionID string) *zap.Logger {
	return Log.With(zap.String("session", sessionID))
}

// Named creates a named logger
func Named(name string) *zap.Logger {
	return Log.Named(name)
}

func Debug(msg string, fields ...zap.Field) {
	Log.Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	Log.Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	Log.Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	Log.Error(msg, fields...)
}
