// Package logger provides the shared application logger.
package logger

import (
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	global       *zap.SugaredLogger
	defaultLevel = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() {
	global = New(defaultLevel)
}

// New creates a *zap.SugaredLogger with console output.
// If level is nil, the default level is used.
func New(level zapcore.LevelEnabler, options ...zap.Option) *zap.SugaredLogger {
	if level == nil {
		level = defaultLevel
	}

	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		MessageKey:       "message",
		LevelKey:         "level",
		CallerKey:        "caller",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeCaller:     zapcore.ShortCallerEncoder,
		ConsoleSeparator: ", ",
	})

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), level)

	return zap.New(core, options...).Sugar()
}

// SetLevel adjusts the minimum level of the shared logger from a string
// such as "debug" or "warn". Unknown values keep the current level.
func SetLevel(s string) {
	if level, ok := ParseLevel(s); ok {
		defaultLevel.SetLevel(level)
	}
}

// ParseLevel converts string input to a zap log level.
func ParseLevel(s string) (zapcore.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel, true
	case "info":
		return zapcore.InfoLevel, true
	case "warn":
		return zapcore.WarnLevel, true
	case "error":
		return zapcore.ErrorLevel, true
	case "fatal":
		return zapcore.FatalLevel, true
	default:
		return zapcore.InfoLevel, false
	}
}

// Logger returns the shared logger.
func Logger() *zap.SugaredLogger {
	return global
}

func Debugf(format string, args ...any) { global.Debugf(format, args...) }
func Infof(format string, args ...any)  { global.Infof(format, args...) }
func Warnf(format string, args ...any)  { global.Warnf(format, args...) }
func Errorf(format string, args ...any) { global.Errorf(format, args...) }
func Fatalf(format string, args ...any) { global.Fatalf(format, args...) }
