// Package logging contains the leveled, structured logger used by odometry and its sensors.
package logging

import (
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultTimeFormatStr is the layout used for log timestamps.
const DefaultTimeFormatStr = "2006-01-02T15:04:05.000Z0700"

var (
	globalMu     sync.RWMutex
	globalLogger = NewDebugLogger("startup")
)

// Logger is the logging interface every component is handed at construction. Nothing in this
// module logs through ambient global state.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Sublogger returns a logger whose name is prefixed by this logger's name.
	Sublogger(subname string) Logger
	SetLevel(level zapcore.Level)
	Level() zapcore.Level
	AsZap() *zap.SugaredLogger
	Sync() error
}

type impl struct {
	*zap.SugaredLogger
	level zap.AtomicLevel
}

func (l *impl) Sublogger(subname string) Logger {
	return &impl{SugaredLogger: l.SugaredLogger.Named(subname), level: l.level}
}

func (l *impl) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

func (l *impl) AsZap() *zap.SugaredLogger {
	return l.SugaredLogger
}

// ReplaceGlobal replaces the global logger.
func ReplaceGlobal(logger Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
}

// Global returns the global logger. It is meant for process entry points only.
func Global() Logger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	return globalLogger
}

// NewEncoderConfig returns the console encoder config shared by all loggers: same keys as zap's
// production config, colored capital levels, no stacktraces.
func NewEncoderConfig(inUTC bool) zapcore.EncoderConfig {
	encodeTime := zapcore.TimeEncoderOfLayout(DefaultTimeFormatStr)
	if inUTC {
		encodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			enc.AppendString(t.UTC().Format(DefaultTimeFormatStr))
		}
	}
	return zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
		EncodeTime:     encodeTime,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
}

func newLogger(name string, level zap.AtomicLevel, cores ...zapcore.Core) Logger {
	sugar := zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Sugar()
	if name != "" {
		sugar = sugar.Named(name)
	}
	return &impl{SugaredLogger: sugar, level: level}
}

func newStdoutCore(level zap.AtomicLevel, inUTC bool) zapcore.Core {
	return zapcore.NewCore(zapcore.NewConsoleEncoder(NewEncoderConfig(inUTC)), zapcore.Lock(os.Stdout), level)
}

// NewLogger returns a new logger that outputs Info+ logs to stdout in UTC.
func NewLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	return newLogger(name, level, newStdoutCore(level, true))
}

// NewDebugLogger returns a new logger that outputs Debug+ logs to stdout in UTC.
func NewDebugLogger(name string) Logger {
	level := zap.NewAtomicLevelAt(zapcore.DebugLevel)
	return newLogger(name, level, newStdoutCore(level, true))
}

// NewBlankLogger returns a logger with no outputs.
func NewBlankLogger(name string) Logger {
	return newLogger(name, zap.NewAtomicLevelAt(zapcore.DebugLevel), zapcore.NewNopCore())
}
