package logging

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// NewFileLogger returns a logger that outputs Info+ logs to stdout and, as JSON lines, to a
// size rotated file at path. Close the returned closer once the logger is no longer used.
func NewFileLogger(name, path string) (Logger, io.Closer) {
	level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
	file := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64,
		MaxBackups: 2,
		Compress:   true,
	}
	encoderCfg := NewEncoderConfig(true)
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(file), level)
	return newLogger(name, level, newStdoutCore(level, true), fileCore), file
}
