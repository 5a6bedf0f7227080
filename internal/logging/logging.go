// Package logging builds the zap logger used by fsmdemo
package logging

import (
	"io"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const defaultTimeFormat = "2006-01-02 15:04:05"

// Options selects the level and destination. An empty File logs to stderr.
type Options struct {
	Level     string
	File      string
	MaxSizeMB int
}

// Logger is a zap logger whose level can change at runtime
type Logger struct {
	*zap.Logger
	level  zap.AtomicLevel
	closer io.Closer
}

// New builds a console-encoded logger. File output is rotated by size.
func New(opts Options) (*Logger, error) {
	level, err := zapcore.ParseLevel(defaultString(opts.Level, "info"))
	if err != nil {
		return nil, err
	}

	var (
		out    io.Writer = os.Stderr
		closer io.Closer
	)
	if opts.File != "" {
		rotator := &lumberjack.Logger{
			Filename: opts.File,
			MaxSize:  opts.MaxSizeMB,
		}
		out, closer = rotator, rotator
	}

	return newLogger(out, closer, level), nil
}

func newLogger(out io.Writer, closer io.Closer, level zapcore.Level) *Logger {
	al := zap.NewAtomicLevelAt(level)
	core := zapcore.NewCore(Encoder(), zapcore.AddSync(out), al)
	return &Logger{
		Logger: zap.New(core, zap.AddCaller()),
		level:  al,
		closer: closer,
	}
}

// Encoder returns the console encoder with bracketed level, time and caller
func Encoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    encodeLevel,
		EncodeTime:     encodeTime,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   encodeCaller,
	})
}

func encodeLevel(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + level.CapitalString() + "]")
}

func encodeTime(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + t.Format(defaultTimeFormat) + "]")
}

func encodeCaller(caller zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + caller.TrimmedPath() + "]")
}

// SetLevel changes the minimum enabled level
func (l *Logger) SetLevel(level zapcore.Level) {
	l.level.SetLevel(level)
}

// Close flushes the logger and releases the log file, if any
func (l *Logger) Close() error {
	_ = l.Sync()
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}

func defaultString(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
