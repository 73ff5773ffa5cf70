package logging

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Logger struct {
	z *zap.Logger
}

func parseLevel(levelStr string) zapcore.Level {
	switch strings.ToLower(levelStr) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func NewLogger(levelStr string) *Logger {
	return NewLoggerWithWriter(levelStr, os.Stderr)
}

// NewLoggerWithWriter writes one JSON object per line to w.
func NewLoggerWithWriter(levelStr string, w io.Writer) *Logger {
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		MessageKey:     "msg",
		NameKey:        "logger",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(w), parseLevel(levelStr))
	return &Logger{z: zap.New(core)}
}

func NewNop() *Logger {
	return &Logger{z: zap.NewNop()}
}

func (l *Logger) WithComponent(component string) *Logger {
	return &Logger{z: l.z.With(zap.String("component", component))}
}

// Zap exposes the underlying logger for typed fields.
func (l *Logger) Zap() *zap.Logger { return l.z }

func (l *Logger) Sync() error { return l.z.Sync() }

func (l *Logger) Debug(format string, args ...interface{}) {
	l.z.Debug(fmt.Sprintf(format, args...))
}

func (l *Logger) Info(format string, args ...interface{}) {
	l.z.Info(fmt.Sprintf(format, args...))
}

func (l *Logger) Warn(format string, args ...interface{}) {
	l.z.Warn(fmt.Sprintf(format, args...))
}

func (l *Logger) Error(format string, args ...interface{}) {
	l.z.Error(fmt.Sprintf(format, args...))
}

func (l *Logger) Fatal(format string, args ...interface{}) {
	l.z.Fatal(fmt.Sprintf(format, args...))
}

func (l *Logger) Debugw(msg string, fields map[string]any) { l.z.Debug(msg, toFields(fields)...) }
func (l *Logger) Infow(msg string, fields map[string]any)  { l.z.Info(msg, toFields(fields)...) }
func (l *Logger) Warnw(msg string, fields map[string]any)  { l.z.Warn(msg, toFields(fields)...) }
func (l *Logger) Errorw(msg string, fields map[string]any) { l.z.Error(msg, toFields(fields)...) }

func toFields(fields map[string]any) []zap.Field {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]zap.Field, 0, len(keys))
	for _, k := range keys {
		if err, ok := fields[k].(error); ok {
			out = append(out, zap.NamedError(k, err))
			continue
		}
		out = append(out, zap.Any(k, fields[k]))
	}
	return out
}
