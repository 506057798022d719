// Package logging provides the leveled, structured logger used throughout
// the tracker, wrapping go.uber.org/zap the way go.viam.com/rdk/logging
// wraps it: a small Logger interface, context-aware C*f methods, and
// Sublogger/With for scoping.
package logging

import (
	"context"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the leveled, structured logging surface used across this module.
type Logger interface {
	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})
	CDebugf(ctx context.Context, template string, args ...interface{})
	CInfof(ctx context.Context, template string, args ...interface{})
	CWarnf(ctx context.Context, template string, args ...interface{})
	With(args ...interface{}) Logger
	Sublogger(name string) Logger
}

type zapLogger struct {
	sugar *zap.SugaredLogger
	name  string
}

// NewLogger returns a production logger named name.
func NewLogger(name string) Logger {
	z, err := zap.NewProduction()
	if err != nil {
		z = zap.NewNop()
	}
	return &zapLogger{sugar: z.Sugar().Named(name), name: name}
}

// NewNopLogger returns a logger that discards everything.
func NewNopLogger() Logger {
	return &zapLogger{sugar: zap.NewNop().Sugar(), name: "nop"}
}

type testWriter struct {
	t testing.TB
}

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(strings.TrimRight(string(p), "\n"))
	return len(p), nil
}

func (w testWriter) Sync() error { return nil }

// NewTestLogger returns a logger that writes through t.Log, following the
// teacher convention of logging.NewTestLogger(t) inside _test.go files.
func NewTestLogger(t testing.TB) Logger {
	encoderCfg := zap.NewDevelopmentEncoderConfig()
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(testWriter{t}), zapcore.DebugLevel)
	return &zapLogger{sugar: zap.New(core).Sugar(), name: "test"}
}

func (l *zapLogger) Debugf(template string, args ...interface{}) { l.sugar.Debugf(template, args...) }
func (l *zapLogger) Infof(template string, args ...interface{})  { l.sugar.Infof(template, args...) }
func (l *zapLogger) Warnf(template string, args ...interface{})  { l.sugar.Warnf(template, args...) }
func (l *zapLogger) Errorf(template string, args ...interface{}) { l.sugar.Errorf(template, args...) }

func (l *zapLogger) CDebugf(_ context.Context, template string, args ...interface{}) {
	l.sugar.Debugf(template, args...)
}

func (l *zapLogger) CInfof(_ context.Context, template string, args ...interface{}) {
	l.sugar.Infof(template, args...)
}

func (l *zapLogger) CWarnf(_ context.Context, template string, args ...interface{}) {
	l.sugar.Warnf(template, args...)
}

func (l *zapLogger) With(args ...interface{}) Logger {
	return &zapLogger{sugar: l.sugar.With(args...), name: l.name}
}

func (l *zapLogger) Sublogger(name string) Logger {
	return &zapLogger{sugar: l.sugar.Named(name), name: l.name + "." + name}
}
