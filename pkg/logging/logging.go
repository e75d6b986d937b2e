// Package logging provides the key/value Logger used across gantta, backed by zap.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger takes a message followed by alternating key/value pairs:
//
//	logger.Warn("could not save tasks", "key", "tareas", "error", err)
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type zapLogger struct {
	s *zap.SugaredLogger
}

func (l *zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l *zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l *zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
func (l *zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }

// New builds a Logger writing to w. level is one of debug, info, warn, error;
// format is console or json. A nil w means stderr.
func New(level, format string, w io.Writer) (Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(level))); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	if w == nil {
		w = os.Stderr
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var enc zapcore.Encoder
	switch strings.ToLower(format) {
	case "", "console":
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
		enc = zapcore.NewConsoleEncoder(encCfg)
	case "json":
		enc = zapcore.NewJSONEncoder(encCfg)
	default:
		return nil, fmt.Errorf("invalid log format %q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return &zapLogger{s: zap.New(core).Sugar()}, nil
}

// Nop returns a Logger that discards everything.
func Nop() Logger {
	return &zapLogger{s: zap.NewNop().Sugar()}
}

// With returns a Logger that adds the given key/value pairs to every entry.
func With(l Logger, args ...any) Logger {
	if zl, ok := l.(*zapLogger); ok {
		return &zapLogger{s: zl.s.With(args...)}
	}
	return &prefixed{next: l, args: args}
}

type prefixed struct {
	next Logger
	args []any
}

func (p *prefixed) Debug(msg string, args ...any) { p.next.Debug(msg, p.join(args)...) }
func (p *prefixed) Info(msg string, args ...any)  { p.next.Info(msg, p.join(args)...) }
func (p *prefixed) Warn(msg string, args ...any)  { p.next.Warn(msg, p.join(args)...) }
func (p *prefixed) Error(msg string, args ...any) { p.next.Error(msg, p.join(args)...) }

func (p *prefixed) join(args []any) []any {
	out := make([]any, 0, len(p.args)+len(args))
	out = append(out, p.args...)
	return append(out, args...)
}
