package guardar

import (
	"context"
	"fmt"
)

// Logger receives store diagnostics. Implementations should be safe for
// concurrent use.
type Logger interface {
	Info(ctx context.Context, format string, args ...interface{})
	Warn(ctx context.Context, format string, args ...interface{})
	Error(ctx context.Context, format string, args ...interface{})
	Debug(ctx context.Context, format string, args ...interface{})
}

// Level identifies the severity a LogFunc is called with.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// LogFunc adapts a single function to Logger. Messages arrive already
// formatted.
type LogFunc func(ctx context.Context, level Level, msg string)

func (f LogFunc) Info(ctx context.Context, format string, args ...interface{}) {
	f(ctx, LevelInfo, fmt.Sprintf(format, args...))
}

func (f LogFunc) Warn(ctx context.Context, format string, args ...interface{}) {
	f(ctx, LevelWarn, fmt.Sprintf(format, args...))
}

func (f LogFunc) Error(ctx context.Context, format string, args ...interface{}) {
	f(ctx, LevelError, fmt.Sprintf(format, args...))
}

func (f LogFunc) Debug(ctx context.Context, format string, args ...interface{}) {
	f(ctx, LevelDebug, fmt.Sprintf(format, args...))
}

type noopLogger struct{}

func (noopLogger) Info(context.Context, string, ...interface{})  {}
func (noopLogger) Warn(context.Context, string, ...interface{})  {}
func (noopLogger) Error(context.Context, string, ...interface{}) {}
func (noopLogger) Debug(context.Context, string, ...interface{}) {}

var defaultLogger Logger = noopLogger{}
