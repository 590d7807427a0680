// Package logger provides the process-wide structured logger used by every
// component in this module. Components call the package-level helpers
// directly rather than threading a logger through constructors, matching
// how the rest of the ambient stack expects to log.
package logger

import (
	"context"
	"log/slog"
	"os"
	"sync"
)

var (
	defaultLogger *slog.Logger
	level         = new(slog.LevelVar)
	once          sync.Once
)

// Initialize sets up the structured logger. Safe to call more than once;
// only the first call takes effect.
func Initialize() {
	once.Do(func() {
		level.Set(slog.LevelInfo)
		handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:     level,
			AddSource: false,
		})
		defaultLogger = slog.New(handler)
	})
}

// Get returns the default structured logger.
func Get() *slog.Logger {
	Initialize()
	return defaultLogger
}

// SetDebug toggles debug-level output, for callers that want to gate
// verbose output (e.g. deciding via DebugEnabled whether to call the
// analyzer registry's DebugDump) behind the same level switch as
// everything else instead of a build tag.
func SetDebug(on bool) {
	Initialize()
	if on {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

// DebugEnabled reports whether debug-level logging is currently active.
func DebugEnabled() bool {
	Initialize()
	return level.Level() <= slog.LevelDebug
}

func Info(msg string, args ...any)  { Get().Info(msg, args...) }
func Warn(msg string, args ...any)  { Get().Warn(msg, args...) }
func Error(msg string, args ...any) { Get().Error(msg, args...) }
func Debug(msg string, args ...any) { Get().Debug(msg, args...) }

func InfoContext(ctx context.Context, msg string, args ...any)  { Get().InfoContext(ctx, msg, args...) }
func WarnContext(ctx context.Context, msg string, args ...any)  { Get().WarnContext(ctx, msg, args...) }
func ErrorContext(ctx context.Context, msg string, args ...any) { Get().ErrorContext(ctx, msg, args...) }
func DebugContext(ctx context.Context, msg string, args ...any) { Get().DebugContext(ctx, msg, args...) }

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger { return Get().With(args...) }

// WithGroup returns a logger with the given group name.
func WithGroup(name string) *slog.Logger { return Get().WithGroup(name) }
