package logger

import (
	"io"
	"log/slog"
	"os"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[slog.Logger]

// Init initializes the default logger with appropriate handler based on environment
func Init(env string, debug bool) {
	InitWriter(os.Stdout, env, debug)
}

// InitWriter is Init with an explicit destination.
func InitWriter(w io.Writer, env string, debug bool) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}

	if debug {
		opts.Level = slog.LevelDebug
	}

	if env == "development" {
		// Use text handler for development (human-readable)
		handler = slog.NewTextHandler(w, opts)
	} else {
		// Use JSON handler for production (structured logging)
		handler = slog.NewJSONHandler(w, opts)
	}

	l := slog.New(handler).With(slog.String("app", "marquee"))
	defaultLogger.Store(l)
	slog.SetDefault(l)
}

// Default returns the logger set by Init, or slog's default before that.
func Default() *slog.Logger {
	if l := defaultLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

// With returns a logger with the given attributes
func With(args ...any) *slog.Logger {
	return Default().With(args...)
}
