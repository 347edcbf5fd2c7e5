package vecstore

import (
	"context"
	"log/slog"
	"os"
)

// Logger wraps slog.Logger with store-specific helpers.
// This provides structured logging with consistent field names.
type Logger struct {
	*slog.Logger
}

// NewLogger creates a new Logger with the given handler.
// If handler is nil, uses default text handler to stderr.
func NewLogger(handler slog.Handler) *Logger {
	if handler == nil {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewJSONLogger creates a Logger that outputs JSON-formatted logs.
func NewJSONLogger(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NewTextLogger creates a Logger that outputs human-readable text logs.
func NewTextLogger(level slog.Level) *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// NoopLogger creates a Logger that discards all log output.
func NoopLogger() *Logger {
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.Level(1000), // Unreachable level
	})
	return &Logger{
		Logger: slog.New(handler),
	}
}

// WithStore adds a store name field to the logger.
func (l *Logger) WithStore(name string) *Logger {
	return &Logger{
		Logger: l.Logger.With("store", name),
	}
}

// LogAdd logs an add operation.
func (l *Logger) LogAdd(ctx context.Context, id string, dimension int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "add failed",
			"id", id,
			"dimension", dimension,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "add completed",
			"id", id,
			"dimension", dimension,
		)
	}
}

// LogBatchAdd logs a batch add operation.
func (l *Logger) LogBatchAdd(ctx context.Context, total, committed int, err error) {
	if err != nil {
		l.WarnContext(ctx, "batch add failed",
			"total", total,
			"committed", committed,
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "batch add completed",
			"count", total,
		)
	}
}

// LogSearch logs a search operation.
func (l *Logger) LogSearch(ctx context.Context, limit, resultsFound int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "search failed",
			"limit", limit,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "search completed",
			"limit", limit,
			"results", resultsFound,
		)
	}
}

// LogDelete logs a delete operation.
func (l *Logger) LogDelete(ctx context.Context, id string, err error) {
	if err != nil {
		l.ErrorContext(ctx, "delete failed",
			"id", id,
			"error", err,
		)
	} else {
		l.DebugContext(ctx, "delete completed",
			"id", id,
		)
	}
}

// LogClear logs a clear operation.
func (l *Logger) LogClear(ctx context.Context, removed int, err error) {
	if err != nil {
		l.ErrorContext(ctx, "clear failed",
			"error", err,
		)
	} else {
		l.InfoContext(ctx, "clear completed",
			"removed", removed,
		)
	}
}
