package logger

import (
	"context"
	"log/slog"
)

type loggerKey struct{}

// With stores a child of the context logger carrying fields, so every later
// From(ctx) call logs them.
func With(ctx context.Context, fields ...any) context.Context {
	if len(fields) == 0 {
		return ctx
	}
	return context.WithValue(ctx, loggerKey{}, From(ctx).With(fields...))
}

// From returns the request logger, falling back to the process logger.
func From(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok {
			return l
		}
	}
	return LoggerWrapper()
}
