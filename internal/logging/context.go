package logging

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

var key ctxKey

// WithLogger returns ctx carrying l; the request logger middleware installs
// one per request with the request id attached.
func WithLogger(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, key, l)
}

// From returns the logger stored in ctx, or slog.Default().
func From(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(key).(*slog.Logger); ok && l != nil {
		return l
	}
	return slog.Default()
}
