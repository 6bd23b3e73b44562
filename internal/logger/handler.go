package logger

import (
	"context"
	"log/slog"

	"github.com/iYEiD/ds-midterm/internal/middleware"
)

// ContextHandler decorates a slog.Handler so records logged through the
// *Context variants carry the correlation id stored in the context. The
// pipeline threads that id from the HTTP request through broker payloads
// into the workers, so one id follows a URL end to end.
type ContextHandler struct {
	inner slog.Handler
}

func NewContextHandler(h slog.Handler) *ContextHandler {
	return &ContextHandler{inner: h}
}

func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if id := middleware.GetCorrelationID(ctx); id != "" {
		r.AddAttrs(slog.String("correlation_id", id))
	}
	return h.inner.Handle(ctx, r)
}

// WithAttrs and WithGroup rewrap so the decoration survives logger.With.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{inner: h.inner.WithAttrs(attrs)}
}

func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{inner: h.inner.WithGroup(name)}
}
