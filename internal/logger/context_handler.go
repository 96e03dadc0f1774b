package logger

import (
	"context"
	"log/slog"

	"github.com/rmadesk/rma-qa/internal/ctxutil"
)

// ContextHandler wraps another handler and adds the request_id and
// client_key attributes stored in the context to every record.
type ContextHandler struct {
	handler slog.Handler
}

// NewContextHandler creates a new ContextHandler that wraps the provided handler.
func NewContextHandler(handler slog.Handler) *ContextHandler {
	return &ContextHandler{handler: handler}
}

// Enabled delegates to the wrapped handler.
func (h *ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle adds the tracing attributes and delegates. Canceling ctx does not
// affect record processing.
func (h *ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if requestID, ok := ctxutil.GetRequestID(ctx); ok && requestID != "" {
		r.AddAttrs(slog.String("request_id", requestID))
	}
	if key := ctxutil.GetClientKey(ctx); key != "" {
		r.AddAttrs(slog.String("client_key", key))
	}
	return h.handler.Handle(ctx, r)
}

// WithAttrs returns a ContextHandler over h's handler with attrs added.
func (h *ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &ContextHandler{handler: h.handler.WithAttrs(attrs)}
}

// WithGroup returns a ContextHandler over h's handler opened in group name.
func (h *ContextHandler) WithGroup(name string) slog.Handler {
	return &ContextHandler{handler: h.handler.WithGroup(name)}
}
