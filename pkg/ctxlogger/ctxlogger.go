package ctxlogger

import (
	"context"
	"log/slog"
)

type ctxKey struct{}

// ContextHandler wraps a slog.Handler and adds to every record the
// attributes previously attached to the context with AppendCtx.
type ContextHandler struct {
	Handler slog.Handler
}

func (h ContextHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.Handler.Enabled(ctx, level)
}

func (h ContextHandler) Handle(ctx context.Context, r slog.Record) error {
	if attrs, ok := ctx.Value(ctxKey{}).([]slog.Attr); ok {
		r.AddAttrs(attrs...)
	}

	return h.Handler.Handle(ctx, r)
}

func (h ContextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h ContextHandler) WithGroup(name string) slog.Handler {
	return ContextHandler{Handler: h.Handler.WithGroup(name)}
}

// AppendCtx returns a context carrying attr in addition to any attributes
// already attached to parent.
func AppendCtx(parent context.Context, attr slog.Attr) context.Context {
	if parent == nil {
		parent = context.Background()
	}

	if attrs, ok := parent.Value(ctxKey{}).([]slog.Attr); ok {
		newAttrs := make([]slog.Attr, len(attrs), len(attrs)+1)
		copy(newAttrs, attrs)
		return context.WithValue(parent, ctxKey{}, append(newAttrs, attr))
	}

	return context.WithValue(parent, ctxKey{}, []slog.Attr{attr})
}
