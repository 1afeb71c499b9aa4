package logger

import (
	"context"
	"log/slog"
)

type flowIDKey struct{}

// WithFlowID stores a flow identifier in ctx. Loggers built with WithFlowIDFromContext
// attach it to every record logged with that context.
func WithFlowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, flowIDKey{}, id)
}

// FlowIDFromContext returns the flow identifier stored by WithFlowID.
func FlowIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(flowIDKey{}).(string)
	return id, ok && id != ""
}

// WithFlowIDFromContext injects the flow identifier from context into each record.
func WithFlowIDFromContext() Option {
	return WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
		id, ok := FlowIDFromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		return FlowID(id), true
	})
}
