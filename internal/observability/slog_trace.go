package observability

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

// correlationHandler stamps every record emitted inside a recording span with
// the active trace and span ids, so a log line found in the aggregator can be
// joined back to its trace.
type correlationHandler struct {
	next slog.Handler
}

// withTraceCorrelation wraps next so records pick up trace correlation ids.
func withTraceCorrelation(next slog.Handler) slog.Handler {
	return &correlationHandler{next: next}
}

func (h *correlationHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *correlationHandler) Handle(ctx context.Context, rec slog.Record) error {
	if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
		rec.AddAttrs(
			slog.String("trace_id", sc.TraceID().String()),
			slog.String("span_id", sc.SpanID().String()),
		)
	}

	return h.next.Handle(ctx, rec)
}

func (h *correlationHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &correlationHandler{next: h.next.WithAttrs(attrs)}
}

func (h *correlationHandler) WithGroup(name string) slog.Handler {
	return &correlationHandler{next: h.next.WithGroup(name)}
}
