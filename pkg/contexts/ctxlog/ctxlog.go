// Package ctxlog carries a go-kit logger through a context, so the
// packaging stages can log without threading a logger argument
// through every call.
package ctxlog

import (
	"context"

	"github.com/go-kit/kit/log"
	"go.opencensus.io/trace"
)

type key int

const loggerKey key = 0

func NewContext(ctx context.Context, logger log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// With returns a context whose logger carries keyvals on every line.
func With(ctx context.Context, keyvals ...interface{}) context.Context {
	return NewContext(ctx, log.With(loggerFrom(ctx), keyvals...))
}

// FromContext returns the context's logger, or a nop logger if none
// was set. Inside a span, lines are tagged with the trace and span ids.
func FromContext(ctx context.Context) log.Logger {
	logger := loggerFrom(ctx)

	sc := trace.FromContext(ctx).SpanContext()
	if sc.TraceID == (trace.TraceID{}) {
		return logger
	}

	return log.With(
		logger,
		"trace_id", sc.TraceID.String(),
		"span_id", sc.SpanID.String(),
		"trace_is_sampled", sc.IsSampled(),
	)
}

func loggerFrom(ctx context.Context) log.Logger {
	if logger, ok := ctx.Value(loggerKey).(log.Logger); ok {
		return logger
	}
	return log.NewNopLogger()
}
