// Package obstrace wraps a decode pipeline stage in an OpenTelemetry span,
// the same TracedStage pattern the rest-of-pack fn/pipeline.go uses for
// otel.Tracer(...).Start/span.RecordError/span.SetStatus around a generic
// stage function. The decoder wraps only its WMI-resolve stage with Stage;
// the other stages run without a span of their own.
package obstrace

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "autolytiq/vindecoder"

// Stage runs fn inside a child span named name, recording err on the span
// if fn returns one (or panics, via the caller's own recover — obstrace
// does not suppress panics).
func Stage[T any](ctx context.Context, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, name)
	defer span.End()

	result, err := fn(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return result, err
}

// Annotate attaches key/value attributes to the current span in ctx. The
// decoder uses it to record the resolved WMI code and id on whatever span
// the caller's ctx carries; it starts no span of its own.
func Annotate(ctx context.Context, attrs ...attribute.KeyValue) {
	trace.SpanFromContext(ctx).SetAttributes(attrs...)
}
