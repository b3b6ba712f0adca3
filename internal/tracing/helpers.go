package tracing

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StartScoringSpan creates a span for one scoring computation. The entity
// count records how much work the span covered (kingdoms ranked, pool size
// compared, applicants matched).
//
// Example usage:
//
//	ctx, endSpan := tracing.StartScoringSpan(ctx, "rank", len(kingdoms))
//	defer endSpan(err)
func StartScoringSpan(ctx context.Context, operation string, entityCount int) (context.Context, func(error)) {
	tracer := otel.Tracer("kdstats/scoring")

	ctx, span := tracer.Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("scoring.operation", operation),
			attribute.Int("scoring.entity_count", entityCount),
		),
	)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// StartSpan creates a span for a general operation.
func StartSpan(ctx context.Context, name string) (context.Context, func(error)) {
	tracer := otel.Tracer("kdstats")

	ctx, span := tracer.Start(ctx, name)

	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}
