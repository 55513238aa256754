package telemetry

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Engine span names.
const (
	SpanSimulateStock       = "engine.simulate_stock"
	SpanBlackScholes        = "engine.black_scholes"
	SpanBlackScholesSeries  = "engine.black_scholes_series"
	SpanMonteCarlo          = "engine.monte_carlo"
	SpanSimulateFutures     = "engine.simulate_futures"
	SpanSimulateETF         = "engine.simulate_etf"
	attrSimulationOperation = "simulation.operation"
)

// StartEngineSpan starts an internal span for one engine operation.
func StartEngineSpan(ctx context.Context, operation string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	attrs = append(attrs, attribute.String(attrSimulationOperation, operation))
	return GetEngineTracer().Start(ctx, operation,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attrs...),
	)
}

// EndEngineSpan records the outcome of an engine operation and ends span.
func EndEngineSpan(span trace.Span, err error, attrs ...attribute.KeyValue) {
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
	if err != nil {
		RecordError(span, err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
