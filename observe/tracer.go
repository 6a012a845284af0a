package observe

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// LoadMeta carries span metadata for one resource load.
type LoadMeta struct {
	Resource string // resource type (required)
	Key      string // canonical cache key (optional)
}

// SpanName returns the deterministic span name for this load.
// Format: sync.load.<resource>
func (m LoadMeta) SpanName() string {
	return "sync.load." + m.Resource
}

// Tracer wraps OpenTelemetry tracing with load-specific span management.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: EndSpan must be best-effort and must not panic.
type Tracer interface {
	// StartSpan starts a new span for a resource load.
	StartSpan(ctx context.Context, meta LoadMeta) (context.Context, trace.Span)

	// EndSpan ends the span, recording any error.
	EndSpan(span trace.Span, err error)
}

// tracerImpl is the concrete implementation of Tracer.
type tracerImpl struct {
	tracer trace.Tracer
}

// NewTracer creates a Tracer wrapping the given OpenTelemetry tracer.
func NewTracer(t trace.Tracer) Tracer {
	return &tracerImpl{tracer: t}
}

// StartSpan starts a new span with load metadata as attributes.
func (t *tracerImpl) StartSpan(ctx context.Context, meta LoadMeta) (context.Context, trace.Span) {
	attrs := []attribute.KeyValue{
		attribute.String("resource.type", meta.Resource),
	}
	if meta.Key != "" {
		attrs = append(attrs, attribute.String("resource.key", meta.Key))
	}

	return t.tracer.Start(ctx, meta.SpanName(),
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindClient),
	)
}

// EndSpan ends the span and records the error status if present.
func (t *tracerImpl) EndSpan(span trace.Span, err error) {
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		span.RecordError(err)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// nopTracer is a tracer that does nothing.
type nopTracer struct {
	noop trace.Tracer
}

// NopTracer returns a Tracer that records nothing.
func NopTracer() Tracer {
	return &nopTracer{
		noop: tracenoop.NewTracerProvider().Tracer("nop"),
	}
}

func (t *nopTracer) StartSpan(ctx context.Context, meta LoadMeta) (context.Context, trace.Span) {
	return t.noop.Start(ctx, meta.SpanName())
}

func (t *nopTracer) EndSpan(span trace.Span, err error) {
	span.End()
}
