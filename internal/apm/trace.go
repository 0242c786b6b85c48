// Package apm sets up OpenTelemetry tracing for product scout.
package apm

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/product-scout/internal/apperror"
)

// Tracer starts spans for one instrumentation scope. It resolves the global
// provider at construction, so create it after NewTraceProvider.
type Tracer struct {
	tracer trace.Tracer
}

// NewTracer returns a tracer for the named scope.
func NewTracer(name string) *Tracer {
	return &Tracer{tracer: otel.Tracer(name)}
}

// Start opens a child span of ctx carrying attrs.
func (t *Tracer) Start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, *Span) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, &Span{Span: span}
}

// Span is an OpenTelemetry span that knows how to close over a named error return.
type Span struct {
	trace.Span
}

// Finish ends the span with the outcome in *err. Application errors are
// tagged with their code; cancellation is not reported as a failure.
//
//	ctx, span := tracer.Start(ctx, "Ranker.Rank")
//	defer span.Finish(&err)
func (s *Span) Finish(err *error) {
	defer s.End()

	if err == nil || *err == nil {
		s.SetStatus(codes.Ok, "")
		return
	}

	e := *err
	var appErr *apperror.AppError
	if errors.As(e, &appErr) {
		s.SetAttributes(attribute.String("error.code", string(appErr.Code)))
	}
	if errors.Is(e, context.Canceled) || (appErr != nil && appErr.Code == apperror.CodeEvaluationCancelled) {
		s.SetAttributes(attribute.Bool("cancelled", true))
		return
	}
	s.RecordError(e)
	s.SetStatus(codes.Error, e.Error())
}
