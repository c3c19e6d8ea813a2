package database

import (
	"context"

	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/checho651/bfx-report/internal/otel"
)

const (
	// ServiceTracerName is the name used for the database service tracer
	ServiceTracerName = "github.com/checho651/bfx-report/service/db"
)

// startSpan starts a span for a store-backed operation. Every span carries
// the db.system attribute; a nil tracer yields the span already in ctx.
func (s *dbService) startSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, trace.SpanFromContext(ctx)
	}
	opts = append([]trace.SpanStartOption{trace.WithAttributes(semconv.DBSystemSqlite)}, opts...)
	return otel.StartSpan(ctx, s.tracer, name, opts...)
}
