package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"

	"github.com/checho651/bfx-report/internal/otel"
	"github.com/checho651/bfx-report/internal/service"
)

// newTestTracerProvider creates a tracer provider with in-memory exporter for testing.
func newTestTracerProvider(t *testing.T) (*tracetest.InMemoryExporter, trace.TracerProvider) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return exporter, tp
}

func TestDBServiceStartSpan_AddsDBSystemAttribute(t *testing.T) {
	t.Parallel()

	exporter, tp := newTestTracerProvider(t)
	svc := &dbService{tracer: tp.Tracer(ServiceTracerName)}

	_, span := svc.startSpan(context.Background(), "dbService.TestOperation",
		trace.WithAttributes(otel.AttrCollection.String("ledgers")),
	)
	span.End()

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "dbService.TestOperation", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, attribute.String("db.system", "sqlite"))
	assert.Contains(t, spans[0].Attributes, otel.AttrCollection.String("ledgers"))
}

func TestDBServiceStartSpan_NilTracer(t *testing.T) {
	t.Parallel()

	svc := &dbService{tracer: nil}
	resultCtx, span := svc.startSpan(context.Background(), "test.operation")

	require.NotNil(t, resultCtx)
	require.NotNil(t, span)
	assert.False(t, span.SpanContext().IsValid(), "nil tracer should return no-op span")
	assert.NotPanics(t, func() { span.End() })
}

func TestCall_RecordsSpans(t *testing.T) {
	t.Parallel()

	env := setupTestService(t)
	exporter, tp := newTestTracerProvider(t)
	svc, err := New(WithDB(env.sqlDB), WithRegistry(env.reg), WithSettings(env.settings),
		WithTracer(tp.Tracer(ServiceTracerName)))
	require.NoError(t, err)

	_, err = svc.Call(context.Background(), service.Request{Method: service.MethodIsSchedulerEnabled})
	require.NoError(t, err)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "dbService.Call", spans[0].Name)
	assert.Contains(t, spans[0].Attributes, otel.AttrMethod.String(service.MethodIsSchedulerEnabled))
}
