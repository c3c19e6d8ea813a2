package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	// SyncMetricsMeterName is the name used for the sync metrics meter
	SyncMetricsMeterName = "github.com/checho651/bfx-report/sync"

	// ExportMetricsMeterName is the name used for the export metrics meter
	ExportMetricsMeterName = "github.com/checho651/bfx-report/export"
)

// Scheduler tick outcomes
const (
	TickRan          = "ran"
	TickSchedulerOff = "scheduler_disabled"
	TickOffline      = "offline"
	TickFailed       = "failed"
)

// SyncMetrics holds the OpenTelemetry instruments of the sync engine. A nil
// *SyncMetrics records nothing.
type SyncMetrics struct {
	cycleDuration metric.Float64Histogram
	rowsInserted  metric.Int64Counter
	ticks         metric.Int64Counter
}

// NewSyncMetrics creates a new SyncMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewSyncMetrics(provider metric.MeterProvider) (*SyncMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(SyncMetricsMeterName)

	cycleDuration, err := meter.Float64Histogram(
		"bfx_report_sync_cycle_duration_seconds",
		metric.WithDescription("Duration of one sync cycle of one scope in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	rowsInserted, err := meter.Int64Counter(
		"bfx_report_sync_rows_inserted_total",
		metric.WithDescription("Rows added to the local store by sync cycles"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	ticks, err := meter.Int64Counter(
		"bfx_report_sync_ticks_total",
		metric.WithDescription("Scheduler ticks by outcome"),
		metric.WithUnit("{tick}"),
	)
	if err != nil {
		return nil, err
	}

	return &SyncMetrics{
		cycleDuration: cycleDuration,
		rowsInserted:  rowsInserted,
		ticks:         ticks,
	}, nil
}

// RecordCycle records one finished cycle of a collection scope
func (m *SyncMetrics) RecordCycle(ctx context.Context, collection string, duration time.Duration, rows int64, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("collection", collection),
		attribute.Bool("success", success),
	)
	m.cycleDuration.Record(ctx, duration.Seconds(), attrs)
	if rows > 0 {
		m.rowsInserted.Add(ctx, rows, metric.WithAttributes(attribute.String("collection", collection)))
	}
}

// RecordTick counts one scheduler tick with one of the Tick* outcomes
func (m *SyncMetrics) RecordTick(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.ticks.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

// ExportMetrics holds the OpenTelemetry instruments of the export queue. A
// nil *ExportMetrics records nothing.
type ExportMetrics struct {
	jobDuration  metric.Float64Histogram
	jobs         metric.Int64Counter
	rowsExported metric.Int64Counter
	queued       metric.Int64UpDownCounter
}

// NewExportMetrics creates a new ExportMetrics instance with the given meter provider.
// If provider is nil, it returns nil (no-op metrics).
func NewExportMetrics(provider metric.MeterProvider) (*ExportMetrics, error) {
	if provider == nil {
		return nil, nil
	}
	meter := provider.Meter(ExportMetricsMeterName)

	jobDuration, err := meter.Float64Histogram(
		"bfx_report_export_job_duration_seconds",
		metric.WithDescription("Duration of export jobs in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300),
	)
	if err != nil {
		return nil, err
	}

	jobs, err := meter.Int64Counter(
		"bfx_report_export_jobs_total",
		metric.WithDescription("Finished export jobs by method and outcome"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	rowsExported, err := meter.Int64Counter(
		"bfx_report_export_rows_total",
		metric.WithDescription("Rows written to export files"),
		metric.WithUnit("{row}"),
	)
	if err != nil {
		return nil, err
	}

	queued, err := meter.Int64UpDownCounter(
		"bfx_report_export_jobs_pending",
		metric.WithDescription("Export jobs accepted and not yet finished"),
		metric.WithUnit("{job}"),
	)
	if err != nil {
		return nil, err
	}

	return &ExportMetrics{
		jobDuration:  jobDuration,
		jobs:         jobs,
		rowsExported: rowsExported,
		queued:       queued,
	}, nil
}

// RecordEnqueued counts a job entering the queue
func (m *ExportMetrics) RecordEnqueued(ctx context.Context) {
	if m == nil {
		return
	}
	m.queued.Add(ctx, 1)
}

// RecordJob records one finished export job
func (m *ExportMetrics) RecordJob(ctx context.Context, method string, duration time.Duration, rows int64, success bool) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.Bool("success", success),
	)
	m.queued.Add(ctx, -1)
	m.jobDuration.Record(ctx, duration.Seconds(), attrs)
	m.jobs.Add(ctx, 1, attrs)
	if rows > 0 {
		m.rowsExported.Add(ctx, rows, metric.WithAttributes(attribute.String("method", method)))
	}
}
