package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// collect returns the metrics recorded under meterName, keyed by instrument name
func collect(t *testing.T, reader *sdkmetric.ManualReader, meterName string) map[string]metricdata.Metrics {
	t.Helper()

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	out := map[string]metricdata.Metrics{}
	for _, sm := range rm.ScopeMetrics {
		if sm.Scope.Name != meterName {
			continue
		}
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func newTestMeterProvider(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })
	return reader, mp
}

func TestNilProviderReturnsNilMetrics(t *testing.T) {
	t.Parallel()

	syncMetrics, err := NewSyncMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, syncMetrics)

	exportMetrics, err := NewExportMetrics(nil)
	require.NoError(t, err)
	assert.Nil(t, exportMetrics)

	// nil receivers are no-ops
	ctx := context.Background()
	syncMetrics.RecordCycle(ctx, "ledgers", time.Second, 10, true)
	syncMetrics.RecordTick(ctx, TickRan)
	exportMetrics.RecordEnqueued(ctx)
	exportMetrics.RecordJob(ctx, "getLedgers", time.Second, 10, true)
}

func TestSyncMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := NewSyncMetrics(mp)
	require.NoError(t, err)
	ctx := context.Background()

	metrics.RecordCycle(ctx, "ledgers", 2*time.Second, 120, true)
	metrics.RecordCycle(ctx, "ledgers", time.Second, 0, false)
	metrics.RecordCycle(ctx, "trades", time.Second, 7, true)
	metrics.RecordTick(ctx, TickRan)
	metrics.RecordTick(ctx, TickOffline)
	metrics.RecordTick(ctx, TickOffline)

	got := collect(t, reader, SyncMetricsMeterName)

	hist, ok := got["bfx_report_sync_cycle_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	var cycles uint64
	for _, dp := range hist.DataPoints {
		cycles += dp.Count
	}
	assert.Equal(t, uint64(3), cycles)

	rows, ok := got["bfx_report_sync_rows_inserted_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	perCollection := map[string]int64{}
	for _, dp := range rows.DataPoints {
		v, _ := dp.Attributes.Value("collection")
		perCollection[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{"ledgers": 120, "trades": 7}, perCollection)

	ticks, ok := got["bfx_report_sync_ticks_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	perOutcome := map[string]int64{}
	for _, dp := range ticks.DataPoints {
		v, _ := dp.Attributes.Value("outcome")
		perOutcome[v.AsString()] = dp.Value
	}
	assert.Equal(t, map[string]int64{TickRan: 1, TickOffline: 2}, perOutcome)
}

func TestExportMetrics(t *testing.T) {
	t.Parallel()

	reader, mp := newTestMeterProvider(t)
	metrics, err := NewExportMetrics(mp)
	require.NoError(t, err)
	ctx := context.Background()

	metrics.RecordEnqueued(ctx)
	metrics.RecordEnqueued(ctx)
	metrics.RecordEnqueued(ctx)
	metrics.RecordJob(ctx, "getLedgers", time.Second, 50, true)
	metrics.RecordJob(ctx, "getTrades", time.Second, 0, false)

	got := collect(t, reader, ExportMetricsMeterName)

	pending, ok := got["bfx_report_export_jobs_pending"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, pending.DataPoints, 1)
	assert.Equal(t, int64(1), pending.DataPoints[0].Value)

	jobs, ok := got["bfx_report_export_jobs_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Len(t, jobs.DataPoints, 2)

	exported, ok := got["bfx_report_export_rows_total"].Data.(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, exported.DataPoints, 1)
	assert.Equal(t, int64(50), exported.DataPoints[0].Value)
}
