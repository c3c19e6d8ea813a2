package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/export"
	"github.com/checho651/bfx-report/internal/sources/mocks"
	"github.com/checho651/bfx-report/internal/telemetry"
)

func boolPtr(b bool) *bool { return &b }

// createTestAppConfig keeps the store in memory and the scheduler idle
func createTestAppConfig() *config.Config {
	return &config.Config{
		Database: &config.DatabaseConfig{Path: ":memory:"},
		Sync:     &config.SyncConfig{Interval: "1h"},
		Defaults: &config.DefaultsConfig{SchedulerEnabled: boolPtr(false), SyncModeOnline: boolPtr(false)},
	}
}

func createTestApp(t *testing.T, opts ...ReportAppOptions) *ReportApp {
	t.Helper()
	ctx := context.Background()

	tel, err := telemetry.New(ctx)
	require.NoError(t, err)

	ctrl := gomock.NewController(t)
	base := []ReportAppOptions{
		WithConfig(createTestAppConfig()),
		WithAddress("127.0.0.1:0"),
		WithSource(mocks.NewMockSource(ctrl)),
		WithExportStorage(export.NewFileStorage(afero.NewMemMapFs(), "/csv")),
		WithTelemetry(tel),
	}

	app, err := NewReportApp(ctx, append(base, opts...)...)
	require.NoError(t, err)
	return app
}

func TestReportApp_StartStop(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)

	errChan := make(chan error, 1)
	go func() {
		errChan <- app.Start()
	}()

	// give the listener a moment before shutting it down
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case err := <-errChan:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start() did not return after Stop()")
	}
}

func TestReportApp_Routes(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)
	t.Cleanup(func() { _ = app.Stop(time.Second) })
	handler := app.GetHTTPServer().Handler

	tests := []struct {
		name       string
		method     string
		path       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{name: "health", method: http.MethodGet, path: "/health", wantStatus: http.StatusOK, wantBody: `{"status":"healthy"}`},
		{name: "readiness", method: http.MethodGet, path: "/readiness", wantStatus: http.StatusOK, wantBody: `{"status":"ready"}`},
		{
			name:       "public toggle",
			method:     http.MethodPost,
			path:       "/api/get-data",
			body:       `{"method": "isSchedulerEnabled", "id": 1}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"result":false,"id":1}`,
		},
		{
			name:       "unknown credentials offline",
			method:     http.MethodPost,
			path:       "/api/check-auth",
			body:       `{"auth": {"apiKey": "k", "apiSecret": "s"}, "id": 1}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   `{"error":{"code":401,"message":"Unauthorized"},"id":null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body)))
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestReportApp_GetConfig(t *testing.T) {
	t.Parallel()

	app := createTestApp(t)
	t.Cleanup(func() { _ = app.Stop(time.Second) })

	assert.Equal(t, ":memory:", app.GetConfig().Database.Path)
	assert.Equal(t, "127.0.0.1:0", app.GetHTTPServer().Addr)
}
