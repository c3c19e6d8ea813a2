package report_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/checho651/bfx-report/internal/api/report"
	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/export"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
	"github.com/checho651/bfx-report/internal/service/mocks"
)

const (
	unauthorizedBody = `{"error":{"code":401,"message":"Unauthorized"},"id":null}`
	validToken       = "token-1"
)

var testUser = db.User{ID: 7, Email: "user@example.com", Active: true}

// jobStore keeps export job records in memory
type jobStore struct {
	mu   sync.Mutex
	jobs map[string]db.ExportJob
}

func (s *jobStore) InsertExportJobs(_ context.Context, jobs []db.ExportJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, j := range jobs {
		s.jobs[j.ID] = j
	}
	return nil
}

func (s *jobStore) UpdateExportJob(ctx context.Context, j db.ExportJob) error {
	return s.InsertExportJobs(ctx, []db.ExportJob{j})
}

func (s *jobStore) GetExportJob(_ context.Context, id string) (db.ExportJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.jobs[id]
	if !ok {
		return db.ExportJob{}, sql.ErrNoRows
	}
	return j, nil
}

type testEnv struct {
	svc    *mocks.MockReportService
	fs     afero.Fs
	jobs   *jobStore
	router http.Handler
}

// failingStorage fails to create files whose name starts with prefix
type failingStorage struct {
	export.Storage
	prefix string
}

func (s failingStorage) Create(name string) (export.File, error) {
	if strings.HasPrefix(name, s.prefix) {
		return nil, errors.New("disk full")
	}
	return s.Storage.Create(name)
}

func setupRouter(t *testing.T) *testEnv {
	t.Helper()
	fs := afero.NewMemMapFs()
	return setupRouterWithStorage(t, fs, export.NewFileStorage(fs, "/csv"))
}

func setupRouterWithStorage(t *testing.T, fs afero.Fs, storage export.Storage) *testEnv {
	t.Helper()
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockReportService(ctrl)

	svc.EXPECT().Authenticate(gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, creds auth.Credentials) (db.User, error) {
			if creds.AuthToken == validToken {
				return testUser, nil
			}
			return db.User{}, auth.ErrUnauthorized
		}).AnyTimes()

	jobs := &jobStore{jobs: map[string]db.ExportJob{}}
	queue := export.NewQueue(svc, storage, registry.New(nil),
		export.WithRecorder(jobs),
		export.WithWorkers(2),
		export.WithClock(func() time.Time { return time.Date(2026, time.October, 15, 9, 0, 0, 0, time.UTC) }),
	)
	t.Cleanup(queue.Close)

	return &testEnv{svc: svc, fs: fs, jobs: jobs, router: report.Router(svc, queue)}
}

// waitForJob polls the job endpoint until the job reaches a final state
func (e *testEnv) waitForJob(t *testing.T, id string) report.ExportJobResponse {
	t.Helper()
	var job struct {
		Result report.ExportJobResponse `json:"result"`
	}
	require.Eventually(t, func() bool {
		rr := e.do(t, http.MethodGet, "/export-jobs/"+id, "")
		if rr.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Result.State == string(export.StateCompleted) || job.Result.State == string(export.StateFailed)
	}, 5*time.Second, 10*time.Millisecond)
	return job.Result
}

func emitRows(rows ...registry.Row) func(context.Context, db.User, string, service.QueryParams, func(registry.Row) error) error {
	return func(_ context.Context, _ db.User, _ string, _ service.QueryParams, fn func(registry.Row) error) error {
		for _, row := range rows {
			if err := fn(row); err != nil {
				return err
			}
		}
		return nil
	}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func TestCheckAuth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "valid token",
			body:       `{"auth": {"authToken": "token-1"}, "id": 5}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"result": true, "id": 5}`,
		},
		{
			name:       "empty key pair",
			body:       `{"auth": {"apiKey": "", "apiSecret": ""}, "id": 5}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   unauthorizedBody,
		},
		{
			name:       "missing auth",
			body:       `{"id": "x"}`,
			wantStatus: http.StatusUnauthorized,
			wantBody:   unauthorizedBody,
		},
		{
			name:       "body is not an object",
			body:       `[1, 2]`,
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error": {"code": 500, "message": "Internal Server Error"}, "id": null}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupRouter(t)

			rr := env.do(t, http.MethodPost, "/check-auth", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestGetData(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setupMock  func(*mocks.MockReportService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "rows",
			body: `{"auth": {"authToken": "token-1"}, "method": "getLedgers", "params": {"limit": 1}, "id": 3}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Call(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, req service.Request) (any, error) {
						assert.Equal(t, "getLedgers", req.Method)
						assert.Equal(t, validToken, req.Auth.AuthToken)
						assert.JSONEq(t, `{"limit": 1}`, string(req.Params))
						return []registry.Row{{"id": int64(1), "mts": int64(100)}}, nil
					})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"result": [{"id": 1, "mts": 100}], "id": 3}`,
		},
		{
			name: "unauthorized",
			body: `{"auth": {"apiKey": "k", "apiSecret": "bad"}, "method": "getLedgers", "id": 3}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("rejected: %w", auth.ErrUnauthorized))
			},
			wantStatus: http.StatusUnauthorized,
			wantBody:   unauthorizedBody,
		},
		{
			name: "malformed params echo the id",
			body: `{"auth": {"authToken": "token-1"}, "method": "getLedgers", "params": "x", "id": "req-9"}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil, service.ErrInvalidParams)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error": {"code": 500, "message": "Internal Server Error"}, "id": "req-9"}`,
		},
		{
			name: "unknown method",
			body: `{"auth": {"authToken": "token-1"}, "method": "getNothing", "id": 1}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil, service.ErrUnknownMethod)
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error": {"code": 500, "message": "Internal Server Error"}, "id": 1}`,
		},
		{
			name: "internal details are not leaked",
			body: `{"auth": {"authToken": "token-1"}, "method": "getLedgers", "id": 2}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Call(gomock.Any(), gomock.Any()).Return(nil, errors.New("database is locked"))
			},
			wantStatus: http.StatusInternalServerError,
			wantBody:   `{"error": {"code": 500, "message": "Internal Server Error"}, "id": 2}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupRouter(t)
			tt.setupMock(env.svc)

			rr := env.do(t, http.MethodPost, "/get-data", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
			assert.JSONEq(t, tt.wantBody, rr.Body.String())
		})
	}
}

func TestGetCSV(t *testing.T) {
	t.Parallel()
	env := setupRouter(t)

	env.svc.EXPECT().Columns("getLedgers").Return([]string{"id", "currency", "amount"}, nil).AnyTimes()
	env.svc.EXPECT().ScanRows(gomock.Any(), testUser, "getLedgers", gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ db.User, _ string, _ service.QueryParams, fn func(registry.Row) error) error {
			for _, row := range []registry.Row{
				{"id": int64(1), "currency": "BTC", "amount": 0.1},
				{"id": int64(2), "currency": "ETH", "amount": -2.5},
			} {
				if err := fn(row); err != nil {
					return err
				}
			}
			return nil
		})

	rr := env.do(t, http.MethodPost, "/get-csv",
		`{"auth": {"authToken": "token-1"}, "method": "getLedgers", "params": {"isBaseNameInName": true}, "userInfo": "user", "id": 11}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Result report.ExportResponse `json:"result"`
		ID     int                   `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 11, resp.ID)
	assert.Equal(t, "user_ledgers_Thu-Oct-15-2026.csv", resp.Result.FileName)
	require.NotEmpty(t, resp.Result.JobID)

	var job struct {
		Result report.ExportJobResponse `json:"result"`
	}
	require.Eventually(t, func() bool {
		rr := env.do(t, http.MethodGet, "/export-jobs/"+resp.Result.JobID, "")
		if rr.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &job); err != nil {
			return false
		}
		return job.Result.State == string(export.StateCompleted)
	}, 5*time.Second, 10*time.Millisecond)

	assert.Equal(t, int64(2), job.Result.RowCount)
	assert.Equal(t, "/csv/user_ledgers_Thu-Oct-15-2026.csv", job.Result.Location)
	assert.NotNil(t, job.Result.FinishedAt)

	data, err := afero.ReadFile(env.fs, job.Result.Location)
	require.NoError(t, err)
	assert.Equal(t, "id,currency,amount\n1,BTC,0.1\n2,ETH,-2.5\n", string(data))
}

func TestGetCSV_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		body       string
		setupMock  func(*mocks.MockReportService)
		wantStatus int
	}{
		{
			name:       "unauthorized",
			body:       `{"auth": {"authToken": "nope"}, "method": "getLedgers", "id": 1}`,
			setupMock:  func(*mocks.MockReportService) {},
			wantStatus: http.StatusUnauthorized,
		},
		{
			name: "unknown method",
			body: `{"auth": {"authToken": "token-1"}, "method": "getNothing", "id": 1}`,
			setupMock: func(m *mocks.MockReportService) {
				m.EXPECT().Columns("getNothing").Return(nil, service.ErrUnknownMethod)
			},
			wantStatus: http.StatusInternalServerError,
		},
		{
			name:       "params not an object",
			body:       `{"auth": {"authToken": "token-1"}, "method": "getLedgers", "params": [1], "id": 1}`,
			setupMock:  func(*mocks.MockReportService) {},
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupRouter(t)
			tt.setupMock(env.svc)

			rr := env.do(t, http.MethodPost, "/get-csv", tt.body)
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestCheckStoredLocally(t *testing.T) {
	t.Parallel()
	env := setupRouter(t)

	rr := env.do(t, http.MethodPost, "/check-stored-locally", `{"auth": {"authToken": "token-1"}, "id": 4}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"result": "/csv", "id": 4}`, rr.Body.String())

	rr = env.do(t, http.MethodPost, "/check-stored-locally", `{"id": 4}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestGetExportJob_NotFound(t *testing.T) {
	t.Parallel()
	env := setupRouter(t)

	rr := env.do(t, http.MethodGet, "/export-jobs/missing", "")
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"error": {"code": 500, "message": "Internal Server Error"}, "id": null}`, rr.Body.String())
}

func TestGetCSV_Extension(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		ext      string
		wantName string
	}{
		{name: "missing ext", ext: "", wantName: "ledgers_Thu-Oct-15-2026.csv"},
		{name: "null ext", ext: `, "ext": null`, wantName: "ledgers_Thu-Oct-15-2026"},
		{name: "empty ext", ext: `, "ext": ""`, wantName: "ledgers_Thu-Oct-15-2026"},
		{name: "custom ext", ext: `, "ext": "tsv"`, wantName: "ledgers_Thu-Oct-15-2026.tsv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupRouter(t)
			env.svc.EXPECT().Columns("getLedgers").Return([]string{"id"}, nil).AnyTimes()
			env.svc.EXPECT().ScanRows(gomock.Any(), testUser, "getLedgers", gomock.Any(), gomock.Any()).
				DoAndReturn(emitRows()).AnyTimes()

			rr := env.do(t, http.MethodPost, "/get-csv",
				`{"auth": {"authToken": "token-1"}, "method": "getLedgers", "params": {"isBaseNameInName": true}`+tt.ext+`, "id": 1}`)
			require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

			var resp struct {
				Result report.ExportResponse `json:"result"`
			}
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantName, resp.Result.FileName)
			env.waitForJob(t, resp.Result.JobID)
		})
	}
}

func TestGetMultipleCSV(t *testing.T) {
	t.Parallel()
	env := setupRouter(t)

	env.svc.EXPECT().Columns("getLedgers").Return([]string{"id", "currency"}, nil).AnyTimes()
	env.svc.EXPECT().Columns("getTrades").Return([]string{"id", "symbol"}, nil).AnyTimes()
	env.svc.EXPECT().ScanRows(gomock.Any(), testUser, "getLedgers", gomock.Any(), gomock.Any()).
		DoAndReturn(emitRows(registry.Row{"id": int64(1), "currency": "BTC"}))
	env.svc.EXPECT().ScanRows(gomock.Any(), testUser, "getTrades", gomock.Any(), gomock.Any()).
		DoAndReturn(emitRows(registry.Row{"id": int64(7), "symbol": "tBTCUSD"}, registry.Row{"id": int64(8), "symbol": "tETHUSD"}))

	rr := env.do(t, http.MethodPost, "/get-multiple-csv", `{
		"auth": {"authToken": "token-1"},
		"params": {"multiExport": [
			{"method": "getLedgers", "params": {"isBaseNameInName": true}},
			{"method": "getTrades", "params": {"isBaseNameInName": true, "fileNamesMap": [["getTrades", "fills"]]}}
		]},
		"userInfo": "user",
		"id": 21
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Result report.MultiExportResponse `json:"result"`
		ID     int                        `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 21, resp.ID)
	require.NotEmpty(t, resp.Result.BatchID)
	require.Len(t, resp.Result.Jobs, 2)
	assert.Equal(t, "user_ledgers_Thu-Oct-15-2026.csv", resp.Result.Jobs[0].FileName)
	assert.Equal(t, "user_fills_Thu-Oct-15-2026.csv", resp.Result.Jobs[1].FileName)

	wantRows := []int64{1, 2}
	for i, j := range resp.Result.Jobs {
		job := env.waitForJob(t, j.JobID)
		assert.Equal(t, string(export.StateCompleted), job.State)
		assert.Equal(t, resp.Result.BatchID, job.BatchID)
		assert.Equal(t, wantRows[i], job.RowCount)

		exists, err := afero.Exists(env.fs, job.Location)
		require.NoError(t, err)
		assert.True(t, exists)
	}
}

func TestGetMultipleCSV_FatalErrorCancelsBatch(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	env := setupRouterWithStorage(t, fs, failingStorage{Storage: export.NewFileStorage(fs, "/csv"), prefix: "trades"})

	env.svc.EXPECT().Columns(gomock.Any()).Return([]string{"id"}, nil).AnyTimes()
	env.svc.EXPECT().ScanRows(gomock.Any(), testUser, "getLedgers", gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, _ db.User, _ string, _ service.QueryParams, _ func(registry.Row) error) error {
			<-ctx.Done()
			return ctx.Err()
		}).AnyTimes()

	rr := env.do(t, http.MethodPost, "/get-multiple-csv", `{
		"auth": {"authToken": "token-1"},
		"params": {"multiExport": [
			{"method": "getLedgers", "params": {"isBaseNameInName": true}},
			{"method": "getTrades", "params": {"isBaseNameInName": true}}
		]},
		"id": 1
	}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var resp struct {
		Result report.MultiExportResponse `json:"result"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Len(t, resp.Result.Jobs, 2)

	trades := env.waitForJob(t, resp.Result.Jobs[1].JobID)
	assert.Equal(t, string(export.StateFailed), trades.State)
	assert.Contains(t, trades.Error, "disk full")

	ledgers := env.waitForJob(t, resp.Result.Jobs[0].JobID)
	assert.Equal(t, string(export.StateFailed), ledgers.State)
	assert.Contains(t, ledgers.Error, "export cancelled")
	assert.Contains(t, ledgers.Error, "disk full")

	entries, err := afero.ReadDir(fs, "/csv")
	if err == nil {
		assert.Empty(t, entries)
	}
}

func TestGetMultipleCSV_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		params     string
		token      string
		wantStatus int
	}{
		{
			name:       "unauthorized",
			params:     `{"multiExport": [{"method": "getLedgers"}]}`,
			token:      "nope",
			wantStatus: http.StatusUnauthorized,
		},
		{name: "missing params", params: `null`, wantStatus: http.StatusInternalServerError},
		{name: "missing list", params: `{}`, wantStatus: http.StatusInternalServerError},
		{name: "empty list", params: `{"multiExport": []}`, wantStatus: http.StatusInternalServerError},
		{name: "entry without method", params: `{"multiExport": [{"params": {}}]}`, wantStatus: http.StatusInternalServerError},
		{name: "entry not an object", params: `{"multiExport": ["getLedgers"]}`, wantStatus: http.StatusInternalServerError},
		{
			name:       "unknown method",
			params:     `{"multiExport": [{"method": "getLedgers"}, {"method": "getNothing"}]}`,
			wantStatus: http.StatusInternalServerError,
		},
		{
			name: "same file name twice",
			params: `{"multiExport": [
				{"method": "getLedgers", "params": {"isBaseNameInName": true}},
				{"method": "getLedgers", "params": {"isBaseNameInName": true}}
			]}`,
			wantStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			env := setupRouter(t)
			env.svc.EXPECT().Columns("getLedgers").Return([]string{"id"}, nil).AnyTimes()
			env.svc.EXPECT().Columns("getNothing").Return(nil, service.ErrUnknownMethod).AnyTimes()

			token := tt.token
			if token == "" {
				token = validToken
			}
			rr := env.do(t, http.MethodPost, "/get-multiple-csv",
				`{"auth": {"authToken": "`+token+`"}, "params": `+tt.params+`, "id": 9}`)
			assert.Equal(t, tt.wantStatus, rr.Code)

			env.jobs.mu.Lock()
			defer env.jobs.mu.Unlock()
			assert.Empty(t, env.jobs.jobs, "rejected batches record no job")
		})
	}
}
