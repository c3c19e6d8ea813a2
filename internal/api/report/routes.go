// Package report provides the JSON endpoints of the reporting API.
//
// Every endpoint answers with {"result": ..., "id": ...} on success. Failures
// are reduced to two fixed envelopes: rejected credentials yield a 401 with a
// null id and anything else a 500 echoing the request id. Details only go to
// the server log.
package report

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tidwall/gjson"

	"github.com/checho651/bfx-report/internal/api/common"
	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/export"
	"github.com/checho651/bfx-report/internal/service"
)

const maxBodyBytes = 1 << 20

// Exporter schedules exports and reports on them
type Exporter interface {
	Enqueue(ctx context.Context, req export.Request) (*export.Job, error)
	EnqueueBatch(ctx context.Context, reqs []export.Request) (*export.Batch, error)
	Status(ctx context.Context, id string) (db.ExportJob, error)
	Dir() string
}

// Request is the body accepted by every POST endpoint
type Request struct {
	Auth   auth.Credentials `json:"auth"`
	Method string           `json:"method"`
	Params json.RawMessage  `json:"params,omitempty"`
	ID     json.RawMessage  `json:"id,omitempty"`

	// Export naming, read by the export endpoints only. A null ext drops the
	// extension and a missing one selects the default.
	UserInfo                     string  `json:"userInfo,omitempty"`
	Ext                          *string `json:"ext,omitempty"`
	IsMultiExport                bool    `json:"isMultiExport,omitempty"`
	IsAddedUniqueEndingToCsvName bool    `json:"isAddedUniqueEndingToCsvName,omitempty"`
	UniqEnding                   string  `json:"uniqEnding,omitempty"`
}

// ExportResponse is the result of get-csv
type ExportResponse struct {
	JobID    string `json:"jobId"`
	FileName string `json:"fileName"`
}

// MultiExportResponse is the result of get-multiple-csv. Jobs are in
// request order.
type MultiExportResponse struct {
	BatchID string           `json:"batchId"`
	Jobs    []ExportResponse `json:"jobs"`
}

// ExportJobResponse is the public view of an export job record
type ExportJobResponse struct {
	ID         string     `json:"id"`
	BatchID    string     `json:"batchId,omitempty"`
	Method     string     `json:"method"`
	FileName   string     `json:"fileName"`
	State      string     `json:"state"`
	RowCount   int64      `json:"rowCount"`
	Location   string     `json:"location,omitempty"`
	Error      string     `json:"error,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	FinishedAt *time.Time `json:"finishedAt,omitempty"`
}

// Routes holds the dependencies of the reporting endpoints
type Routes struct {
	service service.ReportService
	exports Exporter
}

// NewRoutes creates a new Routes instance
func NewRoutes(svc service.ReportService, exports Exporter) *Routes {
	return &Routes{service: svc, exports: exports}
}

// Router creates the router of the reporting endpoints
func Router(svc service.ReportService, exports Exporter) http.Handler {
	routes := NewRoutes(svc, exports)

	r := chi.NewRouter()
	r.Post("/check-auth", routes.checkAuth)
	r.Post("/get-data", routes.getData)
	r.Post("/get-csv", routes.getCSV)
	r.Post("/get-multiple-csv", routes.getMultipleCSV)
	r.Post("/check-stored-locally", routes.checkStoredLocally)
	r.Get("/export-jobs/{id}", routes.getExportJob)

	return r
}

// checkAuth handles POST /api/check-auth
func (rr *Routes) checkAuth(w http.ResponseWriter, r *http.Request) {
	req, ok := rr.decode(w, r)
	if !ok {
		return
	}
	if _, err := rr.service.Authenticate(r.Context(), req.Auth); err != nil {
		rr.writeError(w, r, req, err)
		return
	}
	common.WriteResult(w, true, req.ID)
}

// getData handles POST /api/get-data
func (rr *Routes) getData(w http.ResponseWriter, r *http.Request) {
	req, ok := rr.decode(w, r)
	if !ok {
		return
	}
	result, err := rr.service.Call(r.Context(), service.Request{
		Auth:   req.Auth,
		Method: req.Method,
		Params: req.Params,
	})
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}
	common.WriteResult(w, result, req.ID)
}

// getCSV handles POST /api/get-csv. It answers as soon as the export is
// scheduled; progress is read from /api/export-jobs/{id}.
func (rr *Routes) getCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := rr.decode(w, r)
	if !ok {
		return
	}
	user, err := rr.service.Authenticate(r.Context(), req.Auth)
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}

	job, err := rr.exports.Enqueue(r.Context(), export.Request{
		User:   user,
		Method: req.Method,
		Params: req.Params,
		Naming: req.naming(req.IsMultiExport),
	})
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}

	slog.InfoContext(r.Context(), "Export scheduled",
		"job_id", job.ID(), "method", req.Method, "user_id", user.ID, "file_name", job.FileName())
	common.WriteResult(w, ExportResponse{JobID: job.ID(), FileName: job.FileName()}, req.ID)
}

// getMultipleCSV handles POST /api/get-multiple-csv. params.multiExport lists
// the {method, params} of each export; they run as one batch, so a fatal
// error in one of them cancels the rest.
func (rr *Routes) getMultipleCSV(w http.ResponseWriter, r *http.Request) {
	req, ok := rr.decode(w, r)
	if !ok {
		return
	}
	user, err := rr.service.Authenticate(r.Context(), req.Auth)
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}

	items, err := multiExportItems(req.Params)
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}
	reqs := make([]export.Request, 0, len(items))
	for _, item := range items {
		reqs = append(reqs, export.Request{
			User:   user,
			Method: item.Get("method").Str,
			Params: json.RawMessage(item.Get("params").Raw),
			Naming: req.naming(false),
		})
	}

	batch, err := rr.exports.EnqueueBatch(r.Context(), reqs)
	if err != nil {
		rr.writeError(w, r, req, err)
		return
	}
	go awaitBatch(context.WithoutCancel(r.Context()), batch, user.ID)

	resp := MultiExportResponse{BatchID: batch.ID(), Jobs: make([]ExportResponse, 0, len(batch.Jobs()))}
	for _, j := range batch.Jobs() {
		resp.Jobs = append(resp.Jobs, ExportResponse{JobID: j.ID(), FileName: j.FileName()})
	}
	slog.InfoContext(r.Context(), "Multi-export scheduled", "batch_id", batch.ID(), "jobs", len(reqs), "user_id", user.ID)
	common.WriteResult(w, resp, req.ID)
}

// multiExportItems returns the entries of params.multiExport. Each one must be
// an object naming a method.
func multiExportItems(params json.RawMessage) ([]gjson.Result, error) {
	if len(params) == 0 || !gjson.ValidBytes(params) {
		return nil, fmt.Errorf("%w: multiExport is required", service.ErrInvalidParams)
	}
	list := gjson.GetBytes(params, "multiExport")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil, fmt.Errorf("%w: multiExport must be a non-empty list", service.ErrInvalidParams)
	}
	items := list.Array()
	for i, item := range items {
		if !item.IsObject() || item.Get("method").Type != gjson.String || item.Get("method").Str == "" {
			return nil, fmt.Errorf("%w: multiExport[%d] must name a method", service.ErrInvalidParams, i)
		}
	}
	return items, nil
}

// awaitBatch logs the outcome of a multi-export once every job finished
func awaitBatch(ctx context.Context, batch *export.Batch, userID int64) {
	results, err := batch.Wait(ctx)
	var rows int64
	for _, res := range results {
		if res != nil {
			rows += res.RowCount
		}
	}
	if err != nil {
		slog.WarnContext(ctx, "Multi-export finished with errors", "batch_id", batch.ID(), "user_id", userID, "rows", rows, "error", err)
		return
	}
	slog.InfoContext(ctx, "Multi-export finished", "batch_id", batch.ID(), "user_id", userID, "rows", rows)
}

// checkStoredLocally handles POST /api/check-stored-locally
func (rr *Routes) checkStoredLocally(w http.ResponseWriter, r *http.Request) {
	req, ok := rr.decode(w, r)
	if !ok {
		return
	}
	if _, err := rr.service.Authenticate(r.Context(), req.Auth); err != nil {
		rr.writeError(w, r, req, err)
		return
	}
	common.WriteResult(w, rr.exports.Dir(), req.ID)
}

// getExportJob handles GET /api/export-jobs/{id}
func (rr *Routes) getExportJob(w http.ResponseWriter, r *http.Request) {
	id, err := common.GetAndValidateURLParam(r, "id")
	if err != nil {
		rr.writeError(w, r, Request{}, err)
		return
	}

	rec, err := rr.exports.Status(r.Context(), id)
	if err != nil {
		rr.writeError(w, r, Request{}, err)
		return
	}

	common.WriteResult(w, ExportJobResponse{
		ID:         rec.ID,
		BatchID:    rec.BatchID,
		Method:     rec.Method,
		FileName:   rec.FileName,
		State:      rec.State,
		RowCount:   rec.RowCount,
		Location:   rec.Location,
		Error:      rec.Error,
		CreatedAt:  rec.CreatedAt,
		FinishedAt: rec.FinishedAt,
	}, nil)
}

// decode reads the request body. A body that is not a JSON object is
// answered with the internal error envelope.
func (rr *Routes) decode(w http.ResponseWriter, r *http.Request) (Request, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		rr.writeError(w, r, Request{}, err)
		return Request{}, false
	}
	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		rr.writeError(w, r, Request{}, err)
		return Request{}, false
	}
	// encoding/json leaves a null ext nil, the same as a missing one
	if ext := gjson.GetBytes(body, "ext"); ext.Type == gjson.Null && ext.Exists() {
		none := ""
		req.Ext = &none
	}
	return req, true
}

// naming returns the file naming options of an export request
func (req Request) naming(isMultiExport bool) export.NamingOptions {
	return export.NamingOptions{
		UserInfo:                     req.UserInfo,
		Ext:                          req.Ext,
		IsMultiExport:                isMultiExport,
		IsAddedUniqueEndingToCsvName: req.IsAddedUniqueEndingToCsvName,
		UniqEnding:                   req.UniqEnding,
	}
}

func (*Routes) writeError(w http.ResponseWriter, r *http.Request, req Request, err error) {
	if errors.Is(err, auth.ErrUnauthorized) {
		slog.DebugContext(r.Context(), "Request rejected", "path", r.URL.Path, "method", req.Method)
		common.WriteUnauthorized(w)
		return
	}
	slog.ErrorContext(r.Context(), "Request failed", "path", r.URL.Path, "method", req.Method, "error", err)
	common.WriteInternalError(w, req.ID)
}
