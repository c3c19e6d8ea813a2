package export

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
	"github.com/checho651/bfx-report/internal/telemetry"
)

var (
	// ErrQueueClosed is returned by enqueues after Close and is the cause of
	// jobs cancelled by it
	ErrQueueClosed = errors.New("export queue is closed")
	// ErrJobNotFound is returned when no job record has the requested id
	ErrJobNotFound = errors.New("export job not found")
)

// FatalError is a queue-level failure, such as an unwritable export
// directory. It fails the job that hit it and cancels every other job of the
// same batch.
type FatalError struct {
	Err error
}

func (e *FatalError) Error() string {
	return "fatal export error: " + e.Err.Error()
}

func (e *FatalError) Unwrap() error {
	return e.Err
}

func fatal(err error) error {
	var f *FatalError
	if errors.As(err, &f) {
		return err
	}
	return &FatalError{Err: err}
}

// State is the lifecycle position of an export job
type State string

// Job states.
const (
	StatePending   State = "pending"
	StateRunning   State = "running"
	StateCompleted State = "completed"
	StateFailed    State = "failed"
)

//go:generate mockgen -destination=mocks/mock_queue.go -package=mocks -source=queue.go RowReader,JobRecorder

// RowReader streams the rows of a reporting method
type RowReader interface {
	Columns(method string) ([]string, error)
	ScanRows(ctx context.Context, user db.User, method string, params service.QueryParams, fn func(registry.Row) error) error
}

// JobRecorder persists job records. InsertExportJobs stores every record or
// none.
type JobRecorder interface {
	InsertExportJobs(ctx context.Context, jobs []db.ExportJob) error
	UpdateExportJob(ctx context.Context, j db.ExportJob) error
	GetExportJob(ctx context.Context, id string) (db.ExportJob, error)
}

// Request is one export
type Request struct {
	User   db.User
	Method string
	Params json.RawMessage
	Naming NamingOptions
}

// Result describes a written export file
type Result struct {
	JobID    string
	FileName string
	Location string
	RowCount int64
}

// Job is the handle of an enqueued export
type Job struct {
	id       string
	fileName string
	batchID  string
	req      Request
	query    service.QueryParams
	filter   func(registry.Row) bool
	created  time.Time

	ctx         context.Context
	cancelBatch context.CancelCauseFunc

	done   chan struct{}
	result *Result
	err    error
}

// ID returns the job id
func (j *Job) ID() string { return j.id }

// FileName returns the name the export is written under
func (j *Job) FileName() string { return j.fileName }

// Done is closed when the job finished
func (j *Job) Done() <-chan struct{} { return j.done }

// Wait blocks until the job finished or ctx is done
func (j *Job) Wait(ctx context.Context) (*Result, error) {
	select {
	case <-j.done:
		return j.result, j.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Batch is a group of jobs awaited together
type Batch struct {
	id   string
	jobs []*Job
	ctx  context.Context
}

// ID returns the batch id
func (b *Batch) ID() string { return b.id }

// Jobs returns the jobs of the batch in request order
func (b *Batch) Jobs() []*Job { return b.jobs }

// Wait blocks until every job of the batch finished. Results are in request
// order with nil entries for failed jobs. A fatal error of any job is
// returned as the batch error; otherwise the per-job errors are joined.
func (b *Batch) Wait(ctx context.Context) ([]*Result, error) {
	results := make([]*Result, len(b.jobs))
	var errs []error
	for i, j := range b.jobs {
		res, err := j.Wait(ctx)
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("job %s: %w", j.id, err))
			continue
		}
		results[i] = res
	}

	var f *FatalError
	if cause := context.Cause(b.ctx); errors.As(cause, &f) {
		return results, f
	}
	return results, errors.Join(errs...)
}

// Queue runs exports on a bounded worker pool. Enqueuing never waits for a
// worker.
type Queue struct {
	reader   RowReader
	storage  Storage
	labels   LabelResolver
	recorder JobRecorder
	metrics  *telemetry.ExportMetrics

	sem      *semaphore.Weighted
	workers  int
	now      func() time.Time
	newToken func() string

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

// QueueOption configures a Queue
type QueueOption func(*Queue)

// WithWorkers bounds the jobs running at once
func WithWorkers(n int) QueueOption {
	return func(q *Queue) {
		if n > 0 {
			q.workers = n
		}
	}
}

// WithRecorder persists job records through r
func WithRecorder(r JobRecorder) QueueOption {
	return func(q *Queue) { q.recorder = r }
}

// WithExportMetrics sets the export metrics
func WithExportMetrics(m *telemetry.ExportMetrics) QueueOption {
	return func(q *Queue) { q.metrics = m }
}

// WithClock sets the time source used for file names and records
func WithClock(now func() time.Time) QueueOption {
	return func(q *Queue) { q.now = now }
}

// WithTokenSource sets the generator of unique file name endings
func WithTokenSource(newToken func() string) QueueOption {
	return func(q *Queue) { q.newToken = newToken }
}

// NewQueue creates a queue reading rows from reader and writing files to storage
func NewQueue(reader RowReader, storage Storage, labels LabelResolver, opts ...QueueOption) *Queue {
	q := &Queue{
		reader:   reader,
		storage:  storage,
		labels:   labels,
		workers:  config.DefaultExportWorkers,
		now:      time.Now,
		newToken: NewToken,
	}
	for _, opt := range opts {
		opt(q)
	}
	q.sem = semaphore.NewWeighted(int64(q.workers))
	q.ctx, q.cancel = context.WithCancelCause(context.Background())
	return q
}

// Dir returns the directory export files are written to
func (q *Queue) Dir() string {
	return q.storage.Dir()
}

// Enqueue starts an export and returns its handle. Invalid requests are
// rejected before anything is scheduled.
func (q *Queue) Enqueue(ctx context.Context, req Request) (*Job, error) {
	j, err := q.prepare(req, "")
	if err != nil {
		return nil, err
	}
	if err := q.submit(ctx, []*Job{j}, q.ctx, nil); err != nil {
		return nil, err
	}
	return j, nil
}

// EnqueueBatch starts a group of exports. Either every request is scheduled
// or none is. Requests of one batch must produce distinct file names.
func (q *Queue) EnqueueBatch(ctx context.Context, reqs []Request) (*Batch, error) {
	batchID := uuid.NewString()
	jobs := make([]*Job, 0, len(reqs))
	names := make(map[string]int, len(reqs))
	for i, req := range reqs {
		j, err := q.prepare(req, batchID)
		if err != nil {
			return nil, fmt.Errorf("request %d: %w", i, err)
		}
		if prev, ok := names[j.fileName]; ok {
			return nil, fmt.Errorf("request %d: %w: %s is also produced by request %d",
				i, ErrInvalidFileName, j.fileName, prev)
		}
		names[j.fileName] = i
		jobs = append(jobs, j)
	}

	batchCtx, cancel := context.WithCancelCause(q.ctx)
	if err := q.submit(ctx, jobs, batchCtx, cancel); err != nil {
		cancel(err)
		return nil, err
	}
	go func() {
		for _, j := range jobs {
			<-j.done
		}
		cancel(nil)
	}()
	return &Batch{id: batchID, jobs: jobs, ctx: batchCtx}, nil
}

// Status returns the record of a job
func (q *Queue) Status(ctx context.Context, id string) (db.ExportJob, error) {
	if q.recorder == nil {
		return db.ExportJob{}, ErrJobNotFound
	}
	rec, err := q.recorder.GetExportJob(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return db.ExportJob{}, fmt.Errorf("%w: %s", ErrJobNotFound, id)
	}
	return rec, err
}

// Close rejects new exports, cancels the running ones and waits for every
// job to finish
func (q *Queue) Close() {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return
	}
	q.closed = true
	q.mu.Unlock()

	q.cancel(ErrQueueClosed)
	q.wg.Wait()
}

func (q *Queue) prepare(req Request, batchID string) (*Job, error) {
	query, nameParams, err := ParseParams(req.Params)
	if err != nil {
		return nil, err
	}
	if _, err := q.reader.Columns(req.Method); err != nil {
		return nil, err
	}

	now := q.now()
	fileName := CompleteFileName(q.labels, req.Method, nameParams, req.Naming, now, q.newToken)
	if err := ValidateFileName(fileName); err != nil {
		return nil, err
	}

	return &Job{
		id:       uuid.NewString(),
		fileName: fileName,
		batchID:  batchID,
		req:      req,
		query:    query,
		filter:   rowFilter(req.Method, nameParams.Flags),
		created:  now,
		done:     make(chan struct{}),
	}, nil
}

func (q *Queue) submit(ctx context.Context, jobs []*Job, jobCtx context.Context, cancelBatch context.CancelCauseFunc) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	q.wg.Add(len(jobs))
	q.mu.Unlock()

	if q.recorder != nil {
		records := make([]db.ExportJob, 0, len(jobs))
		for _, j := range jobs {
			records = append(records, q.record(j, StatePending, nil, nil))
		}
		if err := q.recorder.InsertExportJobs(ctx, records); err != nil {
			q.wg.Add(-len(jobs))
			return fmt.Errorf("failed to record export jobs: %w", err)
		}
	}

	for _, j := range jobs {
		j.ctx = jobCtx
		j.cancelBatch = cancelBatch
		q.metrics.RecordEnqueued(ctx)
		go q.run(j)
	}
	return nil
}

func (q *Queue) run(j *Job) {
	defer q.wg.Done()
	defer close(j.done)

	logger := slog.With("job_id", j.id, "method", j.req.Method, "file_name", j.fileName)
	start := q.now()

	if err := q.sem.Acquire(j.ctx, 1); err != nil {
		q.finish(j, logger, start, nil, cancelled(j.ctx))
		return
	}
	defer q.sem.Release(1)

	q.update(j, StateRunning, nil, nil)
	logger.Debug("Export job started")

	res, err := q.execute(j)
	q.finish(j, logger, start, res, err)
}

func (q *Queue) finish(j *Job, logger *slog.Logger, start time.Time, res *Result, err error) {
	j.result, j.err = res, err
	duration := q.now().Sub(start)

	if err != nil {
		var f *FatalError
		if errors.As(err, &f) && j.cancelBatch != nil {
			j.cancelBatch(f)
		}
		logger.Error("Export job failed", "error", err)
		q.update(j, StateFailed, nil, err)
		q.metrics.RecordJob(context.WithoutCancel(j.ctx), j.req.Method, duration, 0, false)
		return
	}

	logger.Info("Export job finished", "rows", res.RowCount, "location", res.Location, "duration", duration)
	q.update(j, StateCompleted, res, nil)
	q.metrics.RecordJob(context.WithoutCancel(j.ctx), j.req.Method, duration, res.RowCount, true)
}

func cancelled(ctx context.Context) error {
	return fmt.Errorf("export cancelled: %w", context.Cause(ctx))
}

// execute writes the rows of a job. Storage failures are fatal; reading
// failures only fail the job.
func (q *Queue) execute(j *Job) (*Result, error) {
	columns, err := q.reader.Columns(j.req.Method)
	if err != nil {
		return nil, err
	}

	file, err := q.storage.Create(j.fileName)
	if err != nil {
		return nil, fatal(err)
	}
	w, err := newCSVWriter(file, columns)
	if err != nil {
		_ = file.Abort()
		return nil, fatal(err)
	}

	var count int64
	err = q.reader.ScanRows(j.ctx, j.req.User, j.req.Method, j.query, func(r registry.Row) error {
		if err := j.ctx.Err(); err != nil {
			return err
		}
		if j.filter != nil && !j.filter(r) {
			return nil
		}
		if err := w.Write(r); err != nil {
			return fatal(err)
		}
		count++
		return nil
	})
	if err == nil {
		if flushErr := w.Flush(); flushErr != nil {
			err = fatal(flushErr)
		}
	}
	if err != nil {
		_ = file.Abort()
		if j.ctx.Err() != nil {
			return nil, cancelled(j.ctx)
		}
		return nil, err
	}

	location, err := file.Commit()
	if err != nil {
		return nil, fatal(err)
	}
	return &Result{JobID: j.id, FileName: j.fileName, Location: location, RowCount: count}, nil
}

func (q *Queue) record(j *Job, state State, res *Result, err error) db.ExportJob {
	rec := db.ExportJob{
		ID:        j.id,
		BatchID:   j.batchID,
		Method:    j.req.Method,
		FileName:  j.fileName,
		State:     string(state),
		CreatedAt: j.created,
	}
	if j.req.User.ID != 0 {
		id := j.req.User.ID
		rec.UserID = &id
	}
	if res != nil {
		rec.RowCount = res.RowCount
		rec.Location = res.Location
	}
	if err != nil {
		rec.Error = err.Error()
	}
	if state == StateCompleted || state == StateFailed {
		finished := q.now()
		rec.FinishedAt = &finished
	}
	return rec
}

// update stores the progress of a job. Failures are logged; the job handle
// stays authoritative.
func (q *Queue) update(j *Job, state State, res *Result, jobErr error) {
	if q.recorder == nil {
		return
	}
	if err := q.recorder.UpdateExportJob(context.WithoutCancel(j.ctx), q.record(j, state, res, jobErr)); err != nil {
		slog.Error("Failed to update export job record", "job_id", j.id, "error", err)
	}
}
