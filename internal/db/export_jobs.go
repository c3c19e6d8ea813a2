package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ExportJob is the persisted record of an export.
type ExportJob struct {
	ID         string
	UserID     *int64
	BatchID    string
	Method     string
	FileName   string
	State      string
	RowCount   int64
	Location   string
	Error      string
	CreatedAt  time.Time
	FinishedAt *time.Time
}

const exportJobColumns = `id, user_id, batch_id, method, file_name, state, row_count, location, error,
    created_at, finished_at`

// InsertExportJob records a new job.
func (q *Queries) InsertExportJob(ctx context.Context, j ExportJob) error {
	_, err := q.db.ExecContext(ctx, `INSERT INTO export_jobs (`+exportJobColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		j.ID, nullInt64(j.UserID), nullString(j.BatchID), j.Method, j.FileName, j.State, j.RowCount,
		j.Location, j.Error, millis(j.CreatedAt), nullMillis(j.FinishedAt))
	return err
}

// InsertExportJobs records a group of jobs in one transaction. Either every
// record is stored or none is.
func (q *Queries) InsertExportJobs(ctx context.Context, jobs []ExportJob) error {
	insertAll := func(q *Queries) error {
		for _, j := range jobs {
			if err := q.InsertExportJob(ctx, j); err != nil {
				return fmt.Errorf("failed to insert export job %s: %w", j.ID, err)
			}
		}
		return nil
	}

	sqlDB, ok := q.db.(*sql.DB)
	if !ok {
		return insertAll(q)
	}
	return RunTx(ctx, sqlDB, func(tx *sql.Tx) error {
		return insertAll(q.WithTx(tx))
	})
}

// UpdateExportJob stores the progress fields of a job.
func (q *Queries) UpdateExportJob(ctx context.Context, j ExportJob) error {
	_, err := q.db.ExecContext(ctx, `
UPDATE export_jobs
SET state = ?, row_count = ?, location = ?, error = ?, finished_at = ?
WHERE id = ?`,
		j.State, j.RowCount, j.Location, j.Error, nullMillis(j.FinishedAt), j.ID)
	return err
}

// GetExportJob returns the job with id, or sql.ErrNoRows.
func (q *Queries) GetExportJob(ctx context.Context, id string) (ExportJob, error) {
	var (
		j                  ExportJob
		userID, finishedAt sql.NullInt64
		batchID            sql.NullString
		createdAt          int64
	)
	err := q.db.QueryRowContext(ctx, `SELECT `+exportJobColumns+` FROM export_jobs WHERE id = ?`, id).Scan(
		&j.ID, &userID, &batchID, &j.Method, &j.FileName, &j.State, &j.RowCount, &j.Location, &j.Error,
		&createdAt, &finishedAt)
	if err != nil {
		return ExportJob{}, err
	}
	j.UserID = int64Ptr(userID)
	j.BatchID = batchID.String
	j.CreatedAt = time.UnixMilli(createdAt).UTC()
	j.FinishedAt = timePtr(finishedAt)
	return j, nil
}
