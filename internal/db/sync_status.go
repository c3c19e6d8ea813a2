package db

import (
	"context"
	"database/sql"
	"time"
)

// SyncStatus is the persisted state machine position of one scope.
type SyncStatus struct {
	ScopeKey     string
	UserID       *int64
	Collection   string
	Symbol       string
	Phase        string
	Message      string
	AttemptCount int
	LastAttempt  *time.Time
	LastSyncTime *time.Time
	RowsInserted int64
}

const syncStatusColumns = `scope_key, user_id, collection, symbol, phase, message, attempt_count,
    last_attempt, last_sync_time, rows_inserted`

func scanSyncStatus(row rowScanner) (SyncStatus, error) {
	var (
		s                                 SyncStatus
		userID, lastAttempt, lastSyncTime sql.NullInt64
	)
	if err := row.Scan(&s.ScopeKey, &userID, &s.Collection, &s.Symbol, &s.Phase, &s.Message,
		&s.AttemptCount, &lastAttempt, &lastSyncTime, &s.RowsInserted); err != nil {
		return SyncStatus{}, err
	}
	s.UserID = int64Ptr(userID)
	s.LastAttempt = timePtr(lastAttempt)
	s.LastSyncTime = timePtr(lastSyncTime)
	return s, nil
}

// GetSyncStatus returns the status of scopeKey, or sql.ErrNoRows.
func (q *Queries) GetSyncStatus(ctx context.Context, scopeKey string) (SyncStatus, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+syncStatusColumns+` FROM sync_status WHERE scope_key = ?`, scopeKey)
	return scanSyncStatus(row)
}

// UpsertSyncStatus stores s, replacing any previous value of the same scope.
func (q *Queries) UpsertSyncStatus(ctx context.Context, s SyncStatus) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO sync_status (`+syncStatusColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (scope_key) DO UPDATE SET
    phase = excluded.phase,
    message = excluded.message,
    attempt_count = excluded.attempt_count,
    last_attempt = excluded.last_attempt,
    last_sync_time = excluded.last_sync_time,
    rows_inserted = excluded.rows_inserted`,
		s.ScopeKey, nullInt64(s.UserID), s.Collection, s.Symbol, s.Phase, s.Message, s.AttemptCount,
		nullMillis(s.LastAttempt), nullMillis(s.LastSyncTime), s.RowsInserted)
	return err
}

// ListSyncStatuses returns the statuses of a user together with the global
// ones, ordered by scope key.
func (q *Queries) ListSyncStatuses(ctx context.Context, userID *int64) ([]SyncStatus, error) {
	rows, err := q.db.QueryContext(ctx,
		`SELECT `+syncStatusColumns+` FROM sync_status WHERE user_id IS NULL OR user_id = ? ORDER BY scope_key`,
		nullInt64(userID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SyncStatus
	for rows.Next() {
		s, err := scanSyncStatus(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
