package db

import (
	"context"
	"database/sql"
	"time"
)

// Cursor is the persisted sync progress of one scope.
type Cursor struct {
	ScopeKey   string
	UserID     *int64
	Collection string
	Symbol     string
	// Value is the date boundary up to which every remote row is persisted.
	Value int64
	// PendingEnd is the upper bound of the next page of an unfinished sweep.
	PendingEnd *int64
	// PendingTop is the newest date seen by the unfinished sweep.
	PendingTop *int64
	HasNewData bool
	UpdatedAt  time.Time
}

const cursorColumns = `scope_key, user_id, collection, symbol, cursor, pending_end, pending_top, has_new_data, updated_at`

func scanCursor(row rowScanner) (Cursor, error) {
	var (
		c                        Cursor
		userID, pendEnd, pendTop sql.NullInt64
		hasNewData               int
		updatedAt                int64
	)
	if err := row.Scan(&c.ScopeKey, &userID, &c.Collection, &c.Symbol, &c.Value,
		&pendEnd, &pendTop, &hasNewData, &updatedAt); err != nil {
		return Cursor{}, err
	}
	c.UserID = int64Ptr(userID)
	c.PendingEnd = int64Ptr(pendEnd)
	c.PendingTop = int64Ptr(pendTop)
	c.HasNewData = hasNewData != 0
	c.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	return c, nil
}

// GetCursor returns the cursor of scopeKey, or sql.ErrNoRows.
func (q *Queries) GetCursor(ctx context.Context, scopeKey string) (Cursor, error) {
	row := q.db.QueryRowContext(ctx, `SELECT `+cursorColumns+` FROM sync_cursors WHERE scope_key = ?`, scopeKey)
	return scanCursor(row)
}

// UpsertCursor stores c, replacing any previous value of the same scope.
func (q *Queries) UpsertCursor(ctx context.Context, c Cursor) error {
	_, err := q.db.ExecContext(ctx, `
INSERT INTO sync_cursors (`+cursorColumns+`)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (scope_key) DO UPDATE SET
    cursor = excluded.cursor,
    pending_end = excluded.pending_end,
    pending_top = excluded.pending_top,
    has_new_data = excluded.has_new_data,
    updated_at = excluded.updated_at`,
		c.ScopeKey, nullInt64(c.UserID), c.Collection, c.Symbol, c.Value,
		nullInt64(c.PendingEnd), nullInt64(c.PendingTop), boolInt(c.HasNewData), millis(c.UpdatedAt))
	return err
}

// ConsumeNewData clears the refresh flag of every cursor of a collection and
// reports whether any of them had it set.
func (q *Queries) ConsumeNewData(ctx context.Context, collection string) (bool, error) {
	res, err := q.db.ExecContext(ctx,
		`UPDATE sync_cursors SET has_new_data = 0 WHERE collection = ? AND has_new_data = 1`, collection)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
