package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// Toggle names a single-row boolean settings table.
type Toggle string

// Known toggles.
const (
	ToggleScheduler Toggle = "scheduler"
	ToggleSyncMode  Toggle = "syncMode"
)

func (t Toggle) valid() bool { return t == ToggleScheduler || t == ToggleSyncMode }

// GetToggle reads a toggle. found is false when it was never written.
func (q *Queries) GetToggle(ctx context.Context, t Toggle) (value bool, found bool, err error) {
	if !t.valid() {
		return false, false, fmt.Errorf("unknown toggle %q", t)
	}
	var v int
	err = q.db.QueryRowContext(ctx, `SELECT isEnable FROM `+quoteIdent(string(t))+` WHERE _id = 1`).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return false, false, nil
	}
	if err != nil {
		return false, false, err
	}
	return v != 0, true, nil
}

// SetToggle writes a toggle.
func (q *Queries) SetToggle(ctx context.Context, t Toggle, value bool) error {
	if !t.valid() {
		return fmt.Errorf("unknown toggle %q", t)
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO `+quoteIdent(string(t))+` (_id, isEnable) VALUES (1, ?)
ON CONFLICT (_id) DO UPDATE SET isEnable = excluded.isEnable`, boolInt(value))
	return err
}

// InitToggle writes a toggle only when it was never written.
func (q *Queries) InitToggle(ctx context.Context, t Toggle, value bool) error {
	if !t.valid() {
		return fmt.Errorf("unknown toggle %q", t)
	}
	_, err := q.db.ExecContext(ctx, `INSERT INTO `+quoteIdent(string(t))+` (_id, isEnable) VALUES (1, ?)
ON CONFLICT (_id) DO NOTHING`, boolInt(value))
	return err
}
