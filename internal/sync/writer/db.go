package writer

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/status"
)

// dbSyncWriter is a SyncWriter implementation that persists data to the SQLite store
type dbSyncWriter struct {
	db      *sql.DB
	schemas map[string]registry.Model
	now     func() time.Time
}

// NewDBSyncWriter creates a new dbSyncWriter writing the tables of reg.
func NewDBSyncWriter(sqlDB *sql.DB, reg *registry.Registry) (SyncWriter, error) {
	if sqlDB == nil {
		return nil, fmt.Errorf("database handle is required")
	}
	return &dbSyncWriter{db: sqlDB, schemas: reg.Schemas(), now: time.Now}, nil
}

func (w *dbSyncWriter) model(d registry.Descriptor) (registry.Model, error) {
	m, ok := w.schemas[d.Model]
	if !ok {
		return registry.Model{}, fmt.Errorf("unknown model %s", d.Model)
	}
	return m, nil
}

// StorePage inserts the page and moves the cursor in the same transaction,
// so a crash can never leave a cursor ahead of the rows it covers.
func (w *dbSyncWriter) StorePage(
	ctx context.Context, scope status.Scope, d registry.Descriptor, rows []registry.Row, cursor db.Cursor,
) (int64, error) {
	m, err := w.model(d)
	if err != nil {
		return 0, err
	}

	cursor.ScopeKey = scope.Key()
	cursor.UserID = scope.UserID
	cursor.Collection = scope.Collection
	cursor.Symbol = scope.Symbol
	cursor.UpdatedAt = w.now()

	var inserted int64
	err = db.RunTx(ctx, w.db, func(tx *sql.Tx) error {
		queries := db.New(tx)

		n, err := queries.InsertRows(ctx, m, scope.UserID, rows)
		if err != nil {
			return err
		}
		if err := queries.UpsertCursor(ctx, cursor); err != nil {
			return fmt.Errorf("failed to store cursor of %s: %w", scope, err)
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

func (w *dbSyncWriter) StoreSnapshot(
	ctx context.Context, scope status.Scope, d registry.Descriptor, rows []registry.Row,
) (int64, error) {
	m, err := w.model(d)
	if err != nil {
		return 0, err
	}

	now := w.now()
	cursor := db.Cursor{
		ScopeKey:   scope.Key(),
		UserID:     scope.UserID,
		Collection: scope.Collection,
		Symbol:     scope.Symbol,
		Value:      now.UnixMilli(),
		HasNewData: true,
		UpdatedAt:  now,
	}

	var stored int64
	err = db.RunTx(ctx, w.db, func(tx *sql.Tx) error {
		queries := db.New(tx)

		n, err := queries.ReplaceRows(ctx, m, scope.UserID, rows)
		if err != nil {
			return err
		}
		if err := queries.UpsertCursor(ctx, cursor); err != nil {
			return fmt.Errorf("failed to store cursor of %s: %w", scope, err)
		}
		stored = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return stored, nil
}
