package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/status"
)

var (
	// ErrCursorNotFound is returned when a scope has never stored progress.
	ErrCursorNotFound = errors.New("cursor not found")
	// ErrStatusNotFound is returned when a scope has never been synced.
	ErrStatusNotFound = errors.New("sync status not found")
)

type dbStateService struct {
	db      *sql.DB
	schemas map[string]registry.Model
}

// NewDBStateService creates a new database-backed sync state service
func NewDBStateService(sqlDB *sql.DB, reg *registry.Registry) SyncStateService {
	return &dbStateService{
		db:      sqlDB,
		schemas: reg.Schemas(),
	}
}

func (d *dbStateService) GetCursor(ctx context.Context, scope status.Scope) (db.Cursor, error) {
	c, err := db.New(d.db).GetCursor(ctx, scope.Key())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return db.Cursor{}, ErrCursorNotFound
		}
		return db.Cursor{}, err
	}
	return c, nil
}

func (d *dbStateService) MaxPersistedDate(
	ctx context.Context, scope status.Scope, desc registry.Descriptor,
) (int64, bool, error) {
	m, ok := d.schemas[desc.Model]
	if !ok {
		return 0, false, fmt.Errorf("unknown model %s", desc.Model)
	}
	symbolField := ""
	if scope.Symbol != "" {
		symbolField = desc.SymbolField
	}
	return db.New(d.db).MaxDate(ctx, m, desc.DateField, scope.UserID, symbolField, scope.Symbol)
}

func (d *dbStateService) ListSyncStatuses(ctx context.Context, userID *int64) (map[string]*status.SyncStatus, error) {
	rows, err := db.New(d.db).ListSyncStatuses(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := make(map[string]*status.SyncStatus, len(rows))
	for _, row := range rows {
		result[row.ScopeKey] = dbSyncToStatus(row)
	}
	return result, nil
}

func (d *dbStateService) GetSyncStatus(ctx context.Context, scope status.Scope) (*status.SyncStatus, error) {
	row, err := db.New(d.db).GetSyncStatus(ctx, scope.Key())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatusNotFound
		}
		return nil, err
	}
	return dbSyncToStatus(row), nil
}

func (d *dbStateService) UpdateSyncStatus(ctx context.Context, scope status.Scope, syncStatus *status.SyncStatus) error {
	return db.New(d.db).UpsertSyncStatus(ctx, statusToDBSync(scope, syncStatus))
}

func (d *dbStateService) UpdateStatusAtomically(
	ctx context.Context,
	scope status.Scope,
	testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
) (bool, error) {
	var updated bool
	err := db.RunTx(ctx, d.db, func(tx *sql.Tx) error {
		queries := db.New(tx)

		syncStatus := &status.SyncStatus{}
		row, err := queries.GetSyncStatus(ctx, scope.Key())
		switch {
		case err == nil:
			syncStatus = dbSyncToStatus(row)
		case !errors.Is(err, sql.ErrNoRows):
			return err
		}

		updated = testAndUpdateFn(syncStatus)
		if !updated {
			return nil
		}
		return queries.UpsertSyncStatus(ctx, statusToDBSync(scope, syncStatus))
	})
	if err != nil {
		return false, err
	}
	return updated, nil
}

// dbSyncToStatus converts a database sync status row to a status.SyncStatus
func dbSyncToStatus(row db.SyncStatus) *status.SyncStatus {
	return &status.SyncStatus{
		Phase:        status.SyncPhase(row.Phase),
		Message:      row.Message,
		LastAttempt:  row.LastAttempt,
		AttemptCount: row.AttemptCount,
		LastSyncTime: row.LastSyncTime,
		RowsInserted: row.RowsInserted,
	}
}

func statusToDBSync(scope status.Scope, s *status.SyncStatus) db.SyncStatus {
	phase := s.Phase
	if phase == "" {
		phase = status.SyncPhaseIdle
	}
	return db.SyncStatus{
		ScopeKey:     scope.Key(),
		UserID:       scope.UserID,
		Collection:   scope.Collection,
		Symbol:       scope.Symbol,
		Phase:        string(phase),
		Message:      s.Message,
		AttemptCount: s.AttemptCount,
		LastAttempt:  s.LastAttempt,
		LastSyncTime: s.LastSyncTime,
		RowsInserted: s.RowsInserted,
	}
}
