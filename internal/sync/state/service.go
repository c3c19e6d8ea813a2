// Package state contains the sync progress which the server persists: one
// cursor and one status per scope.
package state

import (
	"context"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/status"
)

// SyncStateService provides methods for inspecting and updating the sync state of scopes.
//
//go:generate mockgen -destination=mocks/mock_sync_state_service.go -package=mocks github.com/checho651/bfx-report/internal/sync/state SyncStateService
type SyncStateService interface {
	// GetCursor returns the stored cursor of a scope, or ErrCursorNotFound.
	GetCursor(ctx context.Context, scope status.Scope) (db.Cursor, error)
	// MaxPersistedDate returns the greatest value of the date field already
	// stored for a scope. ok is false when the scope holds no rows.
	MaxPersistedDate(ctx context.Context, scope status.Scope, d registry.Descriptor) (value int64, ok bool, err error)
	// ListSyncStatuses lists the statuses of a user's scopes and of every
	// public scope, keyed by scope key.
	ListSyncStatuses(ctx context.Context, userID *int64) (map[string]*status.SyncStatus, error)
	// GetSyncStatus returns the status of a scope, or ErrStatusNotFound.
	GetSyncStatus(ctx context.Context, scope status.Scope) (*status.SyncStatus, error)
	// UpdateSyncStatus overrides the status of a scope.
	UpdateSyncStatus(ctx context.Context, scope status.Scope, syncStatus *status.SyncStatus) error
	// UpdateStatusAtomically fetches the status of a scope (a zero status
	// when none is stored), applies testAndUpdateFn and stores the result
	// if the function reports a change, all in one transaction.
	UpdateStatusAtomically(
		ctx context.Context,
		scope status.Scope,
		testAndUpdateFn func(syncStatus *status.SyncStatus) bool,
	) (bool, error)
}
