// Package writer contains the SyncWriter interface and implementations
package writer

import (
	"context"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/status"
)

//go:generate mockgen -destination=mocks/mock_sync_writer.go -package=mocks -source=writer.go SyncWriter

// SyncWriter defines the interface needed to persist synced collection data.
// Every call is a single transaction: rows and progress become durable together or not at all.
type SyncWriter interface {
	// StorePage inserts one page of an append-only collection, skipping rows
	// already stored, and saves cursor as the new progress of scope.
	// It returns the number of rows actually inserted.
	StorePage(
		ctx context.Context, scope status.Scope, d registry.Descriptor, rows []registry.Row, cursor db.Cursor,
	) (int64, error)

	// StoreSnapshot replaces every stored row of a replaceable collection with
	// rows and flags the scope as having new data.
	StoreSnapshot(ctx context.Context, scope status.Scope, d registry.Descriptor, rows []registry.Row) (int64, error)
}
