package sources

import (
	"context"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/registry"
)

//go:generate mockgen -destination=mocks/mock_source.go -package=mocks github.com/checho651/bfx-report/internal/sources Source

// Source is the remote data source of the sync engine
type Source interface {
	// FetchPage returns at most req.Limit rows of an append-only collection
	// whose date lies in [req.Start, req.End], newest first. Public
	// collections ignore creds.
	FetchPage(ctx context.Context, creds auth.Credentials, d registry.Descriptor, req PageRequest) ([]registry.Row, error)

	// FetchSnapshot returns the full current content of a replaceable collection
	FetchSnapshot(ctx context.Context, d registry.Descriptor) ([]registry.Row, error)

	// UserInfo returns the account profile of creds
	UserInfo(ctx context.Context, creds auth.Credentials) (auth.UserInfo, error)
}

// PageRequest is one bounded window of an append-only collection
type PageRequest struct {
	// Symbol restricts the page to one partition; empty means all
	Symbol string
	Start  int64
	End    int64
	Limit  int
}
