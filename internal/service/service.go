// Package service provides the reporting methods served from the local store
package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
)

var (
	// ErrUnknownMethod is returned when a request names no reporting method
	ErrUnknownMethod = errors.New("unknown method")
	// ErrInvalidParams is returned when the params of a request are malformed
	ErrInvalidParams = errors.New("invalid params")
)

// Reporting methods that are not backed by a collection.
const (
	MethodLogin                = "login"
	MethodGetEmail             = "getEmail"
	MethodIsSyncModeConfig     = "isSyncModeConfig"
	MethodEnableSyncMode       = "enableSyncMode"
	MethodDisableSyncMode      = "disableSyncMode"
	MethodIsSchedulerEnabled   = "isSchedulerEnabled"
	MethodEnableScheduler      = "enableScheduler"
	MethodDisableScheduler     = "disableScheduler"
	MethodGetSyncProgress      = "getSyncProgress"
	MethodGetPublicTradesConf  = "getPublicTradesConf"
	MethodEditPublicTradesConf = "editPublicTradesConf"

	// MethodGetSymbols answers with the pairs and currencies snapshots together
	MethodGetSymbols = "getSymbols"
)

// Request is a single reporting call
type Request struct {
	Auth   auth.Credentials
	Method string
	Params json.RawMessage
}

//go:generate mockgen -destination=mocks/mock_service.go -package=mocks -source=service.go ReportService

// ReportService answers reporting calls from the local mirror
type ReportService interface {
	// CheckReadiness checks if the store can serve requests
	CheckReadiness(ctx context.Context) error

	// Authenticate validates creds and returns the stored user they belong
	// to, registering the user on first sight. Rejected credentials yield an
	// error wrapping auth.ErrUnauthorized.
	Authenticate(ctx context.Context, creds auth.Credentials) (db.User, error)

	// Call dispatches req to its method. The result is a JSON-encodable
	// value: an ordered row list for history collections, a snapshot
	// object for replaceable ones, or a scalar for the toggle methods.
	Call(ctx context.Context, req Request) (any, error)

	// Columns returns the fields of the rows of a collection method
	Columns(method string) ([]string, error)

	// ScanRows streams the rows a collection method selects for user, in the
	// collection's sort order. A zero params.Limit means every row.
	ScanRows(ctx context.Context, user db.User, method string, params QueryParams, fn func(registry.Row) error) error
}

// SyncProgress summarizes the sync state of the scopes visible to a user
type SyncProgress struct {
	// Progress is the percentage of scopes that completed a cycle and are idle
	Progress         int             `json:"progress"`
	IsSyncInProgress bool            `json:"isSyncInProgress"`
	Scopes           []ScopeProgress `json:"scopes"`
}

// ScopeProgress is the state of one scope
type ScopeProgress struct {
	Collection   string `json:"collection"`
	Symbol       string `json:"symbol,omitempty"`
	Phase        string `json:"phase"`
	Message      string `json:"message,omitempty"`
	LastSyncTime *int64 `json:"lastSyncTime,omitempty"`
	RowsInserted int64  `json:"rowsInserted"`
}

// PublicTradesConf is one public pair a user follows, synced from Start on
type PublicTradesConf struct {
	Symbol string `json:"symbol"`
	Start  int64  `json:"start"`
}
