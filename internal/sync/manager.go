package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/otel"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/sources"
	"github.com/checho651/bfx-report/internal/status"
	"github.com/checho651/bfx-report/internal/sync/state"
	"github.com/checho651/bfx-report/internal/sync/writer"
)

// Result contains the result of a successful sync cycle
type Result struct {
	// RowsInserted counts new rows; for replaceable collections it is the snapshot size
	RowsInserted int64
	Pages        int
	// Cursor is the progress stored at the end of the cycle
	Cursor int64
	// Exhausted is false when the cycle stopped between pages and a sweep is still pending
	Exhausted bool
}

// ErrorKind classifies sync failures
type ErrorKind int

const (
	// KindUpstreamFetch is a remote source failure. The cursor is not
	// advanced and the next scheduler tick retries the scope.
	KindUpstreamFetch ErrorKind = iota + 1
	// KindPersistence is a storage failure other than a duplicate row. It is
	// fatal to the cycle and leaves the scope FAILED.
	KindPersistence
	// KindInvalidScope means the scope does not name a synced collection.
	KindInvalidScope
)

func (k ErrorKind) String() string {
	switch k {
	case KindUpstreamFetch:
		return "upstream-fetch"
	case KindPersistence:
		return "persistence"
	case KindInvalidScope:
		return "invalid-scope"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error represents a structured sync failure of one scope
type Error struct {
	Err     error
	Message string
	Kind    ErrorKind
	Scope   status.Scope
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Manager runs sync cycles for individual scopes
//
//go:generate mockgen -destination=mocks/mock_manager.go -package=mocks github.com/checho651/bfx-report/internal/sync Manager,UserStore
type Manager interface {
	// PerformSync executes one complete sync cycle for a scope
	PerformSync(ctx context.Context, scope status.Scope) (*Result, *Error)

	// Scopes lists the private scopes of a user
	Scopes(ctx context.Context, user db.User) ([]status.Scope, error)

	// PublicScopes lists the scopes shared by every user
	PublicScopes(ctx context.Context) ([]status.Scope, error)
}

// UserStore provides the credentials of users and the public symbols they follow
type UserStore interface {
	GetUser(ctx context.Context, id int64) (db.User, error)
	ListPublicSymbols(ctx context.Context) ([]registry.SymbolStart, error)
}

// defaultSyncManager is the default implementation of Manager
type defaultSyncManager struct {
	source   sources.Source
	writer   writer.SyncWriter
	state    state.SyncStateService
	users    UserStore
	registry *registry.Registry
	now      func() time.Time
	tracer   trace.Tracer
}

// Option configures the sync manager
type Option func(*defaultSyncManager)

// WithClock replaces the clock that bounds the newest requested page
func WithClock(now func() time.Time) Option {
	return func(m *defaultSyncManager) { m.now = now }
}

// WithTracer sets the OpenTelemetry tracer for sync cycles
func WithTracer(tracer trace.Tracer) Option {
	return func(m *defaultSyncManager) { m.tracer = tracer }
}

// NewManager creates a new sync manager
func NewManager(
	source sources.Source,
	syncWriter writer.SyncWriter,
	stateSvc state.SyncStateService,
	users UserStore,
	reg *registry.Registry,
	opts ...Option,
) Manager {
	m := &defaultSyncManager{
		source:   source,
		writer:   syncWriter,
		state:    stateSvc,
		users:    users,
		registry: reg,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Scopes lists one scope per private synced collection of user
func (m *defaultSyncManager) Scopes(_ context.Context, user db.User) ([]status.Scope, error) {
	var scopes []status.Scope
	for _, d := range m.registry.Synced() {
		if d.IsPublic() {
			continue
		}
		id := user.ID
		scopes = append(scopes, status.Scope{UserID: &id, Collection: d.Name, Start: d.Start.Scalar})
	}
	return scopes, nil
}

// PublicScopes lists one scope per public snapshot collection and one scope
// per followed symbol of every public per-symbol collection
func (m *defaultSyncManager) PublicScopes(ctx context.Context) ([]status.Scope, error) {
	var (
		scopes  []status.Scope
		symbols []registry.SymbolStart
		loaded  bool
	)
	for _, d := range m.registry.Synced() {
		if !d.IsPublic() {
			continue
		}
		if !d.IsPerSymbol() {
			scopes = append(scopes, status.Scope{Collection: d.Name, Start: d.Start.Scalar})
			continue
		}

		if !loaded {
			var err error
			if symbols, err = m.users.ListPublicSymbols(ctx); err != nil {
				return nil, fmt.Errorf("failed to list public symbols: %w", err)
			}
			loaded = true
		}
		for _, ss := range symbols {
			start := ss.Start
			if start == 0 {
				start = d.Start.For(ss.Symbol)
			}
			scopes = append(scopes, status.Scope{Collection: d.Name, Symbol: ss.Symbol, Start: start})
		}
	}
	return scopes, nil
}

// PerformSync executes one sync cycle for scope: IDLE → FETCHING → MERGING
// → IDLE, or FAILED when the store rejects a page
func (m *defaultSyncManager) PerformSync(ctx context.Context, scope status.Scope) (*Result, *Error) {
	d, ok := m.registry.DescriptorByName(scope.Collection)
	if !ok || d.IsPublic() != scope.IsPublic() {
		return nil, &Error{
			Err:     fmt.Errorf("no synced collection %s for scope %s", scope.Collection, scope),
			Message: fmt.Sprintf("Invalid sync scope %s", scope),
			Kind:    KindInvalidScope,
			Scope:   scope,
		}
	}

	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.PerformSync",
		trace.WithAttributes(otel.AttrSyncScope.String(scope.Key()), otel.AttrCollection.String(d.Name)))
	defer span.End()

	m.beginCycle(ctx, scope)

	var (
		result  *Result
		syncErr *Error
	)
	if d.IsAppendOnly() {
		result, syncErr = m.sweep(ctx, scope, d)
	} else {
		result, syncErr = m.snapshot(ctx, scope, d)
	}

	m.endCycle(ctx, scope, result, syncErr)
	if syncErr != nil {
		otel.RecordError(span, syncErr.Err)
		return nil, syncErr
	}
	span.SetAttributes(otel.AttrResultCount.Int64(result.RowsInserted))
	return result, nil
}

// sweep pages backward through the window [cursor, now]. Every page is
// committed together with the progress needed to resume after it, so an
// interrupted sweep continues from the oldest stored page instead of
// starting over.
func (m *defaultSyncManager) sweep(ctx context.Context, scope status.Scope, d registry.Descriptor) (*Result, *Error) {
	// the in-flight page always finishes and commits; cancellation is only
	// observed between pages
	pageCtx := context.WithoutCancel(ctx)

	creds, syncErr := m.credentials(pageCtx, scope)
	if syncErr != nil {
		return nil, syncErr
	}

	cur, err := m.state.GetCursor(pageCtx, scope)
	switch {
	case errors.Is(err, state.ErrCursorNotFound):
		cur = db.Cursor{Value: scope.Start}
	case err != nil:
		return nil, persistenceError(scope, "Failed to load cursor", err)
	}

	start, end, top := cur.Value, m.now().UnixMilli(), cur.PendingTop
	if cur.PendingEnd != nil {
		end = *cur.PendingEnd
	} else {
		maxDate, ok, err := m.state.MaxPersistedDate(pageCtx, scope, d)
		if err != nil {
			return nil, persistenceError(scope, "Failed to resolve cursor", err)
		}
		if ok && maxDate > start {
			start = maxDate
		}
	}

	result := &Result{Cursor: start}
	for {
		if ctx.Err() != nil {
			slog.Info("Sync interrupted between pages", "scope", scope.Key(), "pages", result.Pages)
			return result, nil
		}
		if result.Pages > 0 {
			m.setPhase(pageCtx, scope, status.SyncPhaseFetching)
		}
		rows, err := m.fetchPage(pageCtx, creds, d, sources.PageRequest{
			Symbol: scope.Symbol, Start: start, End: end, Limit: d.MaxLimit,
		})
		if err != nil {
			return nil, &Error{
				Err:     err,
				Message: fmt.Sprintf("Fetch failed: %v", err),
				Kind:    KindUpstreamFetch,
				Scope:   scope,
			}
		}

		newest, oldest, found := dateBounds(rows, d.DateField)
		if top == nil && found {
			top = &newest
		}

		next := db.Cursor{Value: start}
		exhausted := len(rows) < d.MaxLimit
		var nextEnd int64
		if !exhausted {
			// rows sharing the oldest date may straddle pages, so the next
			// page ends on it unless that would request the same page again
			nextEnd = oldest
			if nextEnd >= end {
				nextEnd = end - 1
			}
			exhausted = nextEnd < start
		}
		if exhausted {
			if top != nil && *top > next.Value {
				next.Value = *top
			}
		} else {
			next.PendingEnd = &nextEnd
			next.PendingTop = top
		}

		m.setPhase(pageCtx, scope, status.SyncPhaseMerging)
		inserted, err := m.writer.StorePage(pageCtx, scope, d, rows, next)
		if err != nil {
			return nil, persistenceError(scope, "Storage failed", err)
		}

		result.RowsInserted += inserted
		result.Pages++
		result.Cursor = next.Value
		slog.Debug("Stored sync page", "scope", scope.Key(), "fetched", len(rows), "inserted", inserted,
			"end", end, "exhausted", exhausted)

		if exhausted {
			result.Exhausted = true
			return result, nil
		}
		end = nextEnd
	}
}

func (m *defaultSyncManager) fetchPage(
	ctx context.Context, creds auth.Credentials, d registry.Descriptor, req sources.PageRequest,
) ([]registry.Row, error) {
	ctx, span := otel.StartSpan(ctx, m.tracer, "sync.fetchPage", trace.WithAttributes(
		otel.AttrCollection.String(d.Name),
		otel.AttrSymbol.String(req.Symbol),
		otel.AttrPageSize.Int(req.Limit),
		otel.AttrPageEnd.Int64(req.End),
	))
	defer span.End()

	rows, err := m.source.FetchPage(ctx, creds, d, req)
	if err != nil {
		otel.RecordError(span, err)
		return nil, err
	}
	span.SetAttributes(otel.AttrResultCount.Int(len(rows)))
	return rows, nil
}

// snapshot replaces a replaceable collection with the latest remote state
func (m *defaultSyncManager) snapshot(ctx context.Context, scope status.Scope, d registry.Descriptor) (*Result, *Error) {
	if ctx.Err() != nil {
		return &Result{}, nil
	}
	pageCtx := context.WithoutCancel(ctx)

	rows, err := m.source.FetchSnapshot(pageCtx, d)
	if err != nil {
		return nil, &Error{
			Err:     err,
			Message: fmt.Sprintf("Fetch failed: %v", err),
			Kind:    KindUpstreamFetch,
			Scope:   scope,
		}
	}

	m.setPhase(pageCtx, scope, status.SyncPhaseMerging)
	stored, err := m.writer.StoreSnapshot(pageCtx, scope, d, rows)
	if err != nil {
		return nil, persistenceError(scope, "Storage failed", err)
	}
	return &Result{RowsInserted: stored, Pages: 1, Cursor: m.now().UnixMilli(), Exhausted: true}, nil
}

func (m *defaultSyncManager) credentials(ctx context.Context, scope status.Scope) (auth.Credentials, *Error) {
	if scope.UserID == nil {
		return auth.Credentials{}, nil
	}
	user, err := m.users.GetUser(ctx, *scope.UserID)
	if err != nil {
		return auth.Credentials{}, persistenceError(scope, "Failed to load user", err)
	}
	return auth.Credentials{APIKey: user.APIKey, APISecret: user.APISecret, AuthToken: user.AuthToken}, nil
}

func persistenceError(scope status.Scope, what string, err error) *Error {
	return &Error{
		Err:     err,
		Message: fmt.Sprintf("%s: %v", what, err),
		Kind:    KindPersistence,
		Scope:   scope,
	}
}

// dateBounds returns the newest and oldest value of field among rows
func dateBounds(rows []registry.Row, field string) (newest, oldest int64, found bool) {
	for _, r := range rows {
		v, ok := dateValue(r[field])
		if !ok {
			continue
		}
		if !found || v > newest {
			newest = v
		}
		if !found || v < oldest {
			oldest = v
		}
		found = true
	}
	return newest, oldest, found
}

func dateValue(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(n), true
	}
	return 0, false
}
