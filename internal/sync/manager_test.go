package sync

import (
	"cmp"
	"context"
	"database/sql"
	"errors"
	"maps"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/checho651/bfx-report/internal/auth"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/sources"
	sourcesmocks "github.com/checho651/bfx-report/internal/sources/mocks"
	"github.com/checho651/bfx-report/internal/status"
	"github.com/checho651/bfx-report/internal/sync/state"
	"github.com/checho651/bfx-report/internal/sync/writer"
	writermocks "github.com/checho651/bfx-report/internal/sync/writer/mocks"
)

var testNow = time.UnixMilli(100_000)

// fakeRemote serves rows the way the remote API pages them: newest first,
// bounded by [Start, End] and cut at Limit
type fakeRemote struct {
	rows     []registry.Row
	snapshot []registry.Row
	requests []sources.PageRequest
	creds    []auth.Credentials
	onFetch  func(call int) error
}

func (f *fakeRemote) FetchPage(
	_ context.Context, creds auth.Credentials, d registry.Descriptor, req sources.PageRequest,
) ([]registry.Row, error) {
	f.requests = append(f.requests, req)
	f.creds = append(f.creds, creds)
	if f.onFetch != nil {
		if err := f.onFetch(len(f.requests)); err != nil {
			return nil, err
		}
	}

	var out []registry.Row
	for _, r := range f.rows {
		v := r[d.DateField].(int64)
		if v >= req.Start && v <= req.End {
			out = append(out, maps.Clone(r))
		}
	}
	slices.SortFunc(out, func(a, b registry.Row) int {
		if c := cmp.Compare(b[d.DateField].(int64), a[d.DateField].(int64)); c != 0 {
			return c
		}
		return cmp.Compare(b["id"].(int64), a["id"].(int64))
	})
	if len(out) > req.Limit {
		out = out[:req.Limit]
	}
	return out, nil
}

func (f *fakeRemote) FetchSnapshot(context.Context, registry.Descriptor) ([]registry.Row, error) {
	return f.snapshot, nil
}

func (*fakeRemote) UserInfo(context.Context, auth.Credentials) (auth.UserInfo, error) {
	return auth.UserInfo{}, nil
}

// movements builds n movement records with ids 1..n dated id*1000
func movements(n int) []registry.Row {
	rows := make([]registry.Row, 0, n)
	for i := 1; i <= n; i++ {
		rows = append(rows, movement(int64(i), int64(i)*1000))
	}
	return rows
}

func movement(id, mts int64) registry.Row {
	return registry.Row{"id": id, "currency": "BTC", "mtsUpdated": mts, "amount": 0.5, "status": "COMPLETED"}
}

type testEnv struct {
	sqlDB  *sql.DB
	reg    *registry.Registry
	state  state.SyncStateService
	writer writer.SyncWriter
	user   db.User
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	reg := registry.New(nil)
	sqlDB := db.OpenMemory(t, reg)
	u, err := db.New(sqlDB).UpsertUser(context.Background(), db.User{
		Email: "user@example.com", APIKey: "key", APISecret: "secret", Active: true,
	})
	require.NoError(t, err)

	w, err := writer.NewDBSyncWriter(sqlDB, reg)
	require.NoError(t, err)
	return &testEnv{sqlDB: sqlDB, reg: reg, state: state.NewDBStateService(sqlDB, reg), writer: w, user: u}
}

func (e *testEnv) manager(src sources.Source) Manager {
	return NewManager(src, e.writer, e.state, db.New(e.sqlDB), e.reg, WithClock(func() time.Time { return testNow }))
}

func (e *testEnv) movementsScope() status.Scope {
	id := e.user.ID
	return status.Scope{UserID: &id, Collection: registry.Movements}
}

func (e *testEnv) storedIDs(t *testing.T) []int64 {
	t.Helper()
	m, _ := e.reg.Schema(registry.Movements)
	id := e.user.ID
	rows, err := db.New(e.sqlDB).QueryRows(context.Background(), db.RowQuery{
		Model: m, UserID: &id, Fields: []string{"id"},
		Sort:  []registry.Sort{{Field: "id", Direction: registry.Asc}},
	})
	require.NoError(t, err)
	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r["id"].(int64))
	}
	return ids
}

func (e *testEnv) cursor(t *testing.T, scope status.Scope) db.Cursor {
	t.Helper()
	c, err := e.state.GetCursor(context.Background(), scope)
	require.NoError(t, err)
	return c
}

func (e *testEnv) syncStatus(t *testing.T, scope status.Scope) *status.SyncStatus {
	t.Helper()
	s, err := e.state.GetSyncStatus(context.Background(), scope)
	require.NoError(t, err)
	return s
}

func TestPerformSync_FullSweep(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(60)}
	scope := env.movementsScope()

	result, syncErr := env.manager(remote).PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)

	assert.Equal(t, int64(60), result.RowsInserted)
	assert.Equal(t, 3, result.Pages)
	assert.Equal(t, int64(60000), result.Cursor)
	assert.True(t, result.Exhausted)
	assert.Len(t, env.storedIDs(t), 60)

	require.Len(t, remote.requests, 3)
	assert.Equal(t, sources.PageRequest{Start: 0, End: testNow.UnixMilli(), Limit: 25}, remote.requests[0])
	assert.Equal(t, int64(36000), remote.requests[1].End)
	assert.Equal(t, int64(12000), remote.requests[2].End)

	c := env.cursor(t, scope)
	assert.Equal(t, int64(60000), c.Value)
	assert.Nil(t, c.PendingEnd)
	assert.Nil(t, c.PendingTop)

	s := env.syncStatus(t, scope)
	assert.Equal(t, status.SyncPhaseIdle, s.Phase)
	assert.Equal(t, messageCompleted, s.Message)
	assert.Equal(t, int64(60), s.RowsInserted)
	assert.Zero(t, s.AttemptCount)
	require.NotNil(t, s.LastSyncTime)
	assert.True(t, s.LastSyncTime.Equal(testNow))
}

func TestPerformSync_RerunIsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(60)}
	scope := env.movementsScope()
	m := env.manager(remote)

	_, syncErr := m.PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)

	result, syncErr := m.PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)
	assert.Zero(t, result.RowsInserted)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, int64(60000), result.Cursor)
	assert.Len(t, env.storedIDs(t), 60)

	// the second cycle only asks for the window after the cursor
	assert.Equal(t, int64(60000), remote.requests[len(remote.requests)-1].Start)
}

func TestPerformSync_Incremental(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(60)}
	scope := env.movementsScope()
	m := env.manager(remote)

	_, syncErr := m.PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)

	for id := int64(61); id <= 65; id++ {
		remote.rows = append(remote.rows, movement(id, id*1000))
	}
	result, syncErr := m.PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)
	assert.Equal(t, int64(5), result.RowsInserted)
	assert.Equal(t, int64(65000), result.Cursor)
	assert.Len(t, env.storedIDs(t), 65)
}

func TestPerformSync_ResumesInterruptedSweep(t *testing.T) {
	t.Parallel()

	reference := newTestEnv(t)
	_, syncErr := reference.manager(&fakeRemote{rows: movements(60)}).
		PerformSync(context.Background(), reference.movementsScope())
	require.Nil(t, syncErr)

	env := newTestEnv(t)
	scope := env.movementsScope()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	remote := &fakeRemote{rows: movements(60), onFetch: func(call int) error {
		if call == 1 {
			cancel()
		}
		return nil
	}}
	m := env.manager(remote)

	result, syncErr := m.PerformSync(ctx, scope)
	require.Nil(t, syncErr)
	assert.False(t, result.Exhausted)
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, int64(25), result.RowsInserted)

	// the interrupted page is committed together with where to continue
	c := env.cursor(t, scope)
	assert.Zero(t, c.Value)
	require.NotNil(t, c.PendingEnd)
	assert.Equal(t, int64(36000), *c.PendingEnd)
	require.NotNil(t, c.PendingTop)
	assert.Equal(t, int64(60000), *c.PendingTop)

	s := env.syncStatus(t, scope)
	assert.Equal(t, status.SyncPhaseIdle, s.Phase)
	assert.Equal(t, messageInterrupted, s.Message)
	assert.Nil(t, s.LastSyncTime)

	remote.onFetch = nil
	result, syncErr = m.PerformSync(context.Background(), scope)
	require.Nil(t, syncErr)
	assert.True(t, result.Exhausted)
	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, int64(35), result.RowsInserted)
	assert.Equal(t, int64(60000), result.Cursor)
	assert.Equal(t, int64(36000), remote.requests[1].End)

	assert.Equal(t, reference.storedIDs(t), env.storedIDs(t))
	assert.Equal(t, reference.cursor(t, reference.movementsScope()).Value, env.cursor(t, scope).Value)
}

func TestPerformSync_RowsSharingDateAcrossPages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	rows := []registry.Row{movement(1, 2000), movement(2, 2000)}
	for id := int64(3); id <= 26; id++ {
		rows = append(rows, movement(id, id*1000))
	}
	remote := &fakeRemote{rows: rows}

	result, syncErr := env.manager(remote).PerformSync(context.Background(), env.movementsScope())
	require.Nil(t, syncErr)
	assert.Equal(t, int64(26), result.RowsInserted)
	assert.Equal(t, 2, result.Pages)
	assert.Len(t, env.storedIDs(t), 26)
	assert.Equal(t, int64(2000), remote.requests[1].End)
}

func TestPerformSync_FetchFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctrl := gomock.NewController(t)
	src := sourcesmocks.NewMockSource(ctrl)
	src.EXPECT().
		FetchPage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(nil, errors.New("upstream unavailable"))
	scope := env.movementsScope()

	result, syncErr := env.manager(src).PerformSync(context.Background(), scope)
	assert.Nil(t, result)
	require.NotNil(t, syncErr)
	assert.Equal(t, KindUpstreamFetch, syncErr.Kind)
	assert.Equal(t, scope.Key(), syncErr.Scope.Key())
	assert.ErrorContains(t, syncErr, "upstream unavailable")

	_, err := env.state.GetCursor(context.Background(), scope)
	assert.ErrorIs(t, err, state.ErrCursorNotFound)

	s := env.syncStatus(t, scope)
	assert.Equal(t, status.SyncPhaseIdle, s.Phase)
	assert.Contains(t, s.Message, "upstream unavailable")
	assert.Equal(t, 1, s.AttemptCount)
}

func TestPerformSync_FetchFailureKeepsCommittedPages(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(60), onFetch: func(call int) error {
		if call == 2 {
			return errors.New("rate limited")
		}
		return nil
	}}
	scope := env.movementsScope()

	_, syncErr := env.manager(remote).PerformSync(context.Background(), scope)
	require.NotNil(t, syncErr)
	assert.Equal(t, KindUpstreamFetch, syncErr.Kind)

	assert.Len(t, env.storedIDs(t), 25)
	c := env.cursor(t, scope)
	assert.Zero(t, c.Value)
	require.NotNil(t, c.PendingEnd)
	assert.Equal(t, int64(36000), *c.PendingEnd)
}

func TestPerformSync_PersistenceFailure(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctrl := gomock.NewController(t)
	w := writermocks.NewMockSyncWriter(ctrl)
	w.EXPECT().
		StorePage(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(int64(0), errors.New("disk I/O error"))
	scope := env.movementsScope()

	m := NewManager(&fakeRemote{rows: movements(3)}, w, env.state, db.New(env.sqlDB), env.reg,
		WithClock(func() time.Time { return testNow }))
	result, syncErr := m.PerformSync(context.Background(), scope)
	assert.Nil(t, result)
	require.NotNil(t, syncErr)
	assert.Equal(t, KindPersistence, syncErr.Kind)

	s := env.syncStatus(t, scope)
	assert.Equal(t, status.SyncPhaseFailed, s.Phase)
	assert.Contains(t, s.Message, "disk I/O error")
}

func TestPerformSync_Snapshot(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	pairs := []string{"btcusd", "ethusd", "ethbtc", "ltcusd", "ltcbtc", "xrpusd",
		"xrpbtc", "eosusd", "eosbtc", "iotusd", "iotbtc"}
	remote := &fakeRemote{}
	for _, p := range pairs {
		remote.snapshot = append(remote.snapshot, registry.Row{"pairs": p})
	}
	scope := status.Scope{Collection: registry.Symbols}
	m := env.manager(remote)

	for range 3 {
		result, syncErr := m.PerformSync(context.Background(), scope)
		require.Nil(t, syncErr)
		assert.Equal(t, int64(11), result.RowsInserted)
		assert.True(t, result.Exhausted)
	}

	sm, _ := env.reg.Schema(registry.Symbols)
	n, err := db.New(env.sqlDB).CountRows(context.Background(), sm, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(11), n)
	assert.True(t, env.cursor(t, scope).HasNewData)
	assert.Equal(t, status.SyncPhaseIdle, env.syncStatus(t, scope).Phase)
}

func TestPerformSync_InvalidScope(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	id := env.user.ID
	tests := []struct {
		name  string
		scope status.Scope
	}{
		{name: "unknown collection", scope: status.Scope{UserID: &id, Collection: "positions"}},
		{name: "public collection with user", scope: status.Scope{UserID: &id, Collection: registry.Symbols}},
		{name: "private collection without user", scope: status.Scope{Collection: registry.Ledgers}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			result, syncErr := env.manager(&fakeRemote{}).PerformSync(context.Background(), tt.scope)
			assert.Nil(t, result)
			require.NotNil(t, syncErr)
			assert.Equal(t, KindInvalidScope, syncErr.Kind)
		})
	}
}

func TestPerformSync_CancelledBeforeStart(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(10)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, syncErr := env.manager(remote).PerformSync(ctx, env.movementsScope())
	require.Nil(t, syncErr)
	assert.Zero(t, result.Pages)
	assert.False(t, result.Exhausted)
	assert.Empty(t, remote.requests)
	assert.Empty(t, env.storedIDs(t))
}

func TestPerformSync_UsesUserCredentials(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	remote := &fakeRemote{rows: movements(1)}

	_, syncErr := env.manager(remote).PerformSync(context.Background(), env.movementsScope())
	require.Nil(t, syncErr)
	require.Len(t, remote.creds, 1)
	assert.Equal(t, auth.Credentials{APIKey: "key", APISecret: "secret"}, remote.creds[0])
}

func TestScopes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	scopes, err := env.manager(&fakeRemote{}).Scopes(context.Background(), env.user)
	require.NoError(t, err)

	names := make([]string, 0, len(scopes))
	for _, s := range scopes {
		require.NotNil(t, s.UserID)
		assert.Equal(t, env.user.ID, *s.UserID)
		names = append(names, s.Collection)
	}
	assert.Equal(t, []string{
		registry.FundingCreditHistory,
		registry.FundingLoanHistory,
		registry.FundingOfferHistory,
		registry.Ledgers,
		registry.Movements,
		registry.Orders,
		registry.Trades,
	}, names)
}

type failingUsers struct {
	UserStore
}

func (failingUsers) ListPublicSymbols(context.Context) ([]registry.SymbolStart, error) {
	return nil, errors.New("database is locked")
}

func TestPublicScopes(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	ctx := context.Background()
	queries := db.New(env.sqlDB)
	other, err := queries.UpsertUser(ctx, db.User{Email: "other@example.com", APIKey: "k2", APISecret: "s2", Active: true})
	require.NoError(t, err)
	require.NoError(t, queries.ReplacePublicTradesConf(ctx, env.user.ID, []db.PublicTradesConf{
		{Symbol: "tBTCUSD", Start: 5000},
		{Symbol: "tETHUSD"},
	}))
	require.NoError(t, queries.ReplacePublicTradesConf(ctx, other.ID, []db.PublicTradesConf{
		{Symbol: "tBTCUSD", Start: 3000},
	}))

	scopes, err := env.manager(&fakeRemote{}).PublicScopes(ctx)
	require.NoError(t, err)
	assert.Equal(t, []status.Scope{
		{Collection: registry.Currencies},
		{Collection: registry.PublicTrades, Symbol: "tBTCUSD", Start: 3000},
		{Collection: registry.PublicTrades, Symbol: "tETHUSD"},
		{Collection: registry.Symbols},
	}, scopes)

	m := NewManager(&fakeRemote{}, env.writer, env.state, failingUsers{}, env.reg)
	_, err = m.PublicScopes(ctx)
	assert.ErrorContains(t, err, "database is locked")
}
