package coordinator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/settings"
	"github.com/checho651/bfx-report/internal/status"
	pkgsync "github.com/checho651/bfx-report/internal/sync"
	"github.com/checho651/bfx-report/internal/telemetry"
)

// Coordinator drives periodic sync cycles for every eligible scope
type Coordinator interface {
	// Start runs a tick immediately and then one per interval. It blocks
	// until ctx is cancelled or Stop is called.
	Start(ctx context.Context) error

	// Stop cancels the running loop and waits for it to return
	Stop() error

	// RunOnce runs a single tick and waits for every scope it started. The
	// returned error joins the failures of the individual scopes.
	RunOnce(ctx context.Context) error
}

// UserLister returns the users whose data is synced on every tick
//
//go:generate mockgen -destination=mocks/mock_user_lister.go -package=mocks -source=coordinator.go UserLister
type UserLister interface {
	ListSyncableUsers(ctx context.Context) ([]db.User, error)
}

// defaultCoordinator is the default implementation of Coordinator
type defaultCoordinator struct {
	manager  pkgsync.Manager
	settings settings.Service
	users    UserLister

	interval      time.Duration
	maxConcurrent int
	cycleTimeout  time.Duration

	// running holds the keys of the scopes with a cycle in flight, so a scope
	// never runs twice at once. Keys are removed when their cycle ends.
	runningMu sync.Mutex
	running   map[string]struct{}

	lifecycleMu sync.Mutex
	cancelFunc  context.CancelFunc
	done        chan struct{}

	syncMetrics *telemetry.SyncMetrics
}

// Option is a function that configures the coordinator
type Option func(*defaultCoordinator)

// WithSyncMetrics sets the sync metrics for the coordinator
func WithSyncMetrics(metrics *telemetry.SyncMetrics) Option {
	return func(c *defaultCoordinator) {
		c.syncMetrics = metrics
	}
}

// WithSyncConfig applies the interval, concurrency and cycle timeout of cfg
func WithSyncConfig(cfg *config.SyncConfig) Option {
	return func(c *defaultCoordinator) {
		c.interval = cfg.GetInterval()
		c.maxConcurrent = cfg.GetMaxConcurrentScopes()
		c.cycleTimeout = cfg.GetCycleTimeout()
	}
}

// New creates a new coordinator with injected dependencies
func New(manager pkgsync.Manager, settingsSvc settings.Service, users UserLister, opts ...Option) Coordinator {
	c := &defaultCoordinator{
		manager:       manager,
		settings:      settingsSvc,
		users:         users,
		interval:      config.DefaultSyncInterval,
		maxConcurrent: config.DefaultMaxConcurrentScopes,
		running:       map[string]struct{}{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pollingInterval returns base with a random offset of up to a quarter of it
// either way, so that processes sharing a store do not tick together
func pollingInterval(base time.Duration) time.Duration {
	jitter := base / 4
	if jitter <= 0 {
		return base
	}
	//nolint:gosec // G404: Non-cryptographic randomness is sufficient for polling jitter
	return base + time.Duration(rand.Int64N(int64(2*jitter))) - jitter
}

func (c *defaultCoordinator) Start(ctx context.Context) error {
	c.lifecycleMu.Lock()
	if c.done != nil {
		c.lifecycleMu.Unlock()
		return errors.New("coordinator already started")
	}
	coordCtx, cancel := context.WithCancel(ctx)
	c.cancelFunc = cancel
	done := make(chan struct{})
	c.done = done
	c.lifecycleMu.Unlock()

	defer func() {
		cancel()
		close(done)
		slog.Info("Background sync coordinator shutting down")
	}()

	interval := pollingInterval(c.interval)
	slog.Info("Starting background sync coordinator",
		"base_interval", c.interval,
		"actual_interval", interval,
		"max_concurrent_scopes", c.maxConcurrent)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.tick(coordCtx)
	for {
		select {
		case <-ticker.C:
			c.tick(coordCtx)
			ticker.Reset(pollingInterval(c.interval))
		case <-coordCtx.Done():
			slog.Info("Sync coordinator stopping")
			return nil
		}
	}
}

func (c *defaultCoordinator) Stop() error {
	c.lifecycleMu.Lock()
	cancel, done := c.cancelFunc, c.done
	c.lifecycleMu.Unlock()

	if cancel != nil {
		slog.Info("Stopping sync coordinator")
		cancel()
		<-done
	}
	return nil
}

// tick runs one scheduled pass; failures are logged and retried on the next tick
func (c *defaultCoordinator) tick(ctx context.Context) {
	if err := c.RunOnce(ctx); err != nil {
		slog.Warn("Sync tick finished with errors", "error", err)
	}
}

func (c *defaultCoordinator) RunOnce(ctx context.Context) error {
	scheduler, err := c.settings.SchedulerConfig(ctx)
	if err != nil {
		c.syncMetrics.RecordTick(ctx, telemetry.TickFailed)
		return fmt.Errorf("failed to read scheduler config: %w", err)
	}
	if !scheduler.IsEnable {
		slog.Debug("Scheduler disabled, skipping sync tick")
		c.syncMetrics.RecordTick(ctx, telemetry.TickSchedulerOff)
		return nil
	}

	mode, err := c.settings.SyncModeConfig(ctx)
	if err != nil {
		c.syncMetrics.RecordTick(ctx, telemetry.TickFailed)
		return fmt.Errorf("failed to read sync mode config: %w", err)
	}
	if !mode.IsEnable {
		slog.Debug("Offline mode, skipping sync tick")
		c.syncMetrics.RecordTick(ctx, telemetry.TickOffline)
		return nil
	}

	scopes, err := c.eligibleScopes(ctx)
	if err != nil {
		c.syncMetrics.RecordTick(ctx, telemetry.TickFailed)
		return err
	}
	c.syncMetrics.RecordTick(ctx, telemetry.TickRan)

	return c.syncScopes(ctx, scopes)
}

// eligibleScopes lists the private scopes of every syncable user followed by
// the public scopes
func (c *defaultCoordinator) eligibleScopes(ctx context.Context) ([]status.Scope, error) {
	users, err := c.users.ListSyncableUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list syncable users: %w", err)
	}

	var scopes []status.Scope
	for _, u := range users {
		userScopes, err := c.manager.Scopes(ctx, u)
		if err != nil {
			return nil, fmt.Errorf("failed to list scopes of user %d: %w", u.ID, err)
		}
		scopes = append(scopes, userScopes...)
	}

	// public collections are only worth mirroring for someone
	if len(users) == 0 {
		return scopes, nil
	}
	public, err := c.manager.PublicScopes(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list public scopes: %w", err)
	}
	return append(scopes, public...), nil
}

// syncScopes runs the scopes with at most maxConcurrent cycles in flight
func (c *defaultCoordinator) syncScopes(ctx context.Context, scopes []status.Scope) error {
	var (
		g    errgroup.Group
		mu   sync.Mutex
		errs []error
	)
	g.SetLimit(c.maxConcurrent)

	for _, scope := range scopes {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if syncErr := c.syncScope(ctx, scope); syncErr != nil {
				mu.Lock()
				errs = append(errs, syncErr)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}

// syncScope runs one cycle of scope unless a cycle of the same scope is
// still in flight
func (c *defaultCoordinator) syncScope(ctx context.Context, scope status.Scope) error {
	key := scope.Key()
	if !c.acquireScope(key) {
		slog.Debug("Scope sync already in progress", "scope", key)
		return nil
	}
	defer c.releaseScope(key)

	if c.cycleTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cycleTimeout)
		defer cancel()
	}

	startTime := time.Now()
	result, syncErr := c.manager.PerformSync(ctx, scope)
	duration := time.Since(startTime)

	if syncErr != nil {
		slog.Error("Sync failed",
			"scope", scope.Key(),
			"kind", syncErr.Kind.String(),
			"error", syncErr.Message)
		c.syncMetrics.RecordCycle(ctx, scope.Collection, duration, 0, false)
		return syncErr
	}

	slog.Info("Sync cycle finished",
		"scope", scope.Key(),
		"rows_inserted", result.RowsInserted,
		"pages", result.Pages,
		"complete", result.Exhausted,
		"duration", duration)
	c.syncMetrics.RecordCycle(ctx, scope.Collection, duration, result.RowsInserted, true)
	return nil
}

// acquireScope marks key as running. It returns false when a cycle of key is
// already in flight.
func (c *defaultCoordinator) acquireScope(key string) bool {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()

	if _, busy := c.running[key]; busy {
		return false
	}
	c.running[key] = struct{}{}
	return true
}

func (c *defaultCoordinator) releaseScope(key string) {
	c.runningMu.Lock()
	defer c.runningMu.Unlock()
	delete(c.running, key)
}
