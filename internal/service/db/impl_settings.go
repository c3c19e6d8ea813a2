package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/checho651/bfx-report/internal/db"
	"github.com/checho651/bfx-report/internal/registry"
	"github.com/checho651/bfx-report/internal/service"
	"github.com/checho651/bfx-report/internal/settings"
	"github.com/checho651/bfx-report/internal/status"
)

func (s *dbService) isSyncModeConfig(ctx context.Context, _ *db.User, _ json.RawMessage) (any, error) {
	cfg, err := s.settings.SyncModeConfig(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.IsEnable, nil
}

func (s *dbService) setSyncMode(online bool) handlerFunc {
	return func(ctx context.Context, user *db.User, _ json.RawMessage) (any, error) {
		if err := s.settings.SetSyncModeConfig(ctx, settings.SyncModeConfig{IsEnable: online}); err != nil {
			return nil, err
		}
		slog.Info("Sync mode changed", "online", online, "user_id", user.ID)
		return true, nil
	}
}

func (s *dbService) isSchedulerEnabled(ctx context.Context, _ *db.User, _ json.RawMessage) (any, error) {
	cfg, err := s.settings.SchedulerConfig(ctx)
	if err != nil {
		return nil, err
	}
	return cfg.IsEnable, nil
}

func (s *dbService) setScheduler(enabled bool) handlerFunc {
	return func(ctx context.Context, user *db.User, _ json.RawMessage) (any, error) {
		if err := s.settings.SetSchedulerConfig(ctx, settings.SchedulerConfig{IsEnable: enabled}); err != nil {
			return nil, err
		}
		slog.Info("Scheduler toggled", "enabled", enabled, "user_id", user.ID)
		return true, nil
	}
}

// getSyncProgress reports the scopes of the user together with the public
// ones. Scopes that never ran a cycle are not listed.
func (s *dbService) getSyncProgress(ctx context.Context, user *db.User, _ json.RawMessage) (any, error) {
	rows, err := db.New(s.sqlDB).ListSyncStatuses(ctx, &user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync statuses: %w", err)
	}

	progress := service.SyncProgress{Scopes: make([]service.ScopeProgress, 0, len(rows))}
	done := 0
	for _, r := range rows {
		phase := status.SyncPhase(r.Phase)
		sp := service.ScopeProgress{
			Collection:   r.Collection,
			Symbol:       r.Symbol,
			Phase:        r.Phase,
			Message:      r.Message,
			RowsInserted: r.RowsInserted,
		}
		if r.LastSyncTime != nil {
			ms := r.LastSyncTime.UnixMilli()
			sp.LastSyncTime = &ms
		}
		if phase.IsRunning() {
			progress.IsSyncInProgress = true
		}
		if phase == status.SyncPhaseIdle && r.LastSyncTime != nil {
			done++
		}
		progress.Scopes = append(progress.Scopes, sp)
	}
	if len(rows) > 0 {
		progress.Progress = done * 100 / len(rows)
	}
	return progress, nil
}

func (s *dbService) getPublicTradesConf(ctx context.Context, user *db.User, _ json.RawMessage) (any, error) {
	confs, err := db.New(s.sqlDB).ListPublicTradesConf(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", registry.PublicTradesConf, err)
	}
	out := make([]service.PublicTradesConf, len(confs))
	for i, c := range confs {
		out[i] = service.PublicTradesConf{Symbol: c.Symbol, Start: c.Start}
	}
	return out, nil
}

// editPublicTradesConf replaces the pairs the user follows. New pairs are
// picked up by the next scheduler tick.
func (s *dbService) editPublicTradesConf(ctx context.Context, user *db.User, raw json.RawMessage) (any, error) {
	confs, err := service.ParsePublicTradesConf(raw)
	if err != nil {
		return nil, err
	}

	rows := make([]db.PublicTradesConf, len(confs))
	for i, c := range confs {
		rows[i] = db.PublicTradesConf{Symbol: c.Symbol, Start: c.Start}
	}
	err = db.RunTx(ctx, s.sqlDB, func(tx *sql.Tx) error {
		return db.New(tx).ReplacePublicTradesConf(ctx, user.ID, rows)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", registry.PublicTradesConf, err)
	}
	return true, nil
}
