package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/checho651/bfx-report/internal/config"
	"github.com/checho651/bfx-report/internal/settings"
)

// InitializeStore writes the configured toggle defaults into a fresh store.
// Toggles that already hold a value are left alone, so it is safe to call on
// every startup.
func InitializeStore(ctx context.Context, cfg *config.Config, svc settings.Service) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if svc == nil {
		return fmt.Errorf("settings service is required")
	}

	defaults := settings.Defaults{
		SchedulerEnabled: cfg.Defaults.GetSchedulerEnabled(),
		SyncModeOnline:   cfg.Defaults.GetSyncModeOnline(),
	}
	if err := svc.Initialize(ctx, defaults); err != nil {
		return fmt.Errorf("failed to initialize toggles: %w", err)
	}

	scheduler, err := svc.SchedulerConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read scheduler config: %w", err)
	}
	syncMode, err := svc.SyncModeConfig(ctx)
	if err != nil {
		return fmt.Errorf("failed to read sync mode config: %w", err)
	}

	slog.Info("Store initialized",
		"scheduler_enabled", scheduler.IsEnable,
		"sync_mode_online", syncMode.IsEnable)
	return nil
}
