package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	reportapp "github.com/checho651/bfx-report/internal/app"
)

func newSyncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one synchronization pass and exit",
		Long: `Run one synchronization pass over every active user and the public
collections, then exit. The scheduler and sync mode toggles are honoured:
nothing is fetched while either is off.`,
		RunE: runSync,
	}
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	server, err := reportapp.NewReportApp(context.WithoutCancel(ctx), reportapp.WithConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to build report server: %w", err)
	}
	defer func() {
		if err := server.Stop(10 * time.Second); err != nil {
			slog.Error("Failed to release resources", "error", err)
		}
		if err := server.Components().Telemetry.Shutdown(context.Background()); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	start := time.Now()
	if err := server.Components().SyncCoordinator.RunOnce(ctx); err != nil {
		return fmt.Errorf("sync failed: %w", err)
	}
	slog.Info("Sync completed", "duration", time.Since(start))
	return nil
}
