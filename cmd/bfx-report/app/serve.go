package app

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	reportapp "github.com/checho651/bfx-report/internal/app"
	"github.com/checho651/bfx-report/internal/telemetry"
)

const defaultGracefulTimeout = 30 * time.Second

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the report server",
		Long: `Start the report server. It serves the JSON API, runs the sync scheduler
and writes CSV exports.

Without --config every setting uses its default: the store lives in
./data/db-sqlite_sync_m0.db and exports go to ./csv.`,
		RunE: runServe,
	}

	cmd.Flags().String("address", ":31339", "Address to listen on")
	cmd.Flags().String("config", "", "Path to configuration file (YAML format)")

	if err := viper.BindPFlag("address", cmd.Flags().Lookup("address")); err != nil {
		slog.Error("Failed to bind address flag", "error", err)
	}
	if err := viper.BindPFlag("config", cmd.Flags().Lookup("config")); err != nil {
		slog.Error("Failed to bind config flag", "error", err)
	}
	return cmd
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(viper.GetString("config"))
	if err != nil {
		return err
	}

	tel, err := telemetry.New(ctx, telemetry.WithTelemetryConfig(cfg.Telemetry))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			slog.Error("Failed to shutdown telemetry", "error", err)
		}
	}()

	// The app context must outlive the signal: Stop cancels it.
	server, err := reportapp.NewReportApp(context.WithoutCancel(ctx),
		reportapp.WithConfig(cfg),
		reportapp.WithAddress(viper.GetString("address")),
		reportapp.WithTelemetry(tel),
	)
	if err != nil {
		return fmt.Errorf("failed to build report server: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Start()
	}()

	select {
	case err := <-errCh:
		if stopErr := server.Stop(defaultGracefulTimeout); stopErr != nil {
			slog.Error("Failed to stop server", "error", stopErr)
		}
		return err
	case <-ctx.Done():
	}

	if err := server.Stop(defaultGracefulTimeout); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		return err
	}
	return <-errCh
}
