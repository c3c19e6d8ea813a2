package app

import (
	"bufio"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/checho651/bfx-report/database"
	"github.com/checho651/bfx-report/internal/db"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Database migration tool for managing schema versions. Use with 'up' or 'down' subcommands.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}

	cmd.PersistentFlags().BoolP("yes", "y", false, "Answer yes to all questions")
	cmd.PersistentFlags().UintP("num-steps", "n", 0, "Number of steps to migrate (0 = all)")
	cmd.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")

	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		Long: `Apply pending migrations to bring the schema of the local store up to date.
The server applies them on start as well; this command exists for upgrades
run ahead of time.`,
		RunE: runMigrateUp,
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Migrate the database down",
		Long: `Revert migrations of the local store.
WARNING: This operation can result in data loss. Use with caution.

Examples:
  # Migrate down by 1 step
  bfx-report migrate down --config config.yaml --num-steps 1 --yes

  # Migrate down all the way (WARNING: destroys all data)
  bfx-report migrate down --config config.yaml --yes`,
		RunE: runMigrateDown,
	})

	return cmd
}

// setupMigration opens the store named by --config and reads the shared flags
func setupMigration(cmd *cobra.Command) (*sql.DB, uint, error) {
	configPath, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get config flag: %w", err)
	}
	numSteps, err := cmd.Flags().GetUint("num-steps")
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get num-steps flag: %w", err)
	}

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, 0, err
	}

	sqlDB, err := db.Open(cfg.Database.GetPath())
	if err != nil {
		return nil, 0, err
	}
	return sqlDB, numSteps, nil
}

func runMigrateUp(cmd *cobra.Command, _ []string) error {
	sqlDB, numSteps, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer closeDatabase(sqlDB)

	slog.Info("Applying database migrations...", "num_steps", numSteps)
	if err := database.MigrateUp(sqlDB, numSteps); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	displayMigrationVersion(sqlDB)
	return nil
}

func runMigrateDown(cmd *cobra.Command, _ []string) error {
	sqlDB, numSteps, err := setupMigration(cmd)
	if err != nil {
		return err
	}
	defer closeDatabase(sqlDB)

	yes, err := cmd.Flags().GetBool("yes")
	if err != nil {
		return fmt.Errorf("failed to get yes flag: %w", err)
	}
	if !yes {
		prompt := "WARNING: This will migrate down ALL steps and may result in complete data loss. Continue?"
		if numSteps > 0 {
			prompt = fmt.Sprintf("WARNING: This will migrate down %d step(s) and may result in data loss. Continue?", numSteps)
		}
		if !confirm(cmd.InOrStdin(), cmd.OutOrStdout(), prompt) {
			slog.Info("Migration cancelled")
			return fmt.Errorf("migration cancelled by user")
		}
	}

	if numSteps == 0 {
		slog.Warn("Migrating down all steps - this will remove all schema!")
	}
	if err := database.MigrateDown(sqlDB, numSteps); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	displayMigrationVersion(sqlDB)
	return nil
}

// confirm asks a yes/no question on out and reads the answer from in
func confirm(in io.Reader, out io.Writer, prompt string) bool {
	_, _ = fmt.Fprintf(out, "%s (yes/no): ", prompt)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "yes" || answer == "y"
}

func displayMigrationVersion(sqlDB *sql.DB) {
	version, dirty, err := database.GetVersion(sqlDB)
	switch {
	case err != nil:
		slog.Info("No migration applied", "reason", err)
	case dirty:
		slog.Warn("Database is in a dirty state", "version", version)
	default:
		slog.Info("Migrations applied", "version", version)
	}
}

func closeDatabase(sqlDB *sql.DB) {
	if err := sqlDB.Close(); err != nil {
		slog.Error("Error closing database connection", "error", err)
	}
}
