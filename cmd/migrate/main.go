// Package main provides a CLI tool for database migrations.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/phd-talent-service/internal/config"
	"github.com/helixir/phd-talent-service/internal/database"
	"github.com/helixir/phd-talent-service/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Manage the PhD talent database schema",
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("path", "", "override the migrations directory (default: database.migration_path)")

	rootCmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Run all pending migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, logger zerolog.Logger, _ []string) error {
				logger.Info().Msg("running all pending migrations")
				return m.Up()
			}),
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back all migrations",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(m *database.Migrator, logger zerolog.Logger, _ []string) error {
				logger.Warn().Msg("rolling back all migrations")
				return m.Down()
			}),
		},
		&cobra.Command{
			Use:   "steps N",
			Short: "Run N migration steps (positive=up, negative=down; pass a negative N after --)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *database.Migrator, logger zerolog.Logger, args []string) error {
				n, err := strconv.Atoi(args[0])
				if err != nil || n == 0 {
					return fmt.Errorf("steps must be a non-zero integer, got %q", args[0])
				}
				logger.Info().Int("steps", n).Msg("running migration steps")
				return m.Steps(n)
			}),
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print the current migration version",
			Args:  cobra.NoArgs,
			RunE: withMigrator(func(*database.Migrator, zerolog.Logger, []string) error {
				return nil
			}),
		},
		&cobra.Command{
			Use:   "force VERSION",
			Short: "Force set the migration version (use to recover from failed migrations)",
			Args:  cobra.ExactArgs(1),
			RunE: withMigrator(func(m *database.Migrator, logger zerolog.Logger, args []string) error {
				v, err := strconv.Atoi(args[0])
				if err != nil || v < 0 {
					return fmt.Errorf("version must be a non-negative integer, got %q", args[0])
				}
				logger.Warn().Int("version", v).Msg("forcing migration version")
				return m.Force(v)
			}),
		},
	)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type migrateFunc func(m *database.Migrator, logger zerolog.Logger, args []string) error

// withMigrator connects to the database, runs fn and prints the resulting
// schema version.
func withMigrator(fn migrateFunc) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger := observability.NewLogger(observability.LoggingConfig{
			Level:      "info",
			Format:     "console",
			Output:     "stdout",
			TimeFormat: time.RFC3339,
		})
		logger = observability.WithComponent(logger, "migrate")

		migrationDir := cfg.Database.MigrationPath
		if path, _ := cmd.Flags().GetString("path"); path != "" {
			migrationDir = path
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := database.New(ctx, &cfg.Database, logger)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		migrator, err := database.NewMigrator(db, migrationDir, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer func() {
			if closeErr := migrator.Close(); closeErr != nil {
				logger.Error().Err(closeErr).Msg("failed to close migrator")
			}
		}()

		if err := fn(migrator, logger, args); err != nil {
			return fmt.Errorf("migrate %s: %w", cmd.Name(), err)
		}

		printVersion(migrator, logger)
		return nil
	}
}

// printVersion logs the current migration version.
func printVersion(migrator *database.Migrator, logger zerolog.Logger) {
	v, err := migrator.Version()
	if err != nil {
		logger.Warn().Err(err).Msg("could not determine migration version")
		return
	}
	if !v.Applied {
		logger.Info().Msg("no migrations applied")
		return
	}
	logger.Info().
		Uint("version", v.Version).
		Bool("dirty", v.Dirty).
		Msg("current migration version")
}
