package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/helixir/phd-talent-service/internal/database"
	"github.com/helixir/phd-talent-service/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Upsert the CSV dataset into PostgreSQL",
	Long: `import upserts every CSV row in batches, one transaction per batch.
Rows are keyed by id, so re-running an import updates rows in place.`,
	RunE: runImport,
}

func init() {
	importCmd.Flags().Int("batch-size", 0, "rows per transaction (default: importer.batch_size)")
	importCmd.Flags().Bool("migrate", false, "apply pending migrations before importing")

	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd, "importer")
	if err != nil {
		return err
	}

	ds, err := loadDataset(cmd, cfg, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.New(ctx, &cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connect to database: %w", err)
	}
	defer db.Close()

	if migrate, _ := cmd.Flags().GetBool("migrate"); migrate {
		migrator, err := database.NewMigrator(db, cfg.Database.MigrationPath, logger)
		if err != nil {
			return fmt.Errorf("create migrator: %w", err)
		}
		defer migrator.Close()

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	batchSize, _ := cmd.Flags().GetInt("batch-size")
	if batchSize <= 0 {
		batchSize = cfg.Importer.BatchSize
	}

	sum, err := importer.New(db, batchSize, logger, nil).Import(ctx, ds)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "universities: %d\ncandidates: %d\npublications: %d\nacademic_metrics: %d\n",
		sum.Universities, sum.Candidates, sum.Publications, sum.AcademicMetrics)
	return nil
}
