// Package main provides the CLI that loads the offline CSV dataset into
// PostgreSQL or into a standalone SQLite snapshot.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/helixir/phd-talent-service/internal/config"
	"github.com/helixir/phd-talent-service/internal/importer"
	"github.com/helixir/phd-talent-service/internal/observability"
)

var rootCmd = &cobra.Command{
	Use:   "importer",
	Short: "Load the PhD talent CSV dataset",
	Long: `importer reads universities.csv, candidates.csv, publications.csv and
academic_metrics.csv from a data directory. The import subcommand upserts
them into PostgreSQL; the snapshot subcommand writes them into a SQLite file.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().String("dir", "", "directory holding the CSV files (default: importer.data_dir)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (trace, debug, info, warn, error)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// setup loads configuration and builds the console logger shared by the
// subcommands.
func setup(cmd *cobra.Command, component string) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Nop(), fmt.Errorf("load config: %w", err)
	}

	level, _ := cmd.Flags().GetString("log-level")
	logger := observability.NewLogger(observability.LoggingConfig{
		Level:      level,
		Format:     "console",
		Output:     "stderr",
		TimeFormat: time.RFC3339,
	})
	return cfg, observability.WithComponent(logger, component), nil
}

// loadDataset reads the CSV directory named by --dir or the configured default.
func loadDataset(cmd *cobra.Command, cfg *config.Config, logger zerolog.Logger) (*importer.Dataset, error) {
	dir, _ := cmd.Flags().GetString("dir")
	if dir == "" {
		dir = cfg.Importer.DataDir
	}

	ds, err := importer.LoadDir(dir, importer.NewUUID)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", dir, err)
	}

	for _, name := range ds.Missing {
		logger.Warn().Str("file", name).Msg("file not found, skipping")
	}
	for table, n := range ds.Skipped {
		if n > 0 {
			logger.Warn().Str("table", table).Int("rows", n).Msg("rows skipped")
		}
	}
	logger.Info().
		Str("dir", dir).
		Int("universities", len(ds.Universities)).
		Int("candidates", len(ds.Candidates)).
		Int("publications", len(ds.Publications)).
		Int("academic_metrics", len(ds.AcademicMetrics)).
		Msg("dataset loaded")

	return ds, nil
}
