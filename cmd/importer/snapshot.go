package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/helixir/phd-talent-service/internal/snapshot"
)

var snapshotCmd = &cobra.Command{
	Use:   "snapshot",
	Short: "Write the CSV dataset into a SQLite file",
	Long: `snapshot replaces the target SQLite file with the CSV dataset plus the
scoring pipeline output for every candidate (ranking score, radar data and
analysis).`,
	RunE: runSnapshot,
}

func init() {
	snapshotCmd.Flags().String("out", "", "SQLite file to write (default: importer.snapshot_path)")

	rootCmd.AddCommand(snapshotCmd)
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	cfg, logger, err := setup(cmd, "snapshot")
	if err != nil {
		return err
	}

	ds, err := loadDataset(cmd, cfg, logger)
	if err != nil {
		return err
	}

	out, _ := cmd.Flags().GetString("out")
	if out == "" {
		out = cfg.Importer.SnapshotPath
	}

	w, err := snapshot.Create(out, logger)
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Write(cmd.Context(), ds); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	counts, err := w.Counts(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\nuniversities: %d\ncandidates: %d\npublications: %d\nradar_data: %d\ncandidate_analysis: %d\nacademic_metrics: %d\n",
		out, counts.Universities, counts.Candidates, counts.Publications,
		counts.RadarData, counts.CandidateAnalysis, counts.AcademicMetrics)
	return nil
}
