package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/spf13/cobra"
)

var historyCmdFlags struct {
	Limit int
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show import history statistics",
	Long:  `Display statistics about import runs and list the most recent ones.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer db.Close() //nolint: errcheck

		stats, err := db.GetImportStats(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to get import stats: %w", err)
		}
		runs, err := db.GetImportRunHistory(cmd.Context(), historyCmdFlags.Limit, 0)
		if err != nil {
			return fmt.Errorf("failed to get import history: %w", err)
		}

		printHistory(cmd.OutOrStdout(), stats, runs)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntVar(&historyCmdFlags.Limit, "limit", 5, "Number of recent runs to list")
	rootCmd.AddCommand(historyCmd)
}

func printHistory(w io.Writer, stats *database.ImportStats, runs []database.ImportRun) {
	fmt.Fprintln(w, "Import Statistics:")
	fmt.Fprintf(w, "Total Runs: %d\n", stats.TotalRuns)
	fmt.Fprintf(w, "Successful Runs: %d\n", stats.SucceededRuns)
	fmt.Fprintf(w, "Failed Runs: %d\n", stats.FailedRuns)
	fmt.Fprintf(w, "Total Records Imported: %s\n", humanize.Comma(int64(stats.TotalRecords)))
	if stats.LastSuccessfulRun != nil {
		fmt.Fprintf(w, "Last Successful Run: %s (%s)\n", stats.LastSuccessfulRun.Format(time.RFC3339), humanize.Time(*stats.LastSuccessfulRun))
	}
	if stats.LastFailedRun != nil {
		fmt.Fprintf(w, "Last Failed Run: %s (%s)\n", stats.LastFailedRun.Format(time.RFC3339), humanize.Time(*stats.LastFailedRun))
	}

	if len(runs) == 0 {
		return
	}
	fmt.Fprintln(w, "\nRecent Import Runs:")
	for _, run := range runs {
		fmt.Fprintf(w, "  ID: %d, Started: %s, Source: %s, Status: %s, Records: %d\n",
			run.ID, run.StartedAt.Format("2006-01-02 15:04:05"), run.Source, run.Status, run.Records)
		if run.ErrorMessage != "" {
			fmt.Fprintf(w, "    Error: %s\n", run.ErrorMessage)
		}
	}
}
