package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/gradeboard/internal/dashboard"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/jon4hz/gradeboard/internal/extract"
	"github.com/mergestat/timediff"
	"github.com/spf13/cobra"
)

// cliSessionID marks import runs started from the command line.
const cliSessionID = "cli"

var importCmdFlags struct {
	Grade  int
	Record bool
}

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Load a user export and print its grade summary",
	Long:  `Load a CSV or JSON user export into a fresh dashboard, print the users per grade and the users of the selected grade.`,
	Example: `gradeboard import users.csv
gradeboard import users.json --grade 3 --record`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func init() {
	importCmd.Flags().IntVar(&importCmdFlags.Grade, "grade", 0, "Only list users of this grade")
	importCmd.Flags().BoolVar(&importCmdFlags.Record, "record", false, "Record the import in the import history")
	rootCmd.AddCommand(importCmd)
}

func runImport(cmd *cobra.Command, args []string) error {
	path := args[0]
	extractor, err := extract.ForFilename(path)
	if err != nil {
		return err
	}

	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close() //nolint: errcheck

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	var (
		db  database.DB
		run *database.ImportRun
	)
	if importCmdFlags.Record {
		cfg, err := loadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		client, err := database.New(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer client.Close() //nolint: errcheck
		db = client

		run, err = db.StartImportRun(cmd.Context(), cliSessionID, filepath.Base(path), extractor.String())
		if err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
	}

	store := dashboard.New()
	result := dashboard.Import(cmd.Context(), store, extractor, f)

	if run != nil {
		msg := ""
		if result.Err != nil {
			msg = result.Err.Error()
		}
		if err := db.CompleteImportRun(cmd.Context(), run.ID, result.Records, msg); err != nil {
			return fmt.Errorf("failed to record import: %w", err)
		}
	}
	if result.Err != nil {
		return fmt.Errorf("import failed: %s", store.ErrorMessage())
	}

	if cmd.Flags().Changed("grade") {
		store.SetSelectedGradeForChip(&importCmdFlags.Grade)
	}

	printImportSummary(cmd.OutOrStdout(), filepath.Base(path), info.Size(), result, store.View())
	return nil
}

func printImportSummary(w io.Writer, source string, size int64, result dashboard.ImportResult, view dashboard.View) {
	bytes, err := safecast.ToUint64(size)
	if err != nil {
		bytes = 0
	}
	fmt.Fprintf(w, "Imported %s users from %s (%s) in %s\n",
		humanize.Comma(int64(result.Records)), source, humanize.Bytes(bytes), result.Duration.Round(time.Millisecond))

	fmt.Fprintln(w, "\nUsers per grade:")
	for _, grade := range view.UniqueGrades {
		fmt.Fprintf(w, "  Grade %d: %d\n", grade, view.GradeCounts[grade])
	}

	if view.SelectedGradeForChip != nil {
		fmt.Fprintf(w, "\nUsers in grade %d:\n", *view.SelectedGradeForChip)
	} else {
		fmt.Fprintln(w, "\nAll users:")
	}
	if len(view.UsersBySelectedGrade) == 0 {
		fmt.Fprintln(w, "  none")
		return
	}
	for _, u := range view.UsersBySelectedGrade {
		fmt.Fprintf(w, "  %-24s grade %-3d last login %s\n", u.Name, u.Grade, since(u.LastLogin))
	}
}

func since(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return timediff.TimeDiff(t)
}
