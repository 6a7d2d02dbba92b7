package scheduler

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/dustin/go-humanize"
)

// PruneImportHistoryJobID identifies the import history retention job.
const PruneImportHistoryJobID = "prune_import_history"

// ImportHistoryPruner deletes import runs older than a cutoff.
type ImportHistoryPruner interface {
	PruneImportRuns(ctx context.Context, before time.Time) (int64, error)
}

// PruneImportHistory returns a job deleting import runs older than retention.
func PruneImportHistory(db ImportHistoryPruner, retention time.Duration) JobFunc {
	return func(ctx context.Context) error {
		cutoff := time.Now().Add(-retention)
		n, err := db.PruneImportRuns(ctx, cutoff)
		if err != nil {
			return err
		}
		log.Info("Pruned import history", "deleted", n, "olderThan", humanize.Time(cutoff))
		return nil
	}
}
