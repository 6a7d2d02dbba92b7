package database

import (
	"context"
	"errors"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/charmbracelet/log"
	"gorm.io/gorm"
)

// ImportStatus is the outcome of an import run.
type ImportStatus string

const (
	ImportStatusRunning   ImportStatus = "running"
	ImportStatusSucceeded ImportStatus = "succeeded"
	ImportStatusFailed    ImportStatus = "failed"
)

// ImportRun records one attempt to load users into a dashboard session.
// Only the outcome is kept, never the imported records themselves.
type ImportRun struct {
	gorm.Model
	SessionID    string       `gorm:"not null;index"`
	Source       string       `gorm:"not null"`
	Extractor    string       `gorm:"not null"`
	Status       ImportStatus `gorm:"not null;index"`
	Records      int
	ErrorMessage string
	StartedAt    time.Time `gorm:"not null;index"`
	FinishedAt   *time.Time
}

// Duration returns how long the run took, zero while it is still running.
func (r ImportRun) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ImportStats summarizes all recorded import runs.
type ImportStats struct {
	TotalRuns         int
	SucceededRuns     int
	FailedRuns        int
	TotalRecords      int
	LastSuccessfulRun *time.Time
	LastFailedRun     *time.Time
}

// ImportRunDB defines the interface for import history operations.
type ImportRunDB interface {
	StartImportRun(ctx context.Context, sessionID, source, extractor string) (*ImportRun, error)
	CompleteImportRun(ctx context.Context, runID uint, records int, errorMessage string) error
	GetImportRunHistory(ctx context.Context, limit, offset int) ([]ImportRun, error)
	GetImportStats(ctx context.Context) (*ImportStats, error)
	PruneImportRuns(ctx context.Context, before time.Time) (int64, error)
}

// StartImportRun records the start of an import.
func (c *Client) StartImportRun(ctx context.Context, sessionID, source, extractor string) (*ImportRun, error) {
	run := ImportRun{
		SessionID: sessionID,
		Source:    source,
		Extractor: extractor,
		Status:    ImportStatusRunning,
		StartedAt: time.Now(),
	}
	if err := c.db.WithContext(ctx).Create(&run).Error; err != nil {
		log.Error("failed to create import run", "error", err)
		return nil, err
	}
	return &run, nil
}

// CompleteImportRun marks a run as finished. A non-empty error message marks it failed.
func (c *Client) CompleteImportRun(ctx context.Context, runID uint, records int, errorMessage string) error {
	status := ImportStatusSucceeded
	if errorMessage != "" {
		status = ImportStatusFailed
	}
	result := c.db.WithContext(ctx).Model(&ImportRun{}).Where("id = ?", runID).Updates(map[string]any{
		"status":        status,
		"records":       records,
		"error_message": errorMessage,
		"finished_at":   time.Now(),
	})
	if result.Error != nil {
		log.Error("failed to complete import run", "run", runID, "error", result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// GetImportRunHistory returns import runs, newest first.
func (c *Client) GetImportRunHistory(ctx context.Context, limit, offset int) ([]ImportRun, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	var runs []ImportRun
	if err := c.db.WithContext(ctx).
		Order("started_at DESC").
		Order("id DESC").
		Limit(limit).
		Offset(offset).
		Find(&runs).Error; err != nil {
		log.Error("failed to get import run history", "error", err)
		return nil, err
	}
	return runs, nil
}

// GetImportStats aggregates all import runs.
func (c *Client) GetImportStats(ctx context.Context) (*ImportStats, error) {
	var rows []struct {
		Status  ImportStatus
		Runs    int64
		Records int64
	}
	if err := c.db.WithContext(ctx).
		Model(&ImportRun{}).
		Select("status, COUNT(*) AS runs, COALESCE(SUM(records), 0) AS records").
		Group("status").
		Scan(&rows).Error; err != nil {
		log.Error("failed to get import stats", "error", err)
		return nil, err
	}

	stats := &ImportStats{}
	for _, row := range rows {
		runs, err := safecast.ToInt(row.Runs)
		if err != nil {
			return nil, err
		}
		records, err := safecast.ToInt(row.Records)
		if err != nil {
			return nil, err
		}

		stats.TotalRuns += runs
		switch row.Status {
		case ImportStatusSucceeded:
			stats.SucceededRuns += runs
			stats.TotalRecords += records
		case ImportStatusFailed:
			stats.FailedRuns += runs
		}
	}

	var err error
	if stats.LastSuccessfulRun, err = c.lastRun(ctx, ImportStatusSucceeded); err != nil {
		return nil, err
	}
	if stats.LastFailedRun, err = c.lastRun(ctx, ImportStatusFailed); err != nil {
		return nil, err
	}
	return stats, nil
}

func (c *Client) lastRun(ctx context.Context, status ImportStatus) (*time.Time, error) {
	var run ImportRun
	err := c.db.WithContext(ctx).
		Where("status = ?", status).
		Order("started_at DESC").
		First(&run).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		log.Error("failed to get last import run", "status", status, "error", err)
		return nil, err
	}
	return &run.StartedAt, nil
}

// PruneImportRuns permanently deletes runs started before the given time.
func (c *Client) PruneImportRuns(ctx context.Context, before time.Time) (int64, error) {
	result := c.db.WithContext(ctx).
		Unscoped().
		Where("started_at < ?", before).
		Delete(&ImportRun{})
	if result.Error != nil {
		log.Error("failed to prune import runs", "error", result.Error)
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
