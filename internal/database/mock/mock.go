package mock

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/jon4hz/gradeboard/internal/database"
	"gorm.io/gorm"
)

// MockDB is a mock implementation of database.DB for testing.
type MockDB struct {
	mu sync.RWMutex

	runs      map[uint]*database.ImportRun
	nextRunID uint

	// Error simulation
	StartImportRunError      error
	CompleteImportRunError   error
	GetImportRunHistoryError error
	GetImportStatsError      error
	PruneImportRunsError     error
}

var _ database.DB = (*MockDB)(nil)

// NewMockDB creates a new MockDB instance.
func NewMockDB() *MockDB {
	return &MockDB{
		runs:      make(map[uint]*database.ImportRun),
		nextRunID: 1,
	}
}

// Reset clears all data and errors from the mock database.
func (m *MockDB) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runs = make(map[uint]*database.ImportRun)
	m.nextRunID = 1

	m.StartImportRunError = nil
	m.CompleteImportRunError = nil
	m.GetImportRunHistoryError = nil
	m.GetImportStatsError = nil
	m.PruneImportRunsError = nil
}

// Runs returns a copy of all stored runs ordered by id.
func (m *MockDB) Runs() []database.ImportRun {
	m.mu.RLock()
	defer m.mu.RUnlock()

	runs := make([]database.ImportRun, 0, len(m.runs))
	for _, r := range m.runs {
		runs = append(runs, *r)
	}
	slices.SortFunc(runs, func(a, b database.ImportRun) int { return int(a.ID) - int(b.ID) })
	return runs
}

func (m *MockDB) StartImportRun(_ context.Context, sessionID, source, extractor string) (*database.ImportRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.StartImportRunError != nil {
		return nil, m.StartImportRunError
	}

	run := &database.ImportRun{
		Model:     gorm.Model{ID: m.nextRunID, CreatedAt: time.Now()},
		SessionID: sessionID,
		Source:    source,
		Extractor: extractor,
		Status:    database.ImportStatusRunning,
		StartedAt: time.Now(),
	}
	m.runs[run.ID] = run
	m.nextRunID++

	cp := *run
	return &cp, nil
}

func (m *MockDB) CompleteImportRun(_ context.Context, runID uint, records int, errorMessage string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.CompleteImportRunError != nil {
		return m.CompleteImportRunError
	}

	run, ok := m.runs[runID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	now := time.Now()
	run.Status = database.ImportStatusSucceeded
	if errorMessage != "" {
		run.Status = database.ImportStatusFailed
	}
	run.Records = records
	run.ErrorMessage = errorMessage
	run.FinishedAt = &now
	return nil
}

func (m *MockDB) GetImportRunHistory(_ context.Context, limit, offset int) ([]database.ImportRun, error) {
	if m.GetImportRunHistoryError != nil {
		return nil, m.GetImportRunHistoryError
	}

	runs := m.Runs()
	slices.Reverse(runs)
	if limit <= 0 {
		limit = 20
	}
	if offset >= len(runs) {
		return []database.ImportRun{}, nil
	}
	return runs[offset:min(offset+limit, len(runs))], nil
}

func (m *MockDB) GetImportStats(_ context.Context) (*database.ImportStats, error) {
	if m.GetImportStatsError != nil {
		return nil, m.GetImportStatsError
	}

	stats := &database.ImportStats{}
	for _, r := range m.Runs() {
		stats.TotalRuns++
		started := r.StartedAt
		switch r.Status {
		case database.ImportStatusSucceeded:
			stats.SucceededRuns++
			stats.TotalRecords += r.Records
			if stats.LastSuccessfulRun == nil || started.After(*stats.LastSuccessfulRun) {
				stats.LastSuccessfulRun = &started
			}
		case database.ImportStatusFailed:
			stats.FailedRuns++
			if stats.LastFailedRun == nil || started.After(*stats.LastFailedRun) {
				stats.LastFailedRun = &started
			}
		}
	}
	return stats, nil
}

func (m *MockDB) PruneImportRuns(_ context.Context, before time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.PruneImportRunsError != nil {
		return 0, m.PruneImportRunsError
	}

	var n int64
	for id, r := range m.runs {
		if r.StartedAt.Before(before) {
			delete(m.runs, id)
			n++
		}
	}
	return n, nil
}

func (m *MockDB) Close() error { return nil }
