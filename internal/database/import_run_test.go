package database

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type ImportRunTestSuite struct {
	suite.Suite
	client *Client
	ctx    context.Context
}

func (s *ImportRunTestSuite) SetupTest() {
	client, err := New(filepath.Join(s.T().TempDir(), "data", "test.db"))
	s.Require().NoError(err)
	s.client = client
	s.ctx = context.Background()
}

func (s *ImportRunTestSuite) TearDownTest() {
	s.Require().NoError(s.client.Close())
}

func (s *ImportRunTestSuite) TestStartAndComplete() {
	run, err := s.client.StartImportRun(s.ctx, "session-1", "users.csv", "csv")
	s.Require().NoError(err)
	s.NotZero(run.ID)
	s.Equal(ImportStatusRunning, run.Status)
	s.Zero(run.Duration())

	s.Require().NoError(s.client.CompleteImportRun(s.ctx, run.ID, 12, ""))

	runs, err := s.client.GetImportRunHistory(s.ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(ImportStatusSucceeded, runs[0].Status)
	s.Equal(12, runs[0].Records)
	s.Equal("users.csv", runs[0].Source)
	s.Require().NotNil(runs[0].FinishedAt)
	s.GreaterOrEqual(runs[0].Duration(), time.Duration(0))
}

func (s *ImportRunTestSuite) TestCompleteWithError() {
	run, err := s.client.StartImportRun(s.ctx, "session-1", "users.json", "json")
	s.Require().NoError(err)
	s.Require().NoError(s.client.CompleteImportRun(s.ctx, run.ID, 0, "record 2: invalid grade"))

	runs, err := s.client.GetImportRunHistory(s.ctx, 10, 0)
	s.Require().NoError(err)
	s.Require().Len(runs, 1)
	s.Equal(ImportStatusFailed, runs[0].Status)
	s.Equal("record 2: invalid grade", runs[0].ErrorMessage)
}

func (s *ImportRunTestSuite) TestCompleteUnknownRun() {
	err := s.client.CompleteImportRun(s.ctx, 999, 0, "")
	s.ErrorIs(err, gorm.ErrRecordNotFound)
}

func (s *ImportRunTestSuite) TestHistoryPagination() {
	for range 5 {
		_, err := s.client.StartImportRun(s.ctx, "session-1", "users.csv", "csv")
		s.Require().NoError(err)
	}

	first, err := s.client.GetImportRunHistory(s.ctx, 2, 0)
	s.Require().NoError(err)
	s.Len(first, 2)

	last, err := s.client.GetImportRunHistory(s.ctx, 2, 4)
	s.Require().NoError(err)
	s.Len(last, 1)

	s.Greater(first[0].ID, first[1].ID, "newest first")
	s.Greater(first[1].ID, last[0].ID)
}

func (s *ImportRunTestSuite) TestStats() {
	stats, err := s.client.GetImportStats(s.ctx)
	s.Require().NoError(err)
	s.Zero(stats.TotalRuns)
	s.Nil(stats.LastSuccessfulRun)

	ok1, _ := s.client.StartImportRun(s.ctx, "a", "a.csv", "csv")
	ok2, _ := s.client.StartImportRun(s.ctx, "b", "b.csv", "csv")
	bad, _ := s.client.StartImportRun(s.ctx, "c", "c.json", "json")
	_, _ = s.client.StartImportRun(s.ctx, "d", "d.json", "json")
	s.Require().NoError(s.client.CompleteImportRun(s.ctx, ok1.ID, 3, ""))
	s.Require().NoError(s.client.CompleteImportRun(s.ctx, ok2.ID, 4, ""))
	s.Require().NoError(s.client.CompleteImportRun(s.ctx, bad.ID, 0, "broken"))

	stats, err = s.client.GetImportStats(s.ctx)
	s.Require().NoError(err)
	s.Equal(4, stats.TotalRuns)
	s.Equal(2, stats.SucceededRuns)
	s.Equal(1, stats.FailedRuns)
	s.Equal(7, stats.TotalRecords)
	s.NotNil(stats.LastSuccessfulRun)
	s.NotNil(stats.LastFailedRun)
}

func (s *ImportRunTestSuite) TestPrune() {
	_, err := s.client.StartImportRun(s.ctx, "a", "a.csv", "csv")
	s.Require().NoError(err)

	n, err := s.client.PruneImportRuns(s.ctx, time.Now().Add(-time.Hour))
	s.Require().NoError(err)
	s.Zero(n)

	n, err = s.client.PruneImportRuns(s.ctx, time.Now().Add(time.Second))
	s.Require().NoError(err)
	s.Equal(int64(1), n)

	runs, err := s.client.GetImportRunHistory(s.ctx, 10, 0)
	s.Require().NoError(err)
	s.Empty(runs)
}

func TestImportRunTestSuite(t *testing.T) {
	suite.Run(t, new(ImportRunTestSuite))
}
