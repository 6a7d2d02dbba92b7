package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/jon4hz/gradeboard/internal/database/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Stop() })
	return s
}

func TestAddJob_Duplicate(t *testing.T) {
	s := newTestScheduler(t)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddCronJob("job", "Job", "", "0 3 * * *", noop))
	assert.Error(t, s.AddCronJob("job", "Job", "", "0 3 * * *", noop))
}

func TestAddCronJob_InvalidSchedule(t *testing.T) {
	s := newTestScheduler(t)
	err := s.AddCronJob("job", "Job", "", "not a cron", func(context.Context) error { return nil })
	assert.Error(t, err)
}

func TestRunJobNow_TracksStatus(t *testing.T) {
	s := newTestScheduler(t)

	var calls atomic.Int32
	boom := errors.New("boom")
	require.NoError(t, s.AddJob("ok", "OK", "", "hourly", gocron.DurationJob(time.Hour), func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, s.AddJob("fail", "Fail", "", "hourly", gocron.DurationJob(time.Hour), func(context.Context) error {
		return boom
	}))
	s.Start()

	require.NoError(t, s.RunJobNow("ok"))
	require.NoError(t, s.RunJobNow("fail"))

	assert.Eventually(t, func() bool {
		job, _ := s.GetJob("ok")
		return job.Status == JobStatusCompleted && job.RunCount >= 1
	}, time.Second, 10*time.Millisecond)
	assert.Eventually(t, func() bool {
		job, _ := s.GetJob("fail")
		return job.Status == JobStatusFailed && job.LastError == "boom" && job.ErrorCount >= 1
	}, time.Second, 10*time.Millisecond)
	assert.GreaterOrEqual(t, calls.Load(), int32(1))
	assert.Len(t, s.GetJobs(), 2)
}

func TestRunJobNow_Unknown(t *testing.T) {
	s := newTestScheduler(t)
	assert.Error(t, s.RunJobNow("missing"))
	assert.Error(t, s.DisableJob("missing"))
}

func TestDisabledJobSkips(t *testing.T) {
	s := newTestScheduler(t)

	var calls atomic.Int32
	require.NoError(t, s.AddJob("job", "Job", "", "hourly", gocron.DurationJob(time.Hour), func(context.Context) error {
		calls.Add(1)
		return nil
	}))
	require.NoError(t, s.DisableJob("job"))
	s.Start()
	require.NoError(t, s.RunJobNow("job"))

	time.Sleep(100 * time.Millisecond)
	assert.Zero(t, calls.Load())
	job, ok := s.GetJob("job")
	require.True(t, ok)
	assert.False(t, job.Enabled)
	assert.Equal(t, JobStatusScheduled, job.Status)

	require.NoError(t, s.EnableJob("job"))
	require.NoError(t, s.RunJobNow("job"))
	assert.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestPruneImportHistory(t *testing.T) {
	db := mock.NewMockDB()
	ctx := context.Background()

	_, err := db.StartImportRun(ctx, "a", "a.csv", "csv")
	require.NoError(t, err)

	job := PruneImportHistory(db, time.Hour)
	require.NoError(t, job(ctx))
	assert.Len(t, db.Runs(), 1, "recent runs are kept")

	require.NoError(t, PruneImportHistory(db, -time.Second)(ctx))
	assert.Empty(t, db.Runs())

	db.PruneImportRunsError = errors.New("locked")
	assert.Error(t, PruneImportHistory(db, 0)(ctx))

	var _ ImportHistoryPruner = (database.DB)(nil)
}
