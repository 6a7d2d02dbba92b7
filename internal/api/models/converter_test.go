package models

import (
	"testing"
	"time"

	"github.com/jon4hz/gradeboard/internal/dashboard"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToUserItem(t *testing.T) {
	item := ToUserItem(dashboard.UserRecord{
		ID:        "1",
		Name:      "Kim",
		Grade:     3,
		LastLogin: time.Now().Add(-2 * time.Hour),
		Intro:     "hi",
	})

	assert.Equal(t, "Kim", item.Name)
	assert.Equal(t, 3, item.Grade)
	assert.Equal(t, "2 hours ago", item.LastLoginRelative)
	assert.Empty(t, item.LastParticipationRelative, "unset dates have no relative time")
}

func TestToDashboardState(t *testing.T) {
	s := dashboard.New()
	s.SetUsers([]dashboard.UserRecord{{Name: "A", Grade: 3}, {Name: "B", Grade: 1}, {Name: "C", Grade: 3}})
	s.SetSelectedGradeForChip(lo.ToPtr(3))
	s.SetSelectedUser(s.UsersBySelectedGrade()[1].ID)

	state := ToDashboardState(s.View())

	assert.Len(t, state.Users, 3)
	assert.Equal(t, []int{1, 3}, state.UniqueGrades)
	assert.Equal(t, map[int]int{1: 1, 3: 2}, state.GradeCounts)
	require.Len(t, state.UsersBySelectedGrade, 2)
	require.NotNil(t, state.SelectedUser)
	assert.Equal(t, "C", state.SelectedUser.Name)
	assert.Equal(t, 3, *state.SelectedGradeForChip)
}

func TestToDashboardState_Empty(t *testing.T) {
	state := ToDashboardState(dashboard.New().View())

	assert.NotNil(t, state.Users)
	assert.Empty(t, state.Users)
	assert.Nil(t, state.SelectedUser)
	assert.Nil(t, state.SelectedGradeForChip)
}

func TestToImportRunItem(t *testing.T) {
	started := time.Now().Add(-time.Minute)
	finished := started.Add(1500 * time.Millisecond)

	item := ToImportRunItem(database.ImportRun{
		SessionID:  "s",
		Source:     "users.csv",
		Extractor:  "csv",
		Status:     database.ImportStatusSucceeded,
		Records:    4,
		StartedAt:  started,
		FinishedAt: &finished,
	})
	assert.Equal(t, "succeeded", item.Status)
	assert.Equal(t, "1.5s", item.Duration)
	assert.Equal(t, "a minute ago", item.StartedRelative)

	running := ToImportRunItem(database.ImportRun{Status: database.ImportStatusRunning, StartedAt: started})
	assert.Empty(t, running.Duration)
}

func TestToImportStatsItem(t *testing.T) {
	item := ToImportStatsItem(&database.ImportStats{TotalRuns: 2, TotalRecords: 12345})
	assert.Equal(t, "12,345", item.TotalRecordsHuman)
	assert.Equal(t, 2, item.TotalRuns)
}
