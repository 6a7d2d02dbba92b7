package models

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jon4hz/gradeboard/internal/dashboard"
	"github.com/jon4hz/gradeboard/internal/database"
	"github.com/mergestat/timediff"
	"github.com/samber/lo"
)

// ToUserItem converts a dashboard.UserRecord to a UserItem.
func ToUserItem(u dashboard.UserRecord) UserItem {
	return UserItem{
		ID:                        u.ID,
		Name:                      u.Name,
		Grade:                     u.Grade,
		LastLogin:                 u.LastLogin,
		LastLoginRelative:         relative(u.LastLogin),
		LastParticipation:         u.LastParticipation,
		LastParticipationRelative: relative(u.LastParticipation),
		Intro:                     u.Intro,
	}
}

// ToUserItems converts a slice of dashboard.UserRecord to UserItems.
func ToUserItems(users []dashboard.UserRecord) []UserItem {
	return lo.Map(users, func(u dashboard.UserRecord, _ int) UserItem {
		return ToUserItem(u)
	})
}

// ToGradeSummary converts the grade views of a dashboard.
func ToGradeSummary(v dashboard.View) GradeSummary {
	return GradeSummary{
		UniqueGrades: v.UniqueGrades,
		GradeCounts:  v.GradeCounts,
	}
}

// ToDashboardState converts a dashboard.View to a DashboardState.
func ToDashboardState(v dashboard.View) DashboardState {
	state := DashboardState{
		Users:                ToUserItems(v.Users),
		SelectedGradeForChip: v.SelectedGradeForChip,
		IsLoading:            v.IsLoading,
		ErrorMessage:         v.ErrorMessage,
		GradeSummary:         ToGradeSummary(v),
		UsersBySelectedGrade: ToUserItems(v.UsersBySelectedGrade),
	}
	if v.SelectedUser != nil {
		state.SelectedUser = lo.ToPtr(ToUserItem(*v.SelectedUser))
	}
	return state
}

// ToImportRunItem converts a database.ImportRun to an ImportRunItem.
func ToImportRunItem(r database.ImportRun) ImportRunItem {
	item := ImportRunItem{
		ID:              r.ID,
		SessionID:       r.SessionID,
		Source:          r.Source,
		Extractor:       r.Extractor,
		Status:          string(r.Status),
		Records:         r.Records,
		ErrorMessage:    r.ErrorMessage,
		StartedAt:       r.StartedAt,
		StartedRelative: relative(r.StartedAt),
		FinishedAt:      r.FinishedAt,
	}
	if r.FinishedAt != nil {
		item.Duration = r.Duration().Round(time.Millisecond).String()
	}
	return item
}

// ToImportRunItems converts a slice of database.ImportRun to ImportRunItems.
func ToImportRunItems(runs []database.ImportRun) []ImportRunItem {
	return lo.Map(runs, func(r database.ImportRun, _ int) ImportRunItem {
		return ToImportRunItem(r)
	})
}

// ToImportStatsItem converts database.ImportStats to an ImportStatsItem.
func ToImportStatsItem(s *database.ImportStats) ImportStatsItem {
	return ImportStatsItem{
		TotalRuns:         s.TotalRuns,
		SucceededRuns:     s.SucceededRuns,
		FailedRuns:        s.FailedRuns,
		TotalRecords:      s.TotalRecords,
		TotalRecordsHuman: humanize.Comma(int64(s.TotalRecords)),
		LastSuccessfulRun: s.LastSuccessfulRun,
		LastFailedRun:     s.LastFailedRun,
	}
}

// relative formats t relative to now, empty for unset dates.
func relative(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return timediff.TimeDiff(t)
}
