package models

import "time"

// UserItem is a user record as shown on the dashboard.
type UserItem struct {
	ID                        string    `json:"id"`
	Name                      string    `json:"name"`
	Grade                     int       `json:"grade"`
	LastLogin                 time.Time `json:"lastLogin"`
	LastLoginRelative         string    `json:"lastLoginRelative,omitempty"`
	LastParticipation         time.Time `json:"lastParticipation"`
	LastParticipationRelative string    `json:"lastParticipationRelative,omitempty"`
	Intro                     string    `json:"intro"`
}

// GradeSummary lists the grades present and how many users have each.
type GradeSummary struct {
	UniqueGrades []int       `json:"uniqueGrades"`
	GradeCounts  map[int]int `json:"gradeCounts"`
}

// DashboardState is the full dashboard session with its derived views.
type DashboardState struct {
	Users                []UserItem `json:"users"`
	SelectedUser         *UserItem  `json:"selectedUser"`
	SelectedGradeForChip *int       `json:"selectedGradeForChip"`
	IsLoading            bool       `json:"isLoading"`
	ErrorMessage         string     `json:"errorMessage"`
	GradeSummary
	UsersBySelectedGrade []UserItem `json:"usersBySelectedGrade"`
}

// ImportRunItem is an entry of the import history.
type ImportRunItem struct {
	ID              uint       `json:"id"`
	SessionID       string     `json:"sessionId"`
	Source          string     `json:"source"`
	Extractor       string     `json:"extractor"`
	Status          string     `json:"status"`
	Records         int        `json:"records"`
	ErrorMessage    string     `json:"errorMessage,omitempty"`
	StartedAt       time.Time  `json:"startedAt"`
	StartedRelative string     `json:"startedRelative"`
	FinishedAt      *time.Time `json:"finishedAt,omitempty"`
	Duration        string     `json:"duration,omitempty"`
}

// ImportStatsItem summarizes the import history.
type ImportStatsItem struct {
	TotalRuns         int        `json:"totalRuns"`
	SucceededRuns     int        `json:"succeededRuns"`
	FailedRuns        int        `json:"failedRuns"`
	TotalRecords      int        `json:"totalRecords"`
	TotalRecordsHuman string     `json:"totalRecordsHuman"`
	LastSuccessfulRun *time.Time `json:"lastSuccessfulRun,omitempty"`
	LastFailedRun     *time.Time `json:"lastFailedRun,omitempty"`
}

// ImportResponse is returned after an upload was processed.
type ImportResponse struct {
	Success  bool           `json:"success"`
	Error    string         `json:"error,omitempty"`
	Source   string         `json:"source"`
	Size     string         `json:"size"`
	Records  int            `json:"records"`
	Duration string         `json:"duration"`
	State    DashboardState `json:"state"`
}
