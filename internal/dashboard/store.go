// Package dashboard holds the state of one grade dashboard session and the
// views derived from it.
package dashboard

import (
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

// UserRecord is a single imported user.
// ID is synthetic and assigned when the record is loaded into a store.
type UserRecord struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Grade             int       `json:"grade"`
	LastLogin         time.Time `json:"lastLogin"`
	LastParticipation time.Time `json:"lastParticipation"`
	Intro             string    `json:"intro"`
}

// State is the plain data behind a Store. It is what gets cached between
// requests of the same session.
type State struct {
	Users                []UserRecord `json:"users"`
	SelectedUserID       string       `json:"selectedUserId,omitempty"`
	SelectedGradeForChip *int         `json:"selectedGradeForChip,omitempty"`
	IsLoading            bool         `json:"isLoading"`
	ErrorMessage         string       `json:"errorMessage"`
}

// Store owns the user records of one dashboard session.
// All mutation goes through the action methods; derived views are computed on every read.
type Store struct {
	mu    sync.RWMutex
	state State
}

// New creates an empty store.
func New() *Store {
	return &Store{
		state: State{Users: []UserRecord{}},
	}
}

// Restore creates a store from a previously taken snapshot.
func Restore(state State) *Store {
	s := New()
	s.state.Users = cloneUsers(state.Users)
	s.state.SelectedUserID = state.SelectedUserID
	if state.SelectedGradeForChip != nil {
		s.state.SelectedGradeForChip = lo.ToPtr(*state.SelectedGradeForChip)
	}
	s.state.IsLoading = state.IsLoading
	s.state.ErrorMessage = state.ErrorMessage
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := State{
		Users:          cloneUsers(s.state.Users),
		SelectedUserID: s.state.SelectedUserID,
		IsLoading:      s.state.IsLoading,
		ErrorMessage:   s.state.ErrorMessage,
	}
	if s.state.SelectedGradeForChip != nil {
		snap.SelectedGradeForChip = lo.ToPtr(*s.state.SelectedGradeForChip)
	}
	return snap
}

// SetUsers replaces the user list and clears the error message.
// Records without an ID get a fresh one. Records are not validated.
func (s *Store) SetUsers(newUsers []UserRecord) {
	users := cloneUsers(newUsers)
	for i := range users {
		if users[i].ID == "" {
			users[i].ID = uuid.NewString()
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Users = users
	s.state.ErrorMessage = ""
}

// SetSelectedUser selects the record with the given ID. An empty ID clears the selection.
// The ID does not have to belong to a loaded record.
func (s *Store) SetSelectedUser(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.SelectedUserID = id
}

// SetSelectedGradeForChip sets the grade filter, nil unsets it.
// The selected user is always cleared.
func (s *Store) SetSelectedGradeForChip(grade *int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if grade == nil {
		s.state.SelectedGradeForChip = nil
	} else {
		s.state.SelectedGradeForChip = lo.ToPtr(*grade)
	}
	s.state.SelectedUserID = ""
}

// SetLoading sets the loading flag.
func (s *Store) SetLoading(status bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.IsLoading = status
}

// SetError sets the error message and drops all users.
func (s *Store) SetError(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.ErrorMessage = message
	s.state.Users = []UserRecord{}
}

// Users returns the loaded records in insertion order.
func (s *Store) Users() []UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneUsers(s.state.Users)
}

// SelectedUser returns the selected record. The second value is false when
// nothing is selected or the selected ID is not among the current users.
func (s *Store) SelectedUser() (UserRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.SelectedUserID == "" {
		return UserRecord{}, false
	}
	return lo.Find(s.state.Users, func(u UserRecord) bool {
		return u.ID == s.state.SelectedUserID
	})
}

// SelectedUserID returns the raw selection, which may be stale.
func (s *Store) SelectedUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.SelectedUserID
}

// SelectedGradeForChip returns the active grade filter, or nil.
func (s *Store) SelectedGradeForChip() *int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.SelectedGradeForChip == nil {
		return nil
	}
	return lo.ToPtr(*s.state.SelectedGradeForChip)
}

// IsLoading reports whether an import is in progress.
func (s *Store) IsLoading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.IsLoading
}

// ErrorMessage returns the last reported import failure, empty if none.
func (s *Store) ErrorMessage() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.ErrorMessage
}

// UniqueGrades returns the distinct grades of all users in ascending order.
func (s *Store) UniqueGrades() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return uniqueGrades(s.state.Users)
}

// GradeCounts returns the number of users per grade.
func (s *Store) GradeCounts() map[int]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return gradeCounts(s.state.Users)
}

// UsersBySelectedGrade returns the users matching the grade filter in
// insertion order, or all users when no filter is set.
func (s *Store) UsersBySelectedGrade() []UserRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return usersByGrade(s.state.Users, s.state.SelectedGradeForChip)
}

func uniqueGrades(users []UserRecord) []int {
	grades := lo.Uniq(lo.Map(users, func(u UserRecord, _ int) int {
		return u.Grade
	}))
	slices.Sort(grades)
	return grades
}

func gradeCounts(users []UserRecord) map[int]int {
	return lo.CountValuesBy(users, func(u UserRecord) int {
		return u.Grade
	})
}

func usersByGrade(users []UserRecord, grade *int) []UserRecord {
	if grade == nil {
		return cloneUsers(users)
	}
	return lo.Filter(users, func(u UserRecord, _ int) bool {
		return u.Grade == *grade
	})
}

func cloneUsers(users []UserRecord) []UserRecord {
	if users == nil {
		return []UserRecord{}
	}
	return slices.Clone(users)
}
