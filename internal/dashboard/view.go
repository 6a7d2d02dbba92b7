package dashboard

import "github.com/samber/lo"

// View is a consistent read of a store: the raw state together with every
// derived view, computed under a single lock.
type View struct {
	State
	SelectedUser         *UserRecord  `json:"selectedUser"`
	UniqueGrades         []int        `json:"uniqueGrades"`
	GradeCounts          map[int]int  `json:"gradeCounts"`
	UsersBySelectedGrade []UserRecord `json:"usersBySelectedGrade"`
}

// View returns the current state and its derived views.
func (s *Store) View() View {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v := View{
		State: State{
			Users:          cloneUsers(s.state.Users),
			SelectedUserID: s.state.SelectedUserID,
			IsLoading:      s.state.IsLoading,
			ErrorMessage:   s.state.ErrorMessage,
		},
		UniqueGrades:         uniqueGrades(s.state.Users),
		GradeCounts:          gradeCounts(s.state.Users),
		UsersBySelectedGrade: usersByGrade(s.state.Users, s.state.SelectedGradeForChip),
	}
	if s.state.SelectedGradeForChip != nil {
		v.SelectedGradeForChip = lo.ToPtr(*s.state.SelectedGradeForChip)
	}
	if s.state.SelectedUserID != "" {
		if u, ok := lo.Find(s.state.Users, func(u UserRecord) bool { return u.ID == s.state.SelectedUserID }); ok {
			v.SelectedUser = &u
		}
	}
	return v
}
