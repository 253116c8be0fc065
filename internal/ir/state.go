package ir

import "slices"

// State is the application state owned by the engine Store.
//
// INVARIANTS (checked after every dispatch, warn-only):
//   - IsTotalConfirmed implies TotalMembers > 0
//   - len(Members) <= TotalMembers
//   - IsTeamCountConfirmed implies 1 <= TeamCount <= TotalMembers
//   - no two Members are equal (same base and suffix)
//   - when Teams is non-empty: len(Teams) == TeamCount and the union of
//     team members equals Members
type State struct {
	Members              []Name `json:"members"`
	TotalMembers         int    `json:"total_members"`
	IsTotalConfirmed     bool   `json:"is_total_confirmed"`
	TeamCount            int    `json:"team_count"`
	IsTeamCountConfirmed bool   `json:"is_team_count_confirmed"`

	// Teams holds the last generated split; cleared by any roster change.
	Teams    []Team `json:"teams,omitempty"`
	Seed     int64  `json:"seed,omitempty"`
	Strategy string `json:"strategy,omitempty"`
}

// Team is one group of a generated split.
type Team struct {
	Index   int    `json:"index"`
	Members []Name `json:"members"`
}

// DefaultState returns the all-default state used at construction and reset.
func DefaultState() State {
	return State{Members: []Name{}}
}

// Clone returns a deep copy so callers can never alias the Store's slices.
func (s State) Clone() State {
	out := s
	out.Members = slices.Clone(s.Members)
	if out.Members == nil {
		out.Members = []Name{}
	}
	if s.Teams != nil {
		out.Teams = make([]Team, len(s.Teams))
		for i, t := range s.Teams {
			out.Teams[i] = Team{Index: t.Index, Members: slices.Clone(t.Members)}
		}
	}
	return out
}

// RosterComplete reports whether every confirmed slot has a member.
func (s State) RosterComplete() bool {
	return s.IsTotalConfirmed && len(s.Members) == s.TotalMembers
}
