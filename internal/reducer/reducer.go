package reducer

import (
	"fmt"
	"slices"

	"github.com/roach88/teamsplit/internal/dedup"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/partition"
)

// Reduce routes action to its reducer.
//
// Unknown action types and the TIME_TRAVEL / INTERNAL_ERROR pseudo-actions
// return s unchanged with a nil error. A payload of the wrong type for a known
// action is a ValidationError.
func Reduce(s ir.State, action ir.Action) (ir.State, error) {
	switch action.Type {
	case ir.ActionAddMember:
		p, ok := action.Payload.(ir.NamePayload)
		if !ok {
			return s, payloadError(action)
		}
		return AddMember(s, p.Name)

	case ir.ActionDeleteMember:
		p, ok := action.Payload.(ir.IndexPayload)
		if !ok {
			return s, payloadError(action)
		}
		return DeleteMember(s, p.Index)

	case ir.ActionEditMember:
		p, ok := action.Payload.(ir.EditPayload)
		if !ok {
			return s, payloadError(action)
		}
		return EditMember(s, p.Index, p.Name)

	case ir.ActionSetTotalMembers:
		p, ok := action.Payload.(ir.CountPayload)
		if !ok {
			return s, payloadError(action)
		}
		return SetTotalMembers(s, p.Count)

	case ir.ActionConfirmTotal:
		return ConfirmTotalMembers(s)

	case ir.ActionSetTeamCount:
		p, ok := action.Payload.(ir.CountPayload)
		if !ok {
			return s, payloadError(action)
		}
		return SetTeamCount(s, p.Count)

	case ir.ActionConfirmTeamCount:
		return ConfirmTeamCount(s)

	case ir.ActionResetState:
		return ResetState(s)

	case ir.ActionGenerateTeams:
		p, ok := action.Payload.(ir.GeneratePayload)
		if !ok {
			return s, payloadError(action)
		}
		return GenerateTeams(s, p.Seed, p.Strategy)

	case ir.ActionSetRoster:
		p, ok := action.Payload.(ir.RosterPayload)
		if !ok {
			return s, payloadError(action)
		}
		return SetRoster(s, p.Names)

	default:
		return s, nil
	}
}

func payloadError(action ir.Action) error {
	return ir.Reject("payload", "unexpected payload %T for %s", action.Payload, action.Type)
}

// AddMember parses raw in display form and appends it, disambiguated against
// current members. Rejected if blank or the roster is full (len(members) >= total).
func AddMember(s ir.State, raw string) (ir.State, error) {
	name := ir.ParseName(raw)
	if name.Base == "" {
		return s, ir.Reject("name", "blank name")
	}
	if len(s.Members) >= s.TotalMembers {
		return s, ir.Reject("members", "roster full (%d of %d)", len(s.Members), s.TotalMembers)
	}

	next := s.Clone()
	next.Members = dedup.AddName(s.Members, name)
	clearTeams(&next)
	return next, nil
}

// DeleteMember removes the member at index, then collapses a lone survivor
// of the same base name holding suffix 1 back to the bare base name.
func DeleteMember(s ir.State, index int) (ir.State, error) {
	if index < 0 || index >= len(s.Members) {
		return s, ir.Reject("index", "out of range: %d", index)
	}

	removed := s.Members[index]
	next := s.Clone()
	next.Members = slices.Delete(next.Members, index, index+1)
	next.Members = dedup.Collapse(next.Members, removed.Base)
	clearTeams(&next)
	return next, nil
}

// EditMember replaces the member at index with the parsed display form of raw.
// Rejected if the index is invalid, raw is blank, or the result equals a
// different existing member.
func EditMember(s ir.State, index int, raw string) (ir.State, error) {
	if index < 0 || index >= len(s.Members) {
		return s, ir.Reject("index", "out of range: %d", index)
	}
	name := ir.ParseName(raw)
	if name.Base == "" {
		return s, ir.Reject("name", "blank name")
	}
	for i, m := range s.Members {
		if i != index && m == name {
			return s, ir.Reject("name", "%s already exists at %d", name, i)
		}
	}
	if s.Members[index] == name {
		return s, nil
	}

	next := s.Clone()
	next.Members[index] = name
	clearTeams(&next)
	return next, nil
}

// SetTotalMembers sets the roster size and clears both confirmations.
// Rejected for negative counts or counts below the current member count.
func SetTotalMembers(s ir.State, count int) (ir.State, error) {
	if count < 0 {
		return s, ir.Reject("count", "negative total: %d", count)
	}
	if count < len(s.Members) {
		return s, ir.Reject("count", "total %d below member count %d", count, len(s.Members))
	}

	next := s.Clone()
	next.TotalMembers = count
	next.IsTotalConfirmed = false
	next.IsTeamCountConfirmed = false
	clearTeams(&next)
	return next, nil
}

// ConfirmTotalMembers locks the roster size. Rejected unless total > 0.
func ConfirmTotalMembers(s ir.State) (ir.State, error) {
	if s.TotalMembers <= 0 {
		return s, ir.Reject("total_members", "must be positive to confirm")
	}
	if s.IsTotalConfirmed {
		return s, nil
	}

	next := s.Clone()
	next.IsTotalConfirmed = true
	return next, nil
}

// SetTeamCount sets the requested number of teams and clears its confirmation.
func SetTeamCount(s ir.State, count int) (ir.State, error) {
	if count < 0 {
		return s, ir.Reject("count", "negative team count: %d", count)
	}

	next := s.Clone()
	next.TeamCount = count
	next.IsTeamCountConfirmed = false
	clearTeams(&next)
	return next, nil
}

// ConfirmTeamCount locks the team count. Rejected unless 1 <= teams <= total.
func ConfirmTeamCount(s ir.State) (ir.State, error) {
	if s.TeamCount < 1 || s.TeamCount > s.TotalMembers {
		return s, ir.Reject("team_count", "%d not within 1..%d", s.TeamCount, s.TotalMembers)
	}
	if s.IsTeamCountConfirmed {
		return s, nil
	}

	next := s.Clone()
	next.IsTeamCountConfirmed = true
	return next, nil
}

// ResetState replaces the entire state with defaults.
func ResetState(ir.State) (ir.State, error) {
	return ir.DefaultState(), nil
}

// GenerateTeams splits the roster into TeamCount teams.
// Requires a confirmed team count and a complete roster.
func GenerateTeams(s ir.State, seed int64, strategyName string) (ir.State, error) {
	if !s.IsTeamCountConfirmed {
		return s, ir.Reject("team_count", "not confirmed")
	}
	if !s.RosterComplete() {
		return s, ir.Reject("members", "roster incomplete (%d of %d)", len(s.Members), s.TotalMembers)
	}
	strategy, err := partition.ParseStrategy(strategyName)
	if err != nil {
		return s, ir.Reject("strategy", "%v", err)
	}

	groups, err := partition.Split(s.Members, s.TeamCount, strategy, partition.NewRand(seed))
	if err != nil {
		return s, ir.Reject("team_count", "%v", err)
	}

	next := s.Clone()
	next.Teams = make([]ir.Team, len(groups))
	for i, g := range groups {
		next.Teams[i] = ir.Team{Index: i, Members: slices.Clone(g)}
	}
	next.Seed = seed
	next.Strategy = string(strategy)
	return next, nil
}

// SetRoster adds each name in order with ADD_MEMBER semantics, skipping
// names that would be rejected. Rejected only if nothing was added.
func SetRoster(s ir.State, names []string) (ir.State, error) {
	next := s
	added := 0
	for _, raw := range names {
		updated, err := AddMember(next, raw)
		if err != nil {
			continue
		}
		next = updated
		added++
	}
	if added == 0 {
		return s, ir.Reject("names", "no names added (%d offered)", len(names))
	}
	return next, nil
}

func clearTeams(s *ir.State) {
	s.Teams = nil
	s.Seed = 0
	s.Strategy = ""
}

// Describe returns a short human-readable summary of an action for logs.
func Describe(action ir.Action) string {
	switch p := action.Payload.(type) {
	case ir.NamePayload:
		return fmt.Sprintf("%s(%q)", action.Type, p.Name)
	case ir.IndexPayload:
		return fmt.Sprintf("%s(%d)", action.Type, p.Index)
	case ir.EditPayload:
		return fmt.Sprintf("%s(%d, %q)", action.Type, p.Index, p.Name)
	case ir.CountPayload:
		return fmt.Sprintf("%s(%d)", action.Type, p.Count)
	case ir.GeneratePayload:
		return fmt.Sprintf("%s(seed=%d, %s)", action.Type, p.Seed, p.Strategy)
	case ir.RosterPayload:
		return fmt.Sprintf("%s(%d names)", action.Type, len(p.Names))
	case ir.InternalErrorPayload:
		return fmt.Sprintf("%s(%s)", action.Type, p.Original.Type)
	default:
		return string(action.Type)
	}
}
