package ir

import (
	"encoding/json"
	"fmt"
	"slices"
)

// ActionType tags an Action.
type ActionType string

// Action vocabulary. TIME_TRAVEL and INTERNAL_ERROR are pseudo-actions
// handled by middleware; reducers treat them as no-ops.
const (
	ActionAddMember        ActionType = "ADD_MEMBER"
	ActionDeleteMember     ActionType = "DELETE_MEMBER"
	ActionEditMember       ActionType = "EDIT_MEMBER"
	ActionSetTotalMembers  ActionType = "SET_TOTAL_MEMBERS"
	ActionConfirmTotal     ActionType = "CONFIRM_TOTAL_MEMBERS"
	ActionSetTeamCount     ActionType = "SET_TEAM_COUNT"
	ActionConfirmTeamCount ActionType = "CONFIRM_TEAM_COUNT"
	ActionResetState       ActionType = "RESET_STATE"
	ActionTimeTravel       ActionType = "TIME_TRAVEL"
	ActionGenerateTeams    ActionType = "GENERATE_TEAMS"
	ActionSetRoster        ActionType = "SET_ROSTER"
	ActionInternalError    ActionType = "INTERNAL_ERROR"
)

// PublicActionTypes lists the action types external callers may dispatch.
var PublicActionTypes = []ActionType{
	ActionAddMember,
	ActionDeleteMember,
	ActionEditMember,
	ActionSetTotalMembers,
	ActionConfirmTotal,
	ActionSetTeamCount,
	ActionConfirmTeamCount,
	ActionResetState,
	ActionTimeTravel,
	ActionGenerateTeams,
	ActionSetRoster,
}

// Payload is a sealed interface implemented by the typed action payloads.
type Payload interface {
	payload()
}

// NamePayload carries a raw member name (ADD_MEMBER).
type NamePayload struct {
	Name string `json:"name"`
}

// IndexPayload carries a member index (DELETE_MEMBER) or a history index (TIME_TRAVEL).
type IndexPayload struct {
	Index int `json:"index"`
}

// EditPayload carries the target index and replacement name (EDIT_MEMBER).
type EditPayload struct {
	Index int    `json:"index"`
	Name  string `json:"name"`
}

// CountPayload carries a count (SET_TOTAL_MEMBERS, SET_TEAM_COUNT).
type CountPayload struct {
	Count int `json:"count"`
}

// GeneratePayload carries the random seed and strategy for GENERATE_TEAMS.
// The seed travels in the action so the reducer stays pure.
type GeneratePayload struct {
	Seed     int64  `json:"seed"`
	Strategy string `json:"strategy,omitempty"`
}

// RosterPayload carries raw names for SET_ROSTER.
type RosterPayload struct {
	Names []string `json:"names"`
}

// InternalErrorPayload describes a contained failure.
type InternalErrorPayload struct {
	Detail   string `json:"detail"`
	Original Action `json:"original"`
}

func (NamePayload) payload()          {}
func (IndexPayload) payload()         {}
func (EditPayload) payload()          {}
func (CountPayload) payload()         {}
func (GeneratePayload) payload()      {}
func (RosterPayload) payload()        {}
func (InternalErrorPayload) payload() {}

// Action is a tagged request for a state change. Payload is nil for
// actions without arguments.
type Action struct {
	Type    ActionType `json:"type"`
	Payload Payload    `json:"payload,omitempty"`
}

// AddMember creates an ADD_MEMBER action.
func AddMember(name string) Action {
	return Action{Type: ActionAddMember, Payload: NamePayload{Name: name}}
}

// DeleteMember creates a DELETE_MEMBER action.
func DeleteMember(index int) Action {
	return Action{Type: ActionDeleteMember, Payload: IndexPayload{Index: index}}
}

// EditMember creates an EDIT_MEMBER action.
func EditMember(index int, name string) Action {
	return Action{Type: ActionEditMember, Payload: EditPayload{Index: index, Name: name}}
}

// SetTotalMembers creates a SET_TOTAL_MEMBERS action.
func SetTotalMembers(count int) Action {
	return Action{Type: ActionSetTotalMembers, Payload: CountPayload{Count: count}}
}

// ConfirmTotalMembers creates a CONFIRM_TOTAL_MEMBERS action.
func ConfirmTotalMembers() Action {
	return Action{Type: ActionConfirmTotal}
}

// SetTeamCount creates a SET_TEAM_COUNT action.
func SetTeamCount(count int) Action {
	return Action{Type: ActionSetTeamCount, Payload: CountPayload{Count: count}}
}

// ConfirmTeamCount creates a CONFIRM_TEAM_COUNT action.
func ConfirmTeamCount() Action {
	return Action{Type: ActionConfirmTeamCount}
}

// ResetState creates a RESET_STATE action.
func ResetState() Action {
	return Action{Type: ActionResetState}
}

// TimeTravel creates a TIME_TRAVEL action targeting a history index.
func TimeTravel(index int) Action {
	return Action{Type: ActionTimeTravel, Payload: IndexPayload{Index: index}}
}

// GenerateTeams creates a GENERATE_TEAMS action.
func GenerateTeams(seed int64, strategy string) Action {
	return Action{Type: ActionGenerateTeams, Payload: GeneratePayload{Seed: seed, Strategy: strategy}}
}

// SetRoster creates a SET_ROSTER action. The names slice is copied.
func SetRoster(names ...string) Action {
	return Action{Type: ActionSetRoster, Payload: RosterPayload{Names: slices.Clone(names)}}
}

// InternalError creates the INTERNAL_ERROR pseudo-action.
func InternalError(detail string, original Action) Action {
	return Action{Type: ActionInternalError, Payload: InternalErrorPayload{Detail: detail, Original: original}}
}

// IsPublic reports whether t may be dispatched by external callers.
func (t ActionType) IsPublic() bool {
	return slices.Contains(PublicActionTypes, t)
}

// UnmarshalJSON decodes {"type": ..., "payload": {...}} into the typed payload
// for the action type. Unknown types decode with a nil payload.
func (a *Action) UnmarshalJSON(data []byte) error {
	var env struct {
		Type    ActionType      `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	p, err := DecodePayload(env.Type, env.Payload)
	if err != nil {
		return err
	}
	a.Type = env.Type
	a.Payload = p
	return nil
}

// DecodePayload decodes raw JSON into the payload type for t.
// Empty raw input yields the zero payload for types that take one.
func DecodePayload(t ActionType, raw json.RawMessage) (Payload, error) {
	var target Payload
	switch t {
	case ActionAddMember:
		target = &NamePayload{}
	case ActionDeleteMember, ActionTimeTravel:
		target = &IndexPayload{}
	case ActionEditMember:
		target = &EditPayload{}
	case ActionSetTotalMembers, ActionSetTeamCount:
		target = &CountPayload{}
	case ActionGenerateTeams:
		target = &GeneratePayload{}
	case ActionSetRoster:
		target = &RosterPayload{}
	case ActionInternalError:
		target = &InternalErrorPayload{}
	default:
		return nil, nil
	}

	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, target); err != nil {
			return nil, fmt.Errorf("decode %s payload: %w", t, err)
		}
	}

	switch p := target.(type) {
	case *NamePayload:
		return *p, nil
	case *IndexPayload:
		return *p, nil
	case *EditPayload:
		return *p, nil
	case *CountPayload:
		return *p, nil
	case *GeneratePayload:
		return *p, nil
	case *RosterPayload:
		return *p, nil
	case *InternalErrorPayload:
		return *p, nil
	}
	return nil, nil
}

// ValidationError represents rejected reducer input with field path and message.
// Reducers return it to signal a silent no-op.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Reject builds a ValidationError.
func Reject(field, format string, args ...any) ValidationError {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
