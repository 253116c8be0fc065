package engine

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/roach88/teamsplit/internal/history"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/reducer"
)

// LoggingStage records every action with the state before and after it.
// It has no effect on state.
type LoggingStage struct {
	Logger *slog.Logger
}

// Handle implements Middleware.
func (l LoggingStage) Handle(api API, action ir.Action, next Next) error {
	before := api.State()
	l.Logger.Debug("dispatch",
		"action", reducer.Describe(action),
		"members", len(before.Members),
		"total", before.TotalMembers,
		"team_count", before.TeamCount,
	)

	err := next(action)

	after := api.State()
	l.Logger.Debug("dispatched",
		"action", action.Type,
		"changed", !cmp.Equal(before, after),
		"members", len(after.Members),
		"teams", len(after.Teams),
	)
	return err
}

// ContainStage stops failures from crossing Dispatch.
//
// Rejections (ir.ValidationError) are logged at debug and dropped. Any other
// error or panic is logged and re-dispatched as INTERNAL_ERROR carrying the
// failing action. A failing INTERNAL_ERROR is only logged, so containment
// never loops.
type ContainStage struct {
	Logger *slog.Logger
}

// Handle implements Middleware.
func (c ContainStage) Handle(api API, action ir.Action, next Next) error {
	err := callContained(next, action)
	if err == nil {
		return nil
	}

	var ve ir.ValidationError
	if errors.As(err, &ve) {
		c.Logger.Debug("action rejected",
			"action", action.Type,
			"field", ve.Field,
			"reason", ve.Message,
		)
		return nil
	}

	var ie *InternalError
	if !errors.As(err, &ie) {
		ie = &InternalError{Code: ErrCodeInternal, Action: action.Type, Detail: err.Error(), Cause: err}
	}
	c.Logger.Error("dispatch failed",
		"action", action.Type,
		"code", ie.Code,
		"error", ie.Detail,
	)

	if action.Type != ir.ActionInternalError {
		api.Dispatch(ir.InternalError(ie.Detail, action))
	}
	return nil
}

func callContained(next Next, action ir.Action) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = newPanicError(action.Type, r)
		}
	}()
	return next(action)
}

// HistoryStage records state-changing actions in the history buffer and
// serves TIME_TRAVEL from it. An accepted action that leaves the state equal
// to what it was (unknown types, re-confirms, same-value edits) is not
// recorded.
//
// TIME_TRAVEL never reaches the reducer and is never recorded. An index
// outside the retained range is a rejection. INTERNAL_ERROR is passed through
// without being recorded.
type HistoryStage struct {
	Buffer *history.Buffer
	Clock  Sequencer
	Now    func() time.Time
}

// Handle implements Middleware.
func (h HistoryStage) Handle(api API, action ir.Action, next Next) error {
	switch action.Type {
	case ir.ActionTimeTravel:
		p, ok := action.Payload.(ir.IndexPayload)
		if !ok {
			return ir.Reject("payload", "TIME_TRAVEL requires an index payload")
		}
		entry, err := h.Buffer.Travel(p.Index)
		if err != nil {
			return ir.Reject("index", "%v", err)
		}
		api.replace(entry.State)
		return nil

	case ir.ActionInternalError:
		return next(action)
	}

	before := api.State()
	if err := next(action); err != nil {
		return err
	}
	after := api.State()
	if cmp.Equal(before, after, cmpopts.EquateEmpty()) {
		return nil
	}

	h.Buffer.Append(history.Entry{
		Seq:       h.Clock.Next(),
		Action:    action,
		State:     after,
		Timestamp: h.Now(),
	})
	return nil
}

// InvariantStage checks the state after the reducer and logs every
// violation at warn. It never rolls back.
type InvariantStage struct {
	Logger *slog.Logger
}

// Handle implements Middleware.
func (i InvariantStage) Handle(api API, action ir.Action, next Next) error {
	if err := next(action); err != nil {
		return err
	}
	for _, v := range CheckInvariants(api.State()) {
		i.Logger.Warn("invariant violated",
			"action", action.Type,
			"invariant", v.Invariant,
			"detail", v.Message,
		)
	}
	return nil
}

// CheckInvariants returns every state invariant that does not hold on s.
func CheckInvariants(s ir.State) []InvariantViolation {
	var out []InvariantViolation
	add := func(name, format string, args ...any) {
		out = append(out, InvariantViolation{Invariant: name, Message: fmt.Sprintf(format, args...)})
	}

	if s.IsTotalConfirmed && s.TotalMembers <= 0 {
		add(InvariantTotalPositive, "total confirmed at %d", s.TotalMembers)
	}
	if len(s.Members) > s.TotalMembers {
		add(InvariantMembersInTotal, "%d members exceed total %d", len(s.Members), s.TotalMembers)
	}
	if s.IsTeamCountConfirmed && (s.TeamCount < 1 || s.TeamCount > s.TotalMembers) {
		add(InvariantTeamCountRange, "team count %d outside [1, %d]", s.TeamCount, s.TotalMembers)
	}

	seen := make(map[string]struct{}, len(s.Members))
	for _, m := range s.Members {
		key := m.String()
		if _, dup := seen[key]; dup {
			add(InvariantUniqueMembers, "duplicate member %q", key)
			continue
		}
		seen[key] = struct{}{}
	}

	if len(s.Teams) > 0 {
		checkTeams(s, seen, add)
	}
	return out
}

func checkTeams(s ir.State, roster map[string]struct{}, add func(string, string, ...any)) {
	if len(s.Teams) != s.TeamCount {
		add(InvariantTeamsCoverage, "%d teams for team count %d", len(s.Teams), s.TeamCount)
	}
	placed := 0
	for _, team := range s.Teams {
		for _, m := range team.Members {
			if _, ok := roster[m.String()]; !ok {
				add(InvariantTeamsCoverage, "team %d holds %q not on the roster", team.Index, m.String())
			}
			placed++
		}
	}
	if placed != len(s.Members) {
		add(InvariantTeamsCoverage, "%d placed for %d members", placed, len(s.Members))
	}
}
