package engine_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/reducer"
	"github.com/roach88/teamsplit/internal/testutil"
)

// newTestStore builds a store with deterministic clocks and a captured log.
func newTestStore(t *testing.T, opts ...engine.Option) (*engine.Store, *testutil.LogSink) {
	t.Helper()
	logger, sink := testutil.NewLogger(t)
	base := []engine.Option{
		engine.WithLogger(logger),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithSessionGenerator(testutil.FixedSession("session-1")),
		engine.WithNow(testutil.NewSteppingTime().Now),
	}
	return engine.New(append(base, opts...)...), sink
}

// recorder is an innermost stage that records the actions reaching the reducer.
type recorder struct {
	seen []ir.ActionType
}

func (r *recorder) Handle(_ engine.API, action ir.Action, next engine.Next) error {
	r.seen = append(r.seen, action.Type)
	return next(action)
}

func dispatchAll(s *engine.Store, actions ...ir.Action) {
	for _, a := range actions {
		s.Dispatch(a)
	}
}

func TestStore_DefaultState(t *testing.T) {
	s, _ := newTestStore(t)
	assert.Equal(t, ir.DefaultState(), s.State())
	assert.Equal(t, "session-1", s.Session())
	assert.Equal(t, -1, s.HistoryPointer())
}

func TestStore_DefaultSessionIsUUIDv7(t *testing.T) {
	s := engine.New(engine.WithLogger(discardLogger()))
	parsed, err := uuid.Parse(s.Session())
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), parsed.Version())
}

func TestStore_TwoKimsAreNumbered(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s,
		ir.SetTotalMembers(2),
		ir.ConfirmTotalMembers(),
		ir.AddMember("Kim"),
		ir.AddMember("Kim"),
	)
	assert.Equal(t, []string{"Kim-1", "Kim-2"}, ir.DisplayNames(s.State().Members))
}

func TestStore_TeamCountAboveTotalStaysUnconfirmed(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s,
		ir.SetTotalMembers(3),
		ir.ConfirmTotalMembers(),
		ir.SetTeamCount(5),
		ir.ConfirmTeamCount(),
	)
	got := s.State()
	assert.Equal(t, 5, got.TeamCount)
	assert.False(t, got.IsTeamCountConfirmed)
}

func TestStore_DispatchReturnsAction(t *testing.T) {
	s, _ := newTestStore(t)
	a := ir.SetTotalMembers(4)
	assert.Equal(t, a, s.Dispatch(a))
}

func TestStore_UnknownActionLeavesStateUnchanged(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))
	before := s.State()

	s.Dispatch(ir.Action{Type: "NOT_A_REAL_ACTION"})

	if diff := cmp.Diff(before, s.State()); diff != "" {
		t.Fatalf("unknown action changed state (-want +got):\n%s", diff)
	}
}

func TestStore_RejectionIsSilentNoOp(t *testing.T) {
	s, sink := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(1), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))
	before := s.State()
	entries := len(s.History())

	s.Dispatch(ir.AddMember("Bo")) // roster full

	assert.Equal(t, before, s.State())
	assert.Len(t, s.History(), entries, "rejected actions are not recorded")

	rejected := sink.WithMessage(t, "action rejected")
	require.Len(t, rejected, 1)
	assert.Equal(t, "ADD_MEMBER", rejected[0]["action"])
	assert.Empty(t, sink.WithMessage(t, "dispatch failed"))
}

func TestStore_StateIsACopy(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))

	got := s.State()
	got.Members[0] = ir.NewName("Mallory")
	got.TotalMembers = 99

	assert.Equal(t, []string{"Ana"}, ir.DisplayNames(s.State().Members))
	assert.Equal(t, 2, s.State().TotalMembers)
}

func TestStore_GenerateTeamsAndSnapshot(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s,
		ir.SetTotalMembers(5),
		ir.ConfirmTotalMembers(),
		ir.SetRoster("A", "B", "C", "D", "E"),
		ir.SetTeamCount(2),
		ir.ConfirmTeamCount(),
		ir.GenerateTeams(7, "balanced"),
	)
	got := s.State()
	require.Len(t, got.Teams, 2)
	assert.Empty(t, engine.CheckInvariants(got))

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, "session-1", snap.Metadata.Session)
	assert.Equal(t, int64(7), snap.Metadata.Seed)
	assert.Equal(t, 5, snap.Metadata.MemberCount)
	assert.NotEmpty(t, snap.ID)
}

func TestStore_SnapshotWithoutTeamsFails(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Snapshot()
	var ve ir.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestStore_CustomMiddlewareRunsInsideBuiltins(t *testing.T) {
	rec := &recorder{}
	s, _ := newTestStore(t, engine.WithMiddleware(rec))

	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.TimeTravel(0))

	// TIME_TRAVEL is served by the history stage and never reaches inner stages.
	assert.Equal(t, []ir.ActionType{ir.ActionSetTotalMembers, ir.ActionConfirmTotal}, rec.seen)
}

func TestStore_PanicIsContained(t *testing.T) {
	rec := &recorder{}
	panicky := func(st ir.State, a ir.Action) (ir.State, error) {
		if a.Type == ir.ActionAddMember {
			panic("boom")
		}
		return reducer.Reduce(st, a)
	}
	s, sink := newTestStore(t, engine.WithReducer(panicky), engine.WithMiddleware(rec))
	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers())
	before := s.State()

	require.NotPanics(t, func() { s.Dispatch(ir.AddMember("Ana")) })

	assert.Equal(t, before, s.State())
	assert.Equal(t, []ir.ActionType{
		ir.ActionSetTotalMembers,
		ir.ActionConfirmTotal,
		ir.ActionAddMember,
		ir.ActionInternalError,
	}, rec.seen)

	failed := sink.WithMessage(t, "dispatch failed")
	require.Len(t, failed, 1)
	assert.Equal(t, "ERROR", failed[0].Level())
	assert.Equal(t, string(engine.ErrCodePanic), failed[0]["code"])
	assert.Contains(t, failed[0]["error"], "boom")
}

func TestStore_StageErrorBecomesInternalError(t *testing.T) {
	var internal []ir.Action
	failing := engine.MiddlewareFunc(func(_ engine.API, a ir.Action, next engine.Next) error {
		switch a.Type {
		case ir.ActionResetState:
			return errors.New("disk on fire")
		case ir.ActionInternalError:
			internal = append(internal, a)
		}
		return next(a)
	})
	s, _ := newTestStore(t, engine.WithMiddleware(failing))

	s.Dispatch(ir.ResetState())

	require.Len(t, internal, 1)
	p, ok := internal[0].Payload.(ir.InternalErrorPayload)
	require.True(t, ok)
	assert.Contains(t, p.Detail, "disk on fire")
	assert.Equal(t, ir.ActionResetState, p.Original.Type)
	assert.Empty(t, s.History(), "failed actions are not recorded")
}

func TestStore_FailingInternalErrorDoesNotLoop(t *testing.T) {
	calls := 0
	failing := engine.MiddlewareFunc(func(_ engine.API, a ir.Action, next engine.Next) error {
		calls++
		return errors.New("always")
	})
	s, sink := newTestStore(t, engine.WithMiddleware(failing))

	s.Dispatch(ir.ResetState())

	assert.Equal(t, 2, calls, "original action plus one INTERNAL_ERROR")
	assert.Len(t, sink.WithMessage(t, "dispatch failed"), 2)
}

func TestStore_InvariantViolationIsWarnOnly(t *testing.T) {
	corrupt := func(st ir.State, a ir.Action) (ir.State, error) {
		if a.Type != ir.ActionAddMember {
			return reducer.Reduce(st, a)
		}
		next := st.Clone()
		next.Members = append(next.Members, ir.NewName("Twin"), ir.NewName("Twin"))
		return next, nil
	}
	s, sink := newTestStore(t, engine.WithReducer(corrupt))
	dispatchAll(s, ir.SetTotalMembers(1), ir.ConfirmTotalMembers())

	s.Dispatch(ir.AddMember("ignored"))

	assert.Len(t, s.State().Members, 2, "violations never roll back")
	warned := sink.WithMessage(t, "invariant violated")
	var names []string
	for _, r := range warned {
		assert.Equal(t, "WARN", r.Level())
		names = append(names, r["invariant"].(string))
	}
	assert.ElementsMatch(t, []string{engine.InvariantMembersInTotal, engine.InvariantUniqueMembers}, names)
}

func TestStore_LoggingStageRecordsChange(t *testing.T) {
	s, sink := newTestStore(t)
	s.Dispatch(ir.SetTotalMembers(3))
	s.Dispatch(ir.Action{Type: "NOPE"})

	done := sink.WithMessage(t, "dispatched")
	require.Len(t, done, 2)
	assert.Equal(t, true, done[0]["changed"])
	assert.Equal(t, false, done[1]["changed"])
}
