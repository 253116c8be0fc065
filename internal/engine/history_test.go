package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/testutil"
)

func TestHistory_RecordsStateChanges(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))

	entries := s.History()
	require.Len(t, entries, 3)
	assert.Equal(t, 2, s.HistoryPointer())

	for i, e := range entries {
		assert.Equal(t, int64(i+1), e.Seq)
	}
	assert.Equal(t, testutil.Epoch, entries[0].Timestamp)
	assert.Equal(t, ir.ActionAddMember, entries[2].Action.Type)
	assert.Equal(t, s.State(), entries[2].State)
}

func TestHistory_SkipsActionsThatChangeNothing(t *testing.T) {
	s, sink := newTestStore(t)
	s.Dispatch(ir.ResetState())
	require.Empty(t, s.History())

	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))
	require.Len(t, s.History(), 3)

	dispatchAll(s,
		ir.ConfirmTotalMembers(),
		ir.Action{Type: "SHUFFLE"},
		ir.EditMember(0, "Ana"),
	)

	assert.Len(t, s.History(), 3)
	assert.Equal(t, 2, s.HistoryPointer())
	assert.Empty(t, sink.WithMessage(t, "action rejected"))

	require.True(t, s.Undo())
	assert.Empty(t, s.State().Members)
}

func TestHistory_TimeTravelRestoresWithoutAppending(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(2), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))

	s.Dispatch(ir.TimeTravel(0))

	got := s.State()
	assert.Equal(t, 2, got.TotalMembers)
	assert.False(t, got.IsTotalConfirmed)
	assert.Empty(t, got.Members)
	assert.Len(t, s.History(), 3)
	assert.Equal(t, 0, s.HistoryPointer())
}

func TestHistory_DispatchAfterTravelDiscardsFuture(t *testing.T) {
	for k := 0; k < 4; k++ {
		s, _ := newTestStore(t)
		dispatchAll(s,
			ir.SetTotalMembers(3),
			ir.ConfirmTotalMembers(),
			ir.AddMember("A"),
			ir.AddMember("B"),
		)

		s.Dispatch(ir.TimeTravel(k))
		s.Dispatch(ir.SetTeamCount(1))

		entries := s.History()
		require.Len(t, entries, k+2, "travel to %d", k)
		assert.Equal(t, ir.ActionSetTeamCount, entries[k+1].Action.Type)
		assert.Equal(t, k+1, s.HistoryPointer())
	}
}

func TestHistory_TimeTravelOutOfRangeIsNoOp(t *testing.T) {
	s, sink := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(2))
	before := s.State()

	s.Dispatch(ir.TimeTravel(5))
	s.Dispatch(ir.TimeTravel(-1))
	s.Dispatch(ir.Action{Type: ir.ActionTimeTravel})

	assert.Equal(t, before, s.State())
	assert.Equal(t, 0, s.HistoryPointer())
	assert.Len(t, sink.WithMessage(t, "action rejected"), 3)
}

func TestHistory_EvictsOldest(t *testing.T) {
	s, _ := newTestStore(t, engine.WithHistoryCapacity(3))
	for i := 1; i <= 5; i++ {
		s.Dispatch(ir.SetTotalMembers(i))
	}

	entries := s.History()
	require.Len(t, entries, 3)
	assert.Equal(t, []int64{3, 4, 5}, []int64{entries[0].Seq, entries[1].Seq, entries[2].Seq})
	assert.Equal(t, 3, entries[0].State.TotalMembers)
}

func TestHistory_UndoRedo(t *testing.T) {
	s, _ := newTestStore(t)
	assert.False(t, s.Undo())
	assert.False(t, s.Redo())

	dispatchAll(s, ir.SetTotalMembers(1), ir.SetTotalMembers(2), ir.SetTotalMembers(3))

	require.True(t, s.Undo())
	assert.Equal(t, 2, s.State().TotalMembers)
	require.True(t, s.Undo())
	assert.Equal(t, 1, s.State().TotalMembers)
	assert.False(t, s.Undo())

	require.True(t, s.Redo())
	assert.Equal(t, 2, s.State().TotalMembers)
	require.True(t, s.Redo())
	assert.False(t, s.Redo())
	assert.Equal(t, 3, s.State().TotalMembers)
}

func TestHistory_EntriesAreCopies(t *testing.T) {
	s, _ := newTestStore(t)
	dispatchAll(s, ir.SetTotalMembers(1), ir.ConfirmTotalMembers(), ir.AddMember("Ana"))

	entries := s.History()
	entries[2].State.Members[0] = ir.NewName("Mallory")

	s.Dispatch(ir.TimeTravel(2))
	assert.Equal(t, []string{"Ana"}, ir.DisplayNames(s.State().Members))
}
