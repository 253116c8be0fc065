package harness

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/teamsplit/internal/ir"
)

func resultWith(s ir.State, historyLen int) *Result {
	r := NewResult()
	r.State = s
	r.HistoryLen = historyLen
	return r
}

func splitState() ir.State {
	s := ir.DefaultState()
	s.TotalMembers = 5
	s.IsTotalConfirmed = true
	s.TeamCount = 2
	s.IsTeamCountConfirmed = true
	s.Members = ir.Names("A", "B", "C", "D", "E")
	s.Teams = []ir.Team{
		{Index: 0, Members: ir.Names("C", "A", "E")},
		{Index: 1, Members: ir.Names("B", "D")},
	}
	return s
}

func TestAssertMembers(t *testing.T) {
	r := resultWith(splitState(), 0)

	require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertMembers, Members: []string{"A", "B", "C", "D", "E"}}))

	err := evaluateAssertion(r, Assertion{Type: AssertMembers, Members: []string{"A"}})
	var ae *AssertionError
	require.True(t, errors.As(err, &ae))
	assert.Equal(t, AssertMembers, ae.Type)
	assert.Equal(t, `["A"]`, ae.Expected)
}

func TestAssertState(t *testing.T) {
	r := resultWith(splitState(), 0)

	require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertState, State: map[string]any{
		"total_members":      5,
		"is_total_confirmed": true,
		"team_count":         2,
	}}))

	err := evaluateAssertion(r, Assertion{Type: AssertState, State: map[string]any{
		"team_count": 3,
		"no_such":    1,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no_such: missing")
	assert.Contains(t, err.Error(), "team_count: want 3, got 2")
}

func TestAssertCounts(t *testing.T) {
	r := resultWith(splitState(), 4)
	r.Trace = []TraceEvent{{Changed: true}, {Changed: false}}

	require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertHistoryLen, Count: intPtr(4)}))
	require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertRejected, Count: intPtr(1)}))

	err := evaluateAssertion(r, Assertion{Type: AssertHistoryLen, Count: intPtr(9)})
	require.EqualError(t, err, "history_len: expected 9, got 4")
}

func TestAssertTeamsBalanced(t *testing.T) {
	t.Run("balanced", func(t *testing.T) {
		r := resultWith(splitState(), 0)
		require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertTeamsBalanced, Count: intPtr(2)}))
		require.NoError(t, evaluateAssertion(r, Assertion{Type: AssertTeamsBalanced}))
	})

	t.Run("no teams", func(t *testing.T) {
		r := resultWith(ir.DefaultState(), 0)
		err := evaluateAssertion(r, Assertion{Type: AssertTeamsBalanced})
		require.EqualError(t, err, "teams_balanced: expected generated teams, got none")
	})

	t.Run("wrong count", func(t *testing.T) {
		r := resultWith(splitState(), 0)
		err := evaluateAssertion(r, Assertion{Type: AssertTeamsBalanced, Count: intPtr(3)})
		require.EqualError(t, err, "teams_balanced: expected 3 teams, got 2")
	})

	t.Run("unbalanced", func(t *testing.T) {
		s := splitState()
		s.Teams = []ir.Team{
			{Index: 0, Members: ir.Names("A", "B", "C", "D")},
			{Index: 1, Members: ir.Names("E")},
		}
		err := evaluateAssertion(resultWith(s, 0), Assertion{Type: AssertTeamsBalanced})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "[4 1]")
	})

	t.Run("member missing from teams", func(t *testing.T) {
		s := splitState()
		s.Teams[1].Members = ir.Names("B", "Z")
		err := evaluateAssertion(resultWith(s, 0), Assertion{Type: AssertTeamsBalanced})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "teams covering")
	})
}
