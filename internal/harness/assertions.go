package harness

import (
	"encoding/json"
	"fmt"
	"slices"
	"strings"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/partition"
	"github.com/roach88/teamsplit/internal/reducer"
)

// AssertionError describes a failed assertion.
type AssertionError struct {
	Type     string
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", e.Type, e.Expected, e.Actual)
}

func evaluateAssertion(r *Result, a Assertion) error {
	switch a.Type {
	case AssertMembers:
		return assertMembers(r, a)
	case AssertState:
		return assertState(r, a)
	case AssertHistoryLen:
		return assertCount(AssertHistoryLen, *a.Count, r.HistoryLen)
	case AssertRejected:
		return assertCount(AssertRejected, *a.Count, r.Rejected())
	case AssertTeamsBalanced:
		return assertTeamsBalanced(r, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

func assertMembers(r *Result, a Assertion) error {
	got := ir.DisplayNames(r.State.Members)
	if !slices.Equal(a.Members, got) {
		return &AssertionError{
			Type:     AssertMembers,
			Expected: fmt.Sprintf("%q", a.Members),
			Actual:   fmt.Sprintf("%q", got),
		}
	}
	return nil
}

func assertCount(kind string, want, got int) error {
	if want != got {
		return &AssertionError{Type: kind, Expected: fmt.Sprint(want), Actual: fmt.Sprint(got)}
	}
	return nil
}

// assertState compares listed fields of the final state by their JSON names.
// Both sides go through JSON so YAML and Go numbers compare equal.
func assertState(r *Result, a Assertion) error {
	actual, err := asJSONMap(r.State)
	if err != nil {
		return err
	}
	expected, err := asJSONMap(a.State)
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(expected))
	for k := range expected {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var diffs []string
	for _, k := range keys {
		got, ok := actual[k]
		if !ok {
			diffs = append(diffs, fmt.Sprintf("%s: missing", k))
			continue
		}
		if !cmp.Equal(expected[k], got) {
			diffs = append(diffs, fmt.Sprintf("%s: want %v, got %v", k, expected[k], got))
		}
	}
	if len(diffs) > 0 {
		return &AssertionError{
			Type:     AssertState,
			Expected: "listed fields to match",
			Actual:   strings.Join(diffs, "; "),
		}
	}
	return nil
}

func assertTeamsBalanced(r *Result, a Assertion) error {
	teams := r.State.Teams
	if len(teams) == 0 {
		return &AssertionError{Type: AssertTeamsBalanced, Expected: "generated teams", Actual: "none"}
	}
	if a.Count != nil && len(teams) != *a.Count {
		return &AssertionError{Type: AssertTeamsBalanced, Expected: fmt.Sprintf("%d teams", *a.Count), Actual: fmt.Sprint(len(teams))}
	}

	groups := make([][]ir.Name, len(teams))
	var placed []string
	for i, t := range teams {
		groups[i] = t.Members
		placed = append(placed, ir.DisplayNames(t.Members)...)
	}
	if !partition.IsBalanced(groups) {
		return &AssertionError{
			Type:     AssertTeamsBalanced,
			Expected: "sizes differing by at most 1",
			Actual:   fmt.Sprint(partition.Sizes(groups)),
		}
	}

	roster := ir.DisplayNames(r.State.Members)
	slices.Sort(placed)
	slices.Sort(roster)
	if !slices.Equal(placed, roster) {
		return &AssertionError{
			Type:     AssertTeamsBalanced,
			Expected: fmt.Sprintf("teams covering %q", roster),
			Actual:   fmt.Sprintf("%q", placed),
		}
	}
	return nil
}

func asJSONMap(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode state: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode state: %w", err)
	}
	return out, nil
}

func reducerLabel(a ir.Action) string {
	return reducer.Describe(a)
}
