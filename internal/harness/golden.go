package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/teamsplit/internal/ir"
)

// TraceSnapshot is the golden-file form of a run.
type TraceSnapshot struct {
	ScenarioName string
	Trace        []TraceEvent
	Final        ir.State
	HistoryLen   int
}

// toCanonicalMap converts the snapshot into values ir.MarshalCanonical accepts.
func (s TraceSnapshot) toCanonicalMap() map[string]any {
	trace := make([]any, len(s.Trace))
	for i, e := range s.Trace {
		trace[i] = map[string]any{
			"seq":     e.Seq,
			"type":    e.Type,
			"changed": e.Changed,
			"members": e.Members,
		}
	}
	sizes := make([]any, len(s.Final.Teams))
	for i, t := range s.Final.Teams {
		sizes[i] = len(t.Members)
	}
	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         trace,
		"final": map[string]any{
			"members":                 ir.DisplayNames(s.Final.Members),
			"total_members":           s.Final.TotalMembers,
			"is_total_confirmed":      s.Final.IsTotalConfirmed,
			"team_count":              s.Final.TeamCount,
			"is_team_count_confirmed": s.Final.IsTeamCountConfirmed,
			"team_sizes":              sizes,
			"history_len":             s.HistoryLen,
		},
	}
}

// MarshalTrace renders a run as canonical JSON.
func MarshalTrace(name string, r *Result) ([]byte, error) {
	snap := TraceSnapshot{ScenarioName: name, Trace: r.Trace, Final: r.State, HistoryLen: r.HistoryLen}
	return ir.MarshalCanonical(snap.toCanonicalMap())
}

// RunWithGolden runs scenario and compares its trace against
// testdata/golden/{scenario.Name}.golden. Regenerate with -update.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result against its golden file.
func AssertGolden(t *testing.T, name string, result *Result) error {
	t.Helper()

	data, err := MarshalTrace(name, result)
	if err != nil {
		return err
	}
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, name, data)
	return nil
}
