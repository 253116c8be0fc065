package harness

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/google/go-cmp/cmp"

	"github.com/roach88/teamsplit/internal/engine"
	"github.com/roach88/teamsplit/internal/ir"
	"github.com/roach88/teamsplit/internal/testutil"
)

// SessionID is the fixed session used by every scenario run.
const SessionID = "scenario-session"

// Option configures a run.
type Option func(*runConfig)

type runConfig struct {
	logger *slog.Logger
}

// WithLogger routes the store's logs to logger. Runs are silent by default.
func WithLogger(logger *slog.Logger) Option {
	return func(c *runConfig) {
		c.logger = logger
	}
}

// Run executes scenario against a fresh store and returns the result.
//
// A failed expectation or assertion marks the result as failed; the
// returned error is reserved for scenarios that cannot be executed.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&cfg)
	}

	store := engine.New(
		engine.WithLogger(cfg.logger),
		engine.WithHistoryCapacity(scenario.HistoryCapacity),
		engine.WithClock(testutil.NewDeterministicClock()),
		engine.WithSessionGenerator(testutil.FixedSession(SessionID)),
		engine.WithNow(testutil.NewSteppingTime().Now),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		action, err := step.ToAction()
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}

		before := store.State()
		store.Dispatch(action)
		after := store.State()
		changed := !cmp.Equal(before, after)

		result.Trace = append(result.Trace, TraceEvent{
			Seq:     int64(i + 1),
			Type:    step.Action,
			Changed: changed,
			Members: ir.DisplayNames(after.Members),
		})

		switch {
		case step.Expect == ExpectChanged && !changed:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected state to change", i, reducerLabel(action)))
		case step.Expect == ExpectUnchanged && changed:
			result.AddError(fmt.Sprintf("steps[%d] %s: expected state to stay unchanged", i, reducerLabel(action)))
		}
	}

	result.State = store.State()
	result.HistoryLen = len(store.History())

	for i, a := range scenario.Assertions {
		if err := evaluateAssertion(result, a); err != nil {
			result.AddError(fmt.Sprintf("assertions[%d]: %v", i, err))
		}
	}
	return result, nil
}

// RunFile loads and runs the scenario at path.
func RunFile(path string, opts ...Option) (*Scenario, *Result, error) {
	scenario, err := LoadScenario(path)
	if err != nil {
		return nil, nil, err
	}
	result, err := Run(scenario, opts...)
	if err != nil {
		return scenario, nil, err
	}
	return scenario, result, nil
}
