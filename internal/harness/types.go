package harness

import (
	"encoding/json"

	"github.com/roach88/teamsplit/internal/ir"
)

// TraceEvent records the outcome of one step.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Type    string   `json:"type"`
	Changed bool     `json:"changed"`
	Members []string `json:"members"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true when every expectation and assertion held.
	Pass bool `json:"pass"`

	Trace []TraceEvent `json:"trace"`

	Errors []string `json:"errors,omitempty"`

	// State is the final store state.
	State ir.State `json:"state"`

	HistoryLen int `json:"history_len"`
}

// NewResult creates a passing result with an empty trace.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError records a failure.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Rejected counts steps that left the state unchanged.
func (r *Result) Rejected() int {
	n := 0
	for _, e := range r.Trace {
		if !e.Changed {
			n++
		}
	}
	return n
}

// jsonFromYAML re-encodes a YAML-decoded value as JSON.
func jsonFromYAML(v any) ([]byte, error) {
	return json.Marshal(v)
}
