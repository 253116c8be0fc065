package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/teamsplit/internal/ir"
)

// Scenario is a scripted sequence of dispatches with assertions.
type Scenario struct {
	// Name identifies the scenario and names its golden file.
	Name string `yaml:"name"`

	Description string `yaml:"description"`

	// HistoryCapacity bounds the store's history. Zero uses the default.
	HistoryCapacity int `yaml:"history_capacity,omitempty"`

	Steps []Step `yaml:"steps"`

	Assertions []Assertion `yaml:"assertions"`
}

// Step dispatches one action.
type Step struct {
	// Action is the action type, e.g. "ADD_MEMBER".
	Action string `yaml:"action"`

	// Payload holds the type-specific fields, e.g. {name: Kim}.
	Payload map[string]any `yaml:"payload,omitempty"`

	// Expect is "changed", "unchanged" or empty (no check).
	Expect string `yaml:"expect,omitempty"`
}

// Step expectations.
const (
	ExpectChanged   = "changed"
	ExpectUnchanged = "unchanged"
)

// Assertion checks the final state or the run as a whole.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Members is the expected roster in display form (members).
	Members []string `yaml:"members,omitempty"`

	// State holds expected fields of the final state by JSON name (state).
	// Subset match: only listed fields are compared.
	State map[string]any `yaml:"state,omitempty"`

	// Count is the expected history length (history_len), number of
	// rejected steps (rejected) or number of teams (teams_balanced).
	Count *int `yaml:"count,omitempty"`
}

// Assertion types.
const (
	AssertMembers       = "members"
	AssertState         = "state"
	AssertHistoryLen    = "history_len"
	AssertTeamsBalanced = "teams_balanced"
	AssertRejected      = "rejected"
)

// LoadScenario reads, strictly decodes and validates a scenario file.
// Unknown fields are errors.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario strictly decodes and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks required fields and decodes every step payload.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.HistoryCapacity < 0 {
		return fmt.Errorf("history_capacity must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Action == "" {
			return fmt.Errorf("steps[%d]: action is required", i)
		}
		switch step.Expect {
		case "", ExpectChanged, ExpectUnchanged:
		default:
			return fmt.Errorf("steps[%d]: expect must be %q or %q", i, ExpectChanged, ExpectUnchanged)
		}
		if _, err := step.ToAction(); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertMembers:
		if a.Members == nil {
			return fmt.Errorf("assertions[%d]: members list is required for members (use [] for none)", index)
		}
	case AssertState:
		if len(a.State) == 0 {
			return fmt.Errorf("assertions[%d]: state is required for state", index)
		}
	case AssertHistoryLen, AssertRejected:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for %s", index, a.Type)
		}
	case AssertTeamsBalanced:
		if a.Count != nil && *a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for teams_balanced", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// ToAction converts the step into an ir.Action. Unknown action types are
// allowed and carry no payload; the store treats them as no-ops.
func (s Step) ToAction() (ir.Action, error) {
	t := ir.ActionType(s.Action)
	if t == ir.ActionInternalError {
		return ir.Action{}, fmt.Errorf("%s cannot be dispatched from a scenario", t)
	}

	var raw []byte
	if s.Payload != nil {
		var err error
		raw, err = jsonFromYAML(s.Payload)
		if err != nil {
			return ir.Action{}, fmt.Errorf("%s payload: %w", t, err)
		}
	}
	p, err := ir.DecodePayload(t, raw)
	if err != nil {
		return ir.Action{}, err
	}
	return ir.Action{Type: t, Payload: p}, nil
}
