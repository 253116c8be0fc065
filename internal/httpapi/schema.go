package httpapi

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

//go:embed action.schema.json
var actionSchemaJSON string

const actionSchemaURL = "https://teamsplit.local/action.schema.json"

// compileActionSchema compiles the embedded action schema.
func compileActionSchema() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(actionSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("parse action schema: %w", err)
	}
	c := jsonschema.NewCompiler()
	if err := c.AddResource(actionSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("add action schema: %w", err)
	}
	sch, err := c.Compile(actionSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("compile action schema: %w", err)
	}
	return sch, nil
}

// validateAction checks a request body against the action schema.
func validateAction(sch *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return sch.Validate(inst)
}
