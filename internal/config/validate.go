package config

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidateSettings validates raw config settings against the JSON schema.
func ValidateSettings(settings map[string]any) error {
	schemaLoader := gojsonschema.NewStringLoader(schemaJSON)
	documentLoader := gojsonschema.NewGoLoader(settings)

	result, err := gojsonschema.Validate(schemaLoader, documentLoader)
	if err != nil {
		return fmt.Errorf("validate config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, schemaErr := range result.Errors() {
		errs = append(errs, schemaErr.String())
	}
	sort.Strings(errs)

	return fmt.Errorf("config schema validation failed: %s", strings.Join(errs, "; "))
}

// Validate checks semantic constraints that the schema cannot express.
func (c Config) Validate() error {
	if len(c.Agents) < 2 {
		return fmt.Errorf("at least 2 agents are required, got %d", len(c.Agents))
	}
	if c.Debate.Rounds <= 0 {
		return fmt.Errorf("debate.rounds must be > 0")
	}
	if c.Budgets.MaxToolIterations <= 0 {
		return fmt.Errorf("budgets.max_tool_iterations must be > 0")
	}
	switch c.Debate.FailurePolicy() {
	case FailureAbort, FailureContinue:
	default:
		return fmt.Errorf("debate.on_agent_failure must be %q or %q", FailureAbort, FailureContinue)
	}
	if c.Debate.Judge != "" {
		if _, ok := c.Agents[c.Debate.Judge]; !ok {
			return fmt.Errorf("debate.judge %q is not a configured agent", c.Debate.Judge)
		}
	}
	for i, tool := range c.Tools {
		if tool.Name == "" || len(tool.Cmd) == 0 {
			return fmt.Errorf("tools[%d] requires name and cmd", i)
		}
	}
	return nil
}
