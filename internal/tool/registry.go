package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Executor runs a named tool with decoded arguments.
type Executor interface {
	Execute(ctx context.Context, name string, args map[string]any) (any, error)
}

// ExecutorFunc adapts a function to the Executor interface.
type ExecutorFunc func(ctx context.Context, name string, args map[string]any) (any, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, name string, args map[string]any) (any, error) {
	return f(ctx, name, args)
}

type entry struct {
	schema   Schema
	executor Executor
}

// Registry maps tool names to executors. Dispatch never returns an error:
// every failure mode is encoded into the result content so the model sees
// it and can correct course on the next pass.
type Registry struct {
	tools map[string]entry
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: map[string]entry{}}
}

// Register adds a tool. A duplicate name replaces the previous entry.
func (r *Registry) Register(schema Schema, executor Executor) {
	r.tools[schema.Name] = entry{schema: schema, executor: executor}
}

// Schemas returns all registered tool schemas sorted by name.
func (r *Registry) Schemas() []Schema {
	out := make([]Schema, 0, len(r.tools))
	for _, e := range r.tools {
		out = append(out, e.schema)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Dispatch resolves and runs one call. Unknown tools, malformed arguments,
// schema violations, and executor errors all come back as error-status
// content on the result.
func (r *Registry) Dispatch(ctx context.Context, call Call) Result {
	result := Result{ToolCallID: call.ID, Name: call.Name}

	e, ok := r.tools[call.Name]
	if !ok {
		result.Content = ErrorContent(fmt.Sprintf("unknown tool %q", call.Name))
		return result
	}

	args := map[string]any{}
	if strings.TrimSpace(call.Arguments) != "" {
		if err := json.Unmarshal([]byte(call.Arguments), &args); err != nil {
			result.Content = ErrorContent(fmt.Sprintf("decode arguments: %v", err))
			return result
		}
	}

	if e.schema.Parameters != nil {
		if err := validateArgs(e.schema.Parameters, args); err != nil {
			result.Content = ErrorContent(err.Error())
			return result
		}
	}

	out, err := e.executor.Execute(ctx, call.Name, args)
	if err != nil {
		log.Debug().Str("tool", call.Name).Err(err).Msg("tool call failed")
		result.Content = ErrorContent(err.Error())
		return result
	}

	result.Content = SuccessContent(out)
	return result
}

func validateArgs(schema map[string]any, args map[string]any) error {
	res, err := gojsonschema.Validate(gojsonschema.NewGoLoader(schema), gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("validate arguments: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid arguments: %s", strings.Join(msgs, "; "))
}
