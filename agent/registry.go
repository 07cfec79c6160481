package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/tmc/langchaingo/llms"
)

// Executor runs a tool on behalf of userID. Failures come back as values;
// an executor must never return an error through any other channel.
type Executor func(ctx context.Context, userID int32, input map[string]any) ToolResult

// Tool couples an action name with its parameter schema and executor.
type Tool struct {
	Action      string
	Description string
	Schema      map[string]any
	Execute     Executor
}

// Registry is the closed set of tools available to a single agent
// invocation. Build a fresh one per request; it is not safe for
// concurrent mutation.
type Registry struct {
	order []string
	tools map[string]Tool
}

func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	r.Merge(tools...)
	return r
}

// Merge adds tools to the registry. A tool with an already registered
// action name replaces the earlier one but keeps its position.
func (r *Registry) Merge(tools ...Tool) {
	for _, tool := range tools {
		if _, ok := r.tools[tool.Action]; !ok {
			r.order = append(r.order, tool.Action)
		}
		r.tools[tool.Action] = tool
	}
}

func (r *Registry) Get(action string) (Tool, bool) {
	tool, ok := r.tools[action]
	return tool, ok
}

// Definitions renders the registry as model-facing tool definitions,
// in registration order.
func (r *Registry) Definitions() []llms.Tool {
	defs := make([]llms.Tool, 0, len(r.order))
	for _, action := range r.order {
		tool := r.tools[action]
		defs = append(defs, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Action,
				Description: tool.Description,
				Parameters:  tool.Schema,
			},
		})
	}
	return defs
}

// Dispatch decodes rawInput, validates it against the tool's schema and
// runs the executor. Every failure mode is reported as a failed
// ToolResult so the reasoning loop can continue.
func (r *Registry) Dispatch(ctx context.Context, userID int32, action, rawInput string) ToolResult {
	tool, ok := r.tools[action]
	if !ok {
		return Fail(action, "unknown tool: %s", action)
	}
	input := map[string]any{}
	if rawInput != "" {
		if err := json.Unmarshal([]byte(rawInput), &input); err != nil {
			return Fail(action, "validation: invalid JSON input: %v", err)
		}
	}
	if err := validateInput(tool.Schema, input); err != nil {
		return Fail(action, "validation: %v", err)
	}
	return tool.Execute(ctx, userID, input)
}

// validateInput enforces required fields and primitive types from the
// schemas this package builds. It is intentionally not a general JSON
// Schema validator.
func validateInput(schema, input map[string]any) error {
	props, _ := schema["properties"].(map[string]any)
	required, _ := schema["required"].([]string)
	for _, field := range required {
		if _, ok := input[field]; !ok {
			return fmt.Errorf("missing required field %q", field)
		}
	}
	for field, value := range input {
		prop, ok := props[field].(map[string]any)
		if !ok {
			continue
		}
		switch prop["type"] {
		case "string":
			s, ok := value.(string)
			if !ok {
				return fmt.Errorf("field %q must be a string", field)
			}
			if enum, ok := prop["enum"].([]string); ok && !contains(enum, s) {
				return fmt.Errorf("field %q must be one of %v", field, enum)
			}
		case "number":
			if _, ok := value.(float64); !ok {
				return fmt.Errorf("field %q must be a number", field)
			}
		case "boolean":
			if _, ok := value.(bool); !ok {
				return fmt.Errorf("field %q must be a boolean", field)
			}
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
