package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func echoTool(action string) Tool {
	return Tool{
		Action:      action,
		Description: "echoes its input",
		Schema: objectSchema(map[string]any{
			"value": stringProp("value to echo"),
		}, "value"),
		Execute: func(_ context.Context, _ int32, input map[string]any) ToolResult {
			return Succeed(action, map[string]any{"value": input["value"]})
		},
	}
}

func TestDispatchUnknownTool(t *testing.T) {
	registry := NewRegistry(echoTool("echo"))
	result := registry.Dispatch(context.Background(), 1, "nope", `{}`)
	require.False(t, result.Success)
	require.Contains(t, result.Error, "unknown tool")
}

func TestDispatchValidation(t *testing.T) {
	registry := NewRegistry(echoTool("echo"), Tool{
		Action: "typed",
		Schema: objectSchema(map[string]any{
			"count":  numberProp("a count"),
			"flag":   map[string]any{"type": "boolean"},
			"choice": enumProp("pick one", "a", "b"),
		}, "count"),
		Execute: func(_ context.Context, _ int32, _ map[string]any) ToolResult {
			return Succeed("typed", nil)
		},
	})

	tests := []struct {
		name    string
		action  string
		input   string
		wantErr string
	}{
		{"missing required", "echo", `{}`, `missing required field "value"`},
		{"wrong string type", "echo", `{"value":42}`, `must be a string`},
		{"malformed json", "echo", `{"value":`, "invalid JSON input"},
		{"wrong number type", "typed", `{"count":"three"}`, "must be a number"},
		{"wrong bool type", "typed", `{"count":1,"flag":"yes"}`, "must be a boolean"},
		{"enum violation", "typed", `{"count":1,"choice":"z"}`, "must be one of"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := registry.Dispatch(context.Background(), 1, tt.action, tt.input)
			require.False(t, result.Success)
			require.Contains(t, result.Error, "validation:")
			require.Contains(t, result.Error, tt.wantErr)
		})
	}

	ok := registry.Dispatch(context.Background(), 1, "echo", `{"value":"hi"}`)
	require.True(t, ok.Success)
	require.Equal(t, "hi", ok.Data["value"])
}

func TestMergeKeepsOrderAndReplaces(t *testing.T) {
	registry := NewRegistry(echoTool("a"), echoTool("b"))
	registry.Merge(echoTool("c"))

	replacement := echoTool("a")
	replacement.Description = "replaced"
	registry.Merge(replacement)

	defs := registry.Definitions()
	require.Len(t, defs, 3)
	require.Equal(t, "a", defs[0].Function.Name)
	require.Equal(t, "b", defs[1].Function.Name)
	require.Equal(t, "c", defs[2].Function.Name)
	require.Equal(t, "replaced", defs[0].Function.Description)
}
