package agent

import "fmt"

// ToolResult is the only channel through which a tool reports its outcome.
// Exactly one of Data or Error is meaningful, discriminated by Success.
// Executors return failures as values; nothing may panic past the registry.
type ToolResult struct {
	Success bool           `json:"success"`
	Action  string         `json:"action"`
	Data    map[string]any `json:"data,omitempty"`
	Error   string         `json:"error,omitempty"`
}

// Succeed builds a successful result carrying action-specific payload.
func Succeed(action string, data map[string]any) ToolResult {
	return ToolResult{Success: true, Action: action, Data: data}
}

// Fail builds a failed result with a formatted error message.
func Fail(action, format string, args ...any) ToolResult {
	return ToolResult{Success: false, Action: action, Error: fmt.Sprintf(format, args...)}
}
