// Package agenttest provides a scripted chat model for exercising the agent
// loop and the channel adapters without a live provider.
package agenttest

import (
	"context"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// ScriptedModel replays a fixed sequence of responses, one per
// GenerateContent call, and records every request it sees.
type ScriptedModel struct {
	Responses []*llms.ContentResponse
	Err       error

	Calls [][]llms.MessageContent
	next  int
}

func (m *ScriptedModel) GenerateContent(_ context.Context, messages []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	m.Calls = append(m.Calls, messages)
	if m.Err != nil {
		return nil, m.Err
	}
	if m.next >= len(m.Responses) {
		return nil, errors.Errorf("scripted model exhausted after %d calls", len(m.Responses))
	}
	resp := m.Responses[m.next]
	m.next++
	return resp, nil
}

func (m *ScriptedModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	resp, err := m.GenerateContent(ctx, []llms.MessageContent{llms.TextParts(llms.ChatMessageTypeHuman, prompt)}, options...)
	if err != nil {
		return "", err
	}
	return resp.Choices[0].Content, nil
}

// Text builds a final-answer response with no tool calls.
func Text(content string) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: content}}}
}

// ToolCalls builds a response requesting the given tool calls.
func ToolCalls(calls ...llms.ToolCall) *llms.ContentResponse {
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{ToolCalls: calls}}}
}

// Call builds a single tool call.
func Call(id, name, arguments string) llms.ToolCall {
	return llms.ToolCall{
		ID:   id,
		Type: "function",
		FunctionCall: &llms.FunctionCall{
			Name:      name,
			Arguments: arguments,
		},
	}
}
