package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tmc/langchaingo/llms"
)

// maxSteps caps the reasoning loop. Each step is one model call that may
// request any number of tool calls; a run can therefore execute more than
// maxSteps tools, but never loop forever.
const maxSteps = 5

// Orchestrator drives the bounded tool-calling loop against a chat model.
type Orchestrator struct {
	model llms.Model
}

func NewOrchestrator(model llms.Model) *Orchestrator {
	return &Orchestrator{model: model}
}

// Request is one agent invocation. Registry is the closed tool set for this
// run; Context may be nil for channels that skip the snapshot.
type Request struct {
	UserID   int32
	Input    string
	Context  *UserContext
	Registry *Registry
	Timezone string
}

// Result is the final outcome of a run: the assistant's message plus every
// tool result in execution order.
type Result struct {
	Message     string       `json:"message"`
	ToolResults []ToolResult `json:"toolResults"`
}

// StepFunc observes each completed tool call as the loop runs. Used by the
// chat channel to stream tool results before the final message exists.
type StepFunc func(result ToolResult)

// Respond runs the loop to completion. onStep may be nil.
func (o *Orchestrator) Respond(ctx context.Context, req *Request, onStep StepFunc) (*Result, error) {
	if strings.TrimSpace(req.Input) == "" {
		return nil, errors.New("empty input")
	}
	if req.Registry == nil {
		return nil, errors.New("nil tool registry")
	}

	messages := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, buildSystemPrompt(req.Context, req.Timezone)),
		llms.TextParts(llms.ChatMessageTypeHuman, req.Input),
	}
	defs := req.Registry.Definitions()

	var collected []ToolResult
	seenCallIDs := map[string]bool{}

	for step := 0; step < maxSteps; step++ {
		resp, err := o.model.GenerateContent(ctx, messages, llms.WithTools(defs))
		if err != nil {
			return nil, errors.Wrap(err, "model call")
		}
		if len(resp.Choices) == 0 {
			return nil, errors.New("model returned no choices")
		}
		choice := resp.Choices[0]

		if len(choice.ToolCalls) == 0 {
			slog.Info("[AGENT DONE]", "steps", step+1, "tools", len(collected))
			return &Result{Message: choice.Content, ToolResults: collected}, nil
		}

		assistant := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		if choice.Content != "" {
			assistant.Parts = append(assistant.Parts, llms.TextContent{Text: choice.Content})
		}
		for _, call := range choice.ToolCalls {
			assistant.Parts = append(assistant.Parts, call)
		}
		messages = append(messages, assistant)

		// Execute in request order. Some providers replay earlier tool
		// calls in later responses; skip ids we already ran.
		for _, call := range choice.ToolCalls {
			if call.FunctionCall == nil || seenCallIDs[call.ID] {
				continue
			}
			seenCallIDs[call.ID] = true

			result := req.Registry.Dispatch(ctx, req.UserID, call.FunctionCall.Name, call.FunctionCall.Arguments)
			collected = append(collected, result)
			slog.Info("[AGENT TOOL]", "step", step+1, "action", result.Action, "success", result.Success)
			if onStep != nil {
				onStep(result)
			}

			payload, err := json.Marshal(result)
			if err != nil {
				payload = []byte(`{"success":false,"error":"unserializable tool result"}`)
			}
			messages = append(messages, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       call.FunctionCall.Name,
					Content:    string(payload),
				}},
			})
		}
	}

	slog.Warn("[AGENT CAP]", "steps", maxSteps, "tools", len(collected))
	return &Result{Message: capMessage(collected), ToolResults: collected}, nil
}

// capMessage synthesizes a closing message when the loop hits maxSteps
// without the model producing a final answer.
func capMessage(results []ToolResult) string {
	if len(results) == 0 {
		return "I couldn't finish working on that. Please try rephrasing your request."
	}
	succeeded := 0
	actions := make([]string, 0, len(results))
	for _, r := range results {
		if r.Success {
			succeeded++
		}
		actions = append(actions, r.Action)
	}
	return fmt.Sprintf(
		"I stopped after %d of %d actions succeeded (%s). The work done so far is saved; ask me to continue if anything is missing.",
		succeeded, len(results), strings.Join(actions, ", "),
	)
}

func buildSystemPrompt(uc *UserContext, timezone string) string {
	loc, err := time.LoadLocation(timezone)
	if err != nil || timezone == "" {
		loc = time.UTC
	}
	now := time.Now().In(loc)

	var b strings.Builder
	b.WriteString("You are Jot, a personal assistant for notes and reminders.\n")
	fmt.Fprintf(&b, "Current time: %s (%s).\n\n", now.Format("Monday, 2 January 2006 15:04"), loc)

	b.WriteString("Rules:\n")
	b.WriteString("- Use the provided tools to act; never claim to have saved something without calling a tool.\n")
	b.WriteString("- When the user's request matches an existing note or reminder below, update it instead of creating a duplicate.\n")
	b.WriteString("- Reference notes and reminders only by the ids listed below; never invent ids.\n")
	b.WriteString("- When a tool fails, tell the user what failed instead of retrying the same call.\n")
	b.WriteString("- Express due times in RFC 3339 with the user's UTC offset.\n")

	if uc == nil {
		return b.String()
	}

	if len(uc.Notes) > 0 {
		b.WriteString("\nExisting notes:\n")
		for _, note := range uc.Notes {
			fmt.Fprintf(&b, "- [%s] %s: %s\n", note.UID, note.Title, note.Preview)
		}
	}
	if len(uc.Reminders) > 0 {
		b.WriteString("\nPending reminders:\n")
		for _, reminder := range uc.Reminders {
			due := "no due time"
			if reminder.RemindAt != nil {
				due = time.Unix(*reminder.RemindAt, 0).In(loc).Format(time.RFC3339)
			}
			fmt.Fprintf(&b, "- [%s] %s (due %s)\n", reminder.UID, reminder.Message, due)
		}
	}
	if len(uc.Tags) > 0 {
		fmt.Fprintf(&b, "\nTags in use: %s\n", strings.Join(uc.Tags, ", "))
	}
	if len(uc.Integrations) > 0 {
		providers := make([]string, 0, len(uc.Integrations))
		for _, integration := range uc.Integrations {
			providers = append(providers, integration.Provider)
		}
		fmt.Fprintf(&b, "\nConnected integrations: %s\n", strings.Join(providers, ", "))
	}
	return b.String()
}
