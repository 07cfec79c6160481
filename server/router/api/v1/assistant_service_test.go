package v1

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"

	"github.com/lmangall/jot/agent/agenttest"
	"github.com/lmangall/jot/store"
)

func TestProcessRejectsBadInput(t *testing.T) {
	env := newTestEnv(t, &agenttest.ScriptedModel{})

	for name, body := range map[string]string{
		"missing input":    `{}`,
		"non-string input": `{"input":42}`,
		"blank input":      `{"input":"   "}`,
	} {
		rec := env.do(http.MethodPost, "/api/v1/assistant/process", body, env.token, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, name)
	}
}

func TestProcessReturnsMessageAndToolResults(t *testing.T) {
	model := &agenttest.ScriptedModel{
		Responses: []*llms.ContentResponse{
			agenttest.ToolCalls(agenttest.Call("c1", "create_note",
				`{"title":"From process","content":"direct channel"}`)),
			agenttest.Text("Done, saved a note."),
		},
	}
	env := newTestEnv(t, model)

	rec := env.do(http.MethodPost, "/api/v1/assistant/process",
		`{"input":"save a note about the direct channel"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp processResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, "Done, saved a note.", resp.Message)
	require.Len(t, resp.ToolResults, 1)
	require.True(t, resp.ToolResults[0].Success)
	require.Equal(t, "create_note", resp.ToolResults[0].Action)

	notes, err := env.store.ListNotes(context.Background(), &store.FindNote{CreatorID: &env.user.ID})
	require.NoError(t, err)
	require.Len(t, notes, 1)
}

func TestProcessEmptyToolResultsIsArray(t *testing.T) {
	model := &agenttest.ScriptedModel{
		Responses: []*llms.ContentResponse{agenttest.Text("Nothing to do.")},
	}
	env := newTestEnv(t, model)

	rec := env.do(http.MethodPost, "/api/v1/assistant/process", `{"input":"hello"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"toolResults":[]`)
}

func TestProcessRateLimit(t *testing.T) {
	env := newTestEnv(t, &agenttest.ScriptedModel{
		Responses: []*llms.ContentResponse{agenttest.Text("one"), agenttest.Text("two")},
	})
	env.service.Profile.AIRateLimit = 2

	for i := 0; i < 2; i++ {
		rec := env.do(http.MethodPost, "/api/v1/assistant/process", `{"input":"hi"}`, env.token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec := env.do(http.MethodPost, "/api/v1/assistant/process", `{"input":"hi"}`, env.token, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
	require.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	require.NotEmpty(t, rec.Header().Get("X-RateLimit-Reset"))
}

func TestChatRejectsEmptyMessage(t *testing.T) {
	env := newTestEnv(t, &agenttest.ScriptedModel{})
	rec := env.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"  "}`, env.token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestChatStreamsAndPersists(t *testing.T) {
	model := &agenttest.ScriptedModel{
		Responses: []*llms.ContentResponse{
			agenttest.ToolCalls(agenttest.Call("c1", "create_reminder",
				`{"message":"water plants","remindAt":"2026-09-01T09:00:00Z"}`)),
			agenttest.Text("Reminder set for September 1st."),
		},
	}
	env := newTestEnv(t, model)

	longMessage := "remind me to water the plants on the first of September, morning please"
	rec := env.do(http.MethodPost, "/api/v1/assistant/chat",
		`{"message":"`+longMessage+`"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	conversationUID := rec.Header().Get("X-Conversation-Id")
	require.NotEmpty(t, conversationUID)

	body := rec.Body.String()
	require.Contains(t, body, `"tool_result"`)
	require.Contains(t, body, `"token"`)
	require.Contains(t, body, `"done"`)

	ctx := context.Background()
	conversation, err := env.store.GetConversation(ctx, &store.FindConversation{UID: &conversationUID})
	require.NoError(t, err)
	require.NotNil(t, conversation)
	require.Len(t, []rune(conversation.Title), 60)

	messages, err := env.store.ListMessages(ctx, &store.FindMessage{ConversationID: conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 2)
	require.Equal(t, store.MessageRoleUser, messages[0].Role)
	require.Empty(t, messages[0].ToolResults)
	require.Equal(t, store.MessageRoleAssistant, messages[1].Role)
	require.Contains(t, messages[1].ToolResults, `"create_reminder"`)

	require.GreaterOrEqual(t, conversation.UpdatedTs, messages[1].CreatedTs)
}

func TestChatContinuesExistingConversation(t *testing.T) {
	model := &agenttest.ScriptedModel{
		Responses: []*llms.ContentResponse{
			agenttest.Text("first answer"),
			agenttest.Text("second answer"),
		},
	}
	env := newTestEnv(t, model)

	rec := env.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"hello"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	uid := rec.Header().Get("X-Conversation-Id")

	rec = env.do(http.MethodPost, "/api/v1/assistant/chat",
		`{"conversationId":"`+uid+`","message":"again"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, uid, rec.Header().Get("X-Conversation-Id"))

	conversation, err := env.store.GetConversation(context.Background(), &store.FindConversation{UID: &uid})
	require.NoError(t, err)
	messages, err := env.store.ListMessages(context.Background(), &store.FindMessage{ConversationID: conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 4)
	require.Equal(t, "hello", conversation.Title)
}

func TestChatKeepsUserMessageOnFailure(t *testing.T) {
	env := newTestEnv(t, &agenttest.ScriptedModel{})
	// No scripted responses: the model call fails after the user message
	// is persisted.
	rec := env.do(http.MethodPost, "/api/v1/assistant/chat", `{"message":"save this"}`, env.token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"error"`)

	uid := rec.Header().Get("X-Conversation-Id")
	conversation, err := env.store.GetConversation(context.Background(), &store.FindConversation{UID: &uid})
	require.NoError(t, err)
	messages, err := env.store.ListMessages(context.Background(), &store.FindMessage{ConversationID: conversation.ID})
	require.NoError(t, err)
	require.Len(t, messages, 1)
	require.Equal(t, store.MessageRoleUser, messages[0].Role)
}

func TestChatUnknownConversation(t *testing.T) {
	env := newTestEnv(t, &agenttest.ScriptedModel{})
	rec := env.do(http.MethodPost, "/api/v1/assistant/chat",
		`{"conversationId":"missing","message":"hi"}`, env.token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
}
