package v1

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lmangall/jot/agent"
	"github.com/lmangall/jot/store"
)

// ─────────────────────────────────────────────────────────────────────────────
// Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// titlePrefixLen caps the auto-generated conversation title.
	titlePrefixLen = 60

	// rateLimitWindow is the fixed window for direct process calls. The
	// per-user budget inside it comes from the profile.
	rateLimitWindow = time.Minute
)

// ─────────────────────────────────────────────────────────────────────────────
// Request / Response types
// ─────────────────────────────────────────────────────────────────────────────

type chatRequest struct {
	ConversationID string `json:"conversationId"` // empty starts a new conversation
	Message        string `json:"message"`
	Timezone       string `json:"timezone"`
}

type processRequest struct {
	// Input is any so a non-string value can be rejected with 400 instead
	// of a bind error.
	Input    any    `json:"input"`
	Timezone string `json:"timezone"`
}

type processResponse struct {
	Message     string             `json:"message"`
	ToolResults []agent.ToolResult `json:"toolResults"`
}

type conversationResponse struct {
	UID       string `json:"uid"`
	Title     string `json:"title"`
	CreatedTs int64  `json:"createdTs"`
	UpdatedTs int64  `json:"updatedTs"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Route registration (called from v1.go)
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) registerAssistantRoutes(e *echo.Echo) {
	g := e.Group("/api/v1/assistant")
	g.POST("/chat", s.handleChat)
	g.POST("/process", s.handleProcess)
	g.GET("/conversations", s.listConversations)
	g.DELETE("/conversations/:uid", s.deleteConversation)
}

// ─────────────────────────────────────────────────────────────────────────────
// Chat handler (SSE)
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) handleChat(c *echo.Context) error {
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message required")
	}

	ctx := c.Request().Context()

	// ── 1. Resolve or lazily create the conversation ─────────────────────────
	var conversation *store.Conversation
	if req.ConversationID != "" {
		conversation, err = s.Store.GetConversation(ctx, &store.FindConversation{
			UID: &req.ConversationID, CreatorID: &user.ID,
		})
		if err != nil || conversation == nil {
			return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
		}
	} else {
		conversation, err = s.Store.CreateConversation(ctx, &store.Conversation{
			UID:       shortuuid.New(),
			CreatorID: user.ID,
			Title:     titlePrefix(req.Message),
		})
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to create conversation")
		}
	}

	// ── 2. Persist the user message before any model work ────────────────────
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Role:           store.MessageRoleUser,
		Content:        req.Message,
	}); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to persist message")
	}

	// ── 3. Build the user context snapshot and tool registry ─────────────────
	uc, err := agent.BuildUserContext(ctx, s.Store, user.ID)
	if err != nil {
		slog.Error("[CHAT] context build failed", "user", user.ID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}
	registry := s.buildRegistry(uc)

	// ── 4. Set up SSE ─────────────────────────────────────────────────────────
	rw := c.Response()
	rw.Header().Set("Content-Type", "text/event-stream")
	rw.Header().Set("Cache-Control", "no-cache")
	rw.Header().Set("Connection", "keep-alive")
	rw.Header().Set("X-Accel-Buffering", "no")
	rw.Header().Set("X-Conversation-Id", conversation.UID)
	rw.WriteHeader(http.StatusOK)

	emit := func(eventType, payload string) {
		data, _ := json.Marshal(map[string]string{"type": eventType, "content": payload})
		fmt.Fprintf(rw, "data: %s\n\n", data)
		if f, ok := rw.(http.Flusher); ok {
			f.Flush()
		}
	}
	emitJSON := func(eventType string, obj any) {
		inner, _ := json.Marshal(obj)
		data, _ := json.Marshal(map[string]json.RawMessage{
			"type":    json.RawMessage(`"` + eventType + `"`),
			"payload": inner,
		})
		fmt.Fprintf(rw, "data: %s\n\n", data)
		if f, ok := rw.(http.Flusher); ok {
			f.Flush()
		}
	}

	// ── 5. Run the agent, streaming tool results as they land ────────────────
	result, err := agent.NewOrchestrator(s.Model).Respond(ctx, &agent.Request{
		UserID:   user.ID,
		Input:    req.Message,
		Context:  uc,
		Registry: registry,
		Timezone: req.Timezone,
	}, func(toolResult agent.ToolResult) {
		emitJSON("tool_result", toolResult)
	})
	if err != nil {
		slog.Error("[CHAT] agent run failed", "user", user.ID, "err", err)
		emit("error", "processing failed")
		return nil
	}

	// ── 6. Stream the final answer as word chunks ────────────────────────────
	for _, word := range strings.Fields(result.Message) {
		emit("token", word+" ")
	}

	// ── 7. Persist the assistant message and bump the conversation ───────────
	toolResults, err := json.Marshal(result.ToolResults)
	if err != nil {
		toolResults = []byte("[]")
	}
	if _, err := s.Store.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID,
		Role:           store.MessageRoleAssistant,
		Content:        result.Message,
		ToolResults:    string(toolResults),
	}); err != nil {
		slog.Warn("[CHAT] failed to persist assistant message", "err", err)
	}
	if err := s.Store.TouchConversation(ctx, conversation.UID); err != nil {
		slog.Warn("[CHAT] failed to touch conversation", "err", err)
	}

	emit("done", conversation.UID)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Direct process handler
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) handleProcess(c *echo.Context) error {
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}

	// ── 1. Rate limit before any parsing beyond auth ─────────────────────────
	limit := s.Profile.AIRateLimit
	decision := s.Limiter.Check(fmt.Sprintf("ai:%d", user.ID), limit, rateLimitWindow)
	h := c.Response().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))
	if !decision.Allowed {
		return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
	}

	var req processRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	input, ok := req.Input.(string)
	if !ok || strings.TrimSpace(input) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "input must be a non-empty string")
	}

	ctx := c.Request().Context()

	// ── 2. One orchestrator call, plain JSON out ─────────────────────────────
	uc, err := agent.BuildUserContext(ctx, s.Store, user.ID)
	if err != nil {
		slog.Error("[PROCESS] context build failed", "user", user.ID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}
	result, err := agent.NewOrchestrator(s.Model).Respond(ctx, &agent.Request{
		UserID:   user.ID,
		Input:    input,
		Context:  uc,
		Registry: s.buildRegistry(uc),
		Timezone: req.Timezone,
	}, nil)
	if err != nil {
		slog.Error("[PROCESS] agent run failed", "user", user.ID, "err", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "processing failed")
	}

	toolResults := result.ToolResults
	if toolResults == nil {
		toolResults = []agent.ToolResult{}
	}
	return c.JSON(http.StatusOK, processResponse{
		Message:     result.Message,
		ToolResults: toolResults,
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Conversation listing / deletion
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) listConversations(c *echo.Context) error {
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	conversations, err := s.Store.ListConversations(c.Request().Context(), &store.FindConversation{
		CreatorID: &user.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]conversationResponse, 0, len(conversations))
	for _, conversation := range conversations {
		resp = append(resp, conversationResponse{
			UID:       conversation.UID,
			Title:     conversation.Title,
			CreatedTs: conversation.CreatedTs,
			UpdatedTs: conversation.UpdatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) deleteConversation(c *echo.Context) error {
	uid := c.Param("uid")
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	conversation, err := s.Store.GetConversation(c.Request().Context(), &store.FindConversation{
		UID: &uid, CreatorID: &user.ID,
	})
	if err != nil || conversation == nil {
		return echo.NewHTTPError(http.StatusNotFound, "conversation not found")
	}
	if err := s.Store.DeleteConversation(c.Request().Context(), uid); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// titlePrefix derives an immutable conversation title from the first message.
func titlePrefix(message string) string {
	message = strings.TrimSpace(message)
	runes := []rune(message)
	if len(runes) <= titlePrefixLen {
		return message
	}
	return string(runes[:titlePrefixLen])
}
