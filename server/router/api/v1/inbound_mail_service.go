package v1

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v5"
	"github.com/lithammer/shortuuid/v4"

	"github.com/lmangall/jot/agent"
	"github.com/lmangall/jot/plugin/htmltext"
	"github.com/lmangall/jot/plugin/mailbox"
	"github.com/lmangall/jot/store"
)

// ─────────────────────────────────────────────────────────────────────────────
// Constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	// signatureHeader carries the HMAC-SHA256 hex signature of the raw body.
	signatureHeader = "X-Webhook-Signature"

	// emailReceivedEvent is the only envelope type that triggers ingestion.
	emailReceivedEvent = "email.received"
)

// ─────────────────────────────────────────────────────────────────────────────
// Request / Response types
// ─────────────────────────────────────────────────────────────────────────────

type emailWebhookEnvelope struct {
	Type string `json:"type"`
	Data struct {
		From    string `json:"from"`
		To      string `json:"to"`
		Subject string `json:"subject"`
		EmailID string `json:"email_id"`
	} `json:"data"`
}

type ingestionLogResponse struct {
	UID           string `json:"uid"`
	FromAddress   string `json:"fromAddress"`
	ToAddress     string `json:"toAddress"`
	Subject       string `json:"subject"`
	AIResult      string `json:"aiResult"`
	PrimaryAction string `json:"primaryAction"`
	Status        string `json:"status"`
	ErrorMessage  string `json:"errorMessage,omitempty"`
	CreatedTs     int64  `json:"createdTs"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Route registration (called from v1.go)
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) registerInboundMailRoutes(e *echo.Echo) {
	e.POST("/api/v1/webhook/email", s.handleEmailWebhook)
	g := e.Group("/api/v1/ingestion-log")
	g.GET("", s.listIngestionLogs)
	g.POST("/:uid/reprocess", s.reprocessIngestionLog)
}

// ─────────────────────────────────────────────────────────────────────────────
// Email webhook
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) handleEmailWebhook(c *echo.Context) error {
	ctx := c.Request().Context()

	// ── 1. Verify the signature over the raw body ────────────────────────────
	rawBody, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "unreadable body")
	}
	if secret := s.Profile.WebhookSecret; secret != "" {
		if !mailbox.VerifySignature(rawBody, c.Request().Header.Get(signatureHeader), secret) {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid signature")
		}
	}

	// ── 2. Decode the envelope and gate on event type ────────────────────────
	var envelope emailWebhookEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid envelope")
	}
	if envelope.Type != emailReceivedEvent {
		// Unknown event types are acknowledged without an audit record so
		// the provider does not retry them.
		return c.JSON(http.StatusOK, map[string]string{"status": "ignored"})
	}

	from := strings.ToLower(strings.TrimSpace(envelope.Data.From))
	to := strings.ToLower(strings.TrimSpace(envelope.Data.To))

	// ── 3. Sender allow-list ─────────────────────────────────────────────────
	if allowed := s.Profile.AllowedSenderList(); len(allowed) > 0 && !containsString(allowed, from) {
		slog.Warn("[EMAIL] sender not allowed", "from", from)
		return echo.NewHTTPError(http.StatusForbidden, "sender not allowed")
	}

	// ── 4. Resolve the recipient to a user ───────────────────────────────────
	// Failures past this point leave an audit record: the sender was
	// legitimate, so the attempt must be inspectable.
	user, httpErr := s.resolveRecipient(ctx, from, to)
	if httpErr != nil {
		if log := s.createIngestionLog(ctx, nil, &envelope, ""); log != nil {
			s.finishIngestionLog(ctx, log.UID, nil, fmt.Sprintf("%v", httpErr.Message))
		}
		return httpErr
	}

	// ── 5. Fetch the full body, record the attempt, run the agent ────────────
	body, err := s.fetchEmailBody(ctx, envelope.Data.EmailID)
	if err != nil {
		slog.Error("[EMAIL] body fetch failed", "email", envelope.Data.EmailID, "err", err)
		log := s.createIngestionLog(ctx, user, &envelope, "")
		if log == nil {
			return echo.NewHTTPError(http.StatusInternalServerError, "failed to record ingestion")
		}
		s.finishIngestionLog(ctx, log.UID, nil, "failed to fetch email body: "+err.Error())
		return c.JSON(http.StatusOK, map[string]string{"status": store.IngestionStatusFailed, "logId": log.UID})
	}

	log := s.createIngestionLog(ctx, user, &envelope, body)
	if log == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to record ingestion")
	}

	outcome := s.runIngestion(ctx, user, log)
	return c.JSON(http.StatusOK, map[string]string{"status": outcome, "logId": log.UID})
}

// resolveRecipient maps the webhook addresses to a user. A numeric local
// part of the recipient is a user id; otherwise the sender address must
// belong to a known user.
func (s *APIV1Service) resolveRecipient(ctx context.Context, from, to string) (*store.User, *echo.HTTPError) {
	localPart, _, found := strings.Cut(to, "@")
	if !found || localPart == "" {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "invalid recipient address: "+to)
	}
	if id64, err := strconv.ParseInt(localPart, 10, 32); err == nil {
		id := int32(id64)
		user, err := s.Store.GetUser(ctx, &store.FindUser{ID: &id})
		if err != nil || user == nil {
			return nil, echo.NewHTTPError(http.StatusNotFound, "no user for address: "+to)
		}
		return user, nil
	}
	user, err := s.Store.GetUser(ctx, &store.FindUser{Email: &from})
	if err != nil || user == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "no user for address: "+from)
	}
	return user, nil
}

// fetchEmailBody pulls the full message out-of-band; the webhook envelope
// only carries an id. Returns empty when no mailbox client is configured,
// in which case ingestion runs on the subject alone.
func (s *APIV1Service) fetchEmailBody(ctx context.Context, emailID string) (string, error) {
	if s.Mailbox == nil || emailID == "" {
		return "", nil
	}
	email, err := s.Mailbox.FetchEmail(ctx, emailID)
	if err != nil {
		return "", err
	}
	if email.Text != "" {
		return email.Text, nil
	}
	return htmltext.Strip(email.HTML), nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingestion log listing / reprocess
// ─────────────────────────────────────────────────────────────────────────────

func (s *APIV1Service) listIngestionLogs(c *echo.Context) error {
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	logs, err := s.Store.ListIngestionLogs(c.Request().Context(), &store.FindIngestionLog{
		CreatorID: &user.ID,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	resp := make([]ingestionLogResponse, 0, len(logs))
	for _, log := range logs {
		resp = append(resp, ingestionLogResponse{
			UID:           log.UID,
			FromAddress:   log.FromAddress,
			ToAddress:     log.ToAddress,
			Subject:       log.Subject,
			AIResult:      log.AIResult,
			PrimaryAction: log.PrimaryAction,
			Status:        log.Status,
			ErrorMessage:  log.ErrorMessage,
			CreatedTs:     log.CreatedTs,
		})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *APIV1Service) reprocessIngestionLog(c *echo.Context) error {
	uid := c.Param("uid")
	user, err := s.requireAuth(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	log, err := s.Store.GetIngestionLog(ctx, &store.FindIngestionLog{UID: &uid})
	if err != nil || log == nil || log.CreatorID == nil || *log.CreatorID != user.ID {
		return echo.NewHTTPError(http.StatusNotFound, "ingestion log not found")
	}

	// Identity and raw body are retained; only the outcome fields change.
	outcome := s.runIngestion(ctx, user, log)

	updated, err := s.Store.GetIngestionLog(ctx, &store.FindIngestionLog{UID: &uid})
	if err != nil || updated == nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load updated log")
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status": outcome,
		"log": ingestionLogResponse{
			UID:           updated.UID,
			FromAddress:   updated.FromAddress,
			ToAddress:     updated.ToAddress,
			Subject:       updated.Subject,
			AIResult:      updated.AIResult,
			PrimaryAction: updated.PrimaryAction,
			Status:        updated.Status,
			ErrorMessage:  updated.ErrorMessage,
			CreatedTs:     updated.CreatedTs,
		},
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Ingestion pipeline shared by webhook and reprocess
// ─────────────────────────────────────────────────────────────────────────────

// runIngestion runs the agent over subject+body and overwrites the log's
// outcome fields. Returns the final log status.
func (s *APIV1Service) runIngestion(ctx context.Context, user *store.User, log *store.IngestionLog) string {
	input := "Subject: " + log.Subject
	if log.RawBody != "" {
		input += "\n\n" + log.RawBody
	}

	uc, err := agent.BuildUserContext(ctx, s.Store, user.ID)
	if err != nil {
		slog.Error("[EMAIL] context build failed", "user", user.ID, "err", err)
		s.finishIngestionLog(ctx, log.UID, nil, "processing failed: "+err.Error())
		return store.IngestionStatusFailed
	}

	result, err := agent.NewOrchestrator(s.Model).Respond(ctx, &agent.Request{
		UserID:   user.ID,
		Input:    input,
		Context:  uc,
		Registry: s.buildRegistry(uc),
	}, nil)
	if err != nil {
		slog.Error("[EMAIL] agent run failed", "user", user.ID, "err", err)
		s.finishIngestionLog(ctx, log.UID, nil, "processing failed: "+err.Error())
		return store.IngestionStatusFailed
	}

	s.finishIngestionLog(ctx, log.UID, result, "")
	if primarySucceeded(result.ToolResults) {
		return store.IngestionStatusProcessed
	}
	return store.IngestionStatusFailed
}

func (s *APIV1Service) createIngestionLog(ctx context.Context, user *store.User, envelope *emailWebhookEnvelope, rawBody string) *store.IngestionLog {
	var creatorID *int32
	if user != nil {
		creatorID = &user.ID
	}
	log, err := s.Store.CreateIngestionLog(ctx, &store.IngestionLog{
		UID:         shortuuid.New(),
		CreatorID:   creatorID,
		FromAddress: envelope.Data.From,
		ToAddress:   envelope.Data.To,
		Subject:     envelope.Data.Subject,
		RawBody:     rawBody,
		Status:      store.IngestionStatusPending,
	})
	if err != nil {
		slog.Error("[EMAIL] failed to create ingestion log", "err", err)
		return nil
	}
	return log
}

// finishIngestionLog overwrites the outcome fields in place. result == nil
// records a failure with errMsg.
func (s *APIV1Service) finishIngestionLog(ctx context.Context, uid string, result *agent.Result, errMsg string) {
	update := &store.UpdateIngestionLog{UID: uid}
	if result == nil {
		update.Status = store.IngestionStatusFailed
		update.ErrorMessage = errMsg
	} else {
		update.AIResult = result.Message
		if len(result.ToolResults) > 0 {
			update.PrimaryAction = result.ToolResults[0].Action
		}
		if primarySucceeded(result.ToolResults) {
			update.Status = store.IngestionStatusProcessed
			update.NoteID, update.ReminderID = s.linkedEntities(ctx, result.ToolResults)
		} else {
			update.Status = store.IngestionStatusFailed
			update.ErrorMessage = result.ToolResults[0].Error
		}
	}
	if _, err := s.Store.UpdateIngestionLog(ctx, update); err != nil {
		slog.Error("[EMAIL] failed to update ingestion log", "uid", uid, "err", err)
	}
}

// primarySucceeded reports whether the first tool result, if any, succeeded.
// A run with no tool calls at all still counts as processed.
func primarySucceeded(results []agent.ToolResult) bool {
	if len(results) == 0 {
		return true
	}
	return results[0].Success
}

// linkedEntities resolves created note/reminder uids from the first
// successful tool result back to row ids for the audit record.
func (s *APIV1Service) linkedEntities(ctx context.Context, results []agent.ToolResult) (*int32, *int32) {
	for _, result := range results {
		if !result.Success {
			continue
		}
		if uid, ok := result.Data["noteId"].(string); ok {
			if note, err := s.Store.GetNote(ctx, &store.FindNote{UID: &uid}); err == nil && note != nil {
				return &note.ID, nil
			}
		}
		if uid, ok := result.Data["reminderId"].(string); ok {
			if reminder, err := s.Store.GetReminder(ctx, &store.FindReminder{UID: &uid}); err == nil && reminder != nil {
				return nil, &reminder.ID
			}
		}
	}
	return nil, nil
}

func containsString(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
