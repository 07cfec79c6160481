package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lithammer/shortuuid/v4"

	"github.com/lmangall/jot/plugin/vectorstore"
	"github.com/lmangall/jot/store"
)

const searchTopK = 5

// StandardTools builds the built-in tool set over the store. vs may be nil,
// in which case search_notes is omitted and note indexing is skipped.
func StandardTools(st *store.Store, vs *vectorstore.Store) []Tool {
	tools := []Tool{
		{
			Action:      "create_note",
			Description: "Create a new note with a title and content.",
			Schema: objectSchema(map[string]any{
				"title":   stringProp("Short title for the note"),
				"content": stringProp("Full note content"),
			}, "title", "content"),
			Execute: createNote(st, vs),
		},
		{
			Action:      "update_note",
			Description: "Update an existing note's title and/or content. Prefer this over create_note when a matching note already exists.",
			Schema: objectSchema(map[string]any{
				"noteId":  stringProp("Identifier of the note to update"),
				"title":   stringProp("New title, if changing"),
				"content": stringProp("New content, if changing"),
			}, "noteId"),
			Execute: updateNote(st, vs),
		},
		{
			Action:      "delete_note",
			Description: "Delete a note.",
			Schema: objectSchema(map[string]any{
				"noteId": stringProp("Identifier of the note to delete"),
			}, "noteId"),
			Execute: deleteNote(st, vs),
		},
		{
			Action:      "create_reminder",
			Description: "Create a reminder, optionally scheduled for a specific time.",
			Schema: objectSchema(map[string]any{
				"message":   stringProp("What to remind the user about"),
				"remindAt":  stringProp("Due time in RFC 3339 format, e.g. 2026-03-01T09:00:00+01:00. Omit for a reminder without a due time."),
				"notifyVia": enumProp("Delivery channel", "push", "email"),
			}, "message"),
			Execute: createReminder(st),
		},
		{
			Action:      "update_reminder",
			Description: "Update an existing reminder's message, due time or delivery channel.",
			Schema: objectSchema(map[string]any{
				"reminderId": stringProp("Identifier of the reminder to update"),
				"message":    stringProp("New message, if changing"),
				"remindAt":   stringProp("New due time in RFC 3339 format, if changing"),
				"notifyVia":  enumProp("New delivery channel, if changing", "push", "email"),
				"status":     enumProp("New status, if changing", store.ReminderStatusPending, store.ReminderStatusCompleted, store.ReminderStatusCancelled),
			}, "reminderId"),
			Execute: updateReminder(st),
		},
		{
			Action:      "complete_reminder",
			Description: "Mark a reminder as completed.",
			Schema: objectSchema(map[string]any{
				"reminderId": stringProp("Identifier of the reminder to complete"),
			}, "reminderId"),
			Execute: setReminderStatus(st, "complete_reminder", store.ReminderStatusCompleted),
		},
		{
			Action:      "cancel_reminder",
			Description: "Cancel a reminder.",
			Schema: objectSchema(map[string]any{
				"reminderId": stringProp("Identifier of the reminder to cancel"),
			}, "reminderId"),
			Execute: setReminderStatus(st, "cancel_reminder", store.ReminderStatusCancelled),
		},
	}
	if vs != nil {
		tools = append(tools, Tool{
			Action:      "search_notes",
			Description: "Search the user's notes by meaning. Use this to find an existing note before creating a new one.",
			Schema: objectSchema(map[string]any{
				"query": stringProp("What to search for"),
			}, "query"),
			Execute: searchNotes(vs),
		})
	}
	return tools
}

func createNote(st *store.Store, vs *vectorstore.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "create_note"
		title, _ := input["title"].(string)
		content, _ := input["content"].(string)
		note, err := st.CreateNote(ctx, &store.Note{
			UID:       shortuuid.New(),
			CreatorID: userID,
			Title:     title,
			Content:   content,
		})
		if err != nil {
			return Fail(action, "create note: %v", err)
		}
		indexNote(ctx, vs, note)
		return Succeed(action, map[string]any{"noteId": note.UID, "title": note.Title})
	}
}

func updateNote(st *store.Store, vs *vectorstore.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "update_note"
		uid, _ := input["noteId"].(string)
		note, err := findOwnedNote(ctx, st, userID, uid)
		if err != nil {
			return Fail(action, "%v", err)
		}
		update := &store.UpdateNote{ID: note.ID}
		if v, ok := input["title"].(string); ok {
			update.Title = &v
		}
		if v, ok := input["content"].(string); ok {
			update.Content = &v
		}
		if update.Title == nil && update.Content == nil {
			return Fail(action, "nothing to update: provide title and/or content")
		}
		updated, err := st.UpdateNote(ctx, update)
		if err != nil {
			return Fail(action, "update note: %v", err)
		}
		indexNote(ctx, vs, updated)
		return Succeed(action, map[string]any{"noteId": updated.UID, "title": updated.Title})
	}
}

func deleteNote(st *store.Store, vs *vectorstore.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "delete_note"
		uid, _ := input["noteId"].(string)
		note, err := findOwnedNote(ctx, st, userID, uid)
		if err != nil {
			return Fail(action, "%v", err)
		}
		now := time.Now().Unix()
		if _, err := st.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, DeletedTs: &now}); err != nil {
			return Fail(action, "delete note: %v", err)
		}
		if vs != nil {
			if err := vs.RemoveNote(ctx, note.CreatorID, note.UID); err != nil {
				slog.Warn("[AGENT TOOL] vector de-index failed", "note", note.UID, "err", err)
			}
		}
		return Succeed(action, map[string]any{"noteId": note.UID})
	}
}

func createReminder(st *store.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "create_reminder"
		message, _ := input["message"].(string)
		remindAt, err := parseRemindAt(input)
		if err != nil {
			return Fail(action, "%v", err)
		}
		notifyVia := "push"
		if v, ok := input["notifyVia"].(string); ok {
			notifyVia = v
		}
		reminder, err := st.CreateReminder(ctx, &store.Reminder{
			UID:       shortuuid.New(),
			CreatorID: userID,
			Message:   message,
			RemindAt:  remindAt,
			NotifyVia: notifyVia,
			Status:    store.ReminderStatusPending,
		})
		if err != nil {
			return Fail(action, "create reminder: %v", err)
		}
		data := map[string]any{"reminderId": reminder.UID, "message": reminder.Message}
		if reminder.RemindAt != nil {
			data["remindAt"] = time.Unix(*reminder.RemindAt, 0).UTC().Format(time.RFC3339)
		}
		return Succeed(action, data)
	}
}

func updateReminder(st *store.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "update_reminder"
		uid, _ := input["reminderId"].(string)
		reminder, err := findOwnedReminder(ctx, st, userID, uid)
		if err != nil {
			return Fail(action, "%v", err)
		}
		update := &store.UpdateReminder{ID: reminder.ID}
		if v, ok := input["message"].(string); ok {
			update.Message = &v
		}
		if v, ok := input["notifyVia"].(string); ok {
			update.NotifyVia = &v
		}
		if v, ok := input["status"].(string); ok {
			update.Status = &v
		}
		if remindAt, err := parseRemindAt(input); err != nil {
			return Fail(action, "%v", err)
		} else if remindAt != nil {
			update.RemindAt = remindAt
		}
		if update.Message == nil && update.NotifyVia == nil && update.RemindAt == nil && update.Status == nil {
			return Fail(action, "nothing to update: provide message, remindAt, status and/or notifyVia")
		}
		updated, err := st.UpdateReminder(ctx, update)
		if err != nil {
			return Fail(action, "update reminder: %v", err)
		}
		return Succeed(action, map[string]any{"reminderId": updated.UID, "message": updated.Message})
	}
}

func setReminderStatus(st *store.Store, action, status string) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		uid, _ := input["reminderId"].(string)
		reminder, err := findOwnedReminder(ctx, st, userID, uid)
		if err != nil {
			return Fail(action, "%v", err)
		}
		if _, err := st.UpdateReminder(ctx, &store.UpdateReminder{ID: reminder.ID, Status: &status}); err != nil {
			return Fail(action, "update reminder: %v", err)
		}
		return Succeed(action, map[string]any{"reminderId": reminder.UID, "status": status})
	}
}

func searchNotes(vs *vectorstore.Store) Executor {
	return func(ctx context.Context, userID int32, input map[string]any) ToolResult {
		const action = "search_notes"
		query, _ := input["query"].(string)
		hits, err := vs.SearchSimilar(ctx, userID, query, searchTopK)
		if err != nil {
			return Fail(action, "search notes: %v", err)
		}
		matches := make([]map[string]any, 0, len(hits))
		for _, hit := range hits {
			matches = append(matches, map[string]any{
				"noteId":  hit.NoteUID,
				"content": truncate(hit.Content, 200),
				"score":   hit.Score,
			})
		}
		return Succeed(action, map[string]any{"matches": matches})
	}
}

// findOwnedNote resolves a note uid scoped to userID. Other users' notes and
// soft-deleted notes look identical to missing ones from the caller's side.
func findOwnedNote(ctx context.Context, st *store.Store, userID int32, uid string) (*store.Note, error) {
	note, err := st.GetNote(ctx, &store.FindNote{UID: &uid, CreatorID: &userID, ExcludeDeleted: true})
	if err != nil {
		return nil, fmt.Errorf("find note: %w", err)
	}
	if note == nil {
		return nil, fmt.Errorf("note not found: %s", uid)
	}
	return note, nil
}

func findOwnedReminder(ctx context.Context, st *store.Store, userID int32, uid string) (*store.Reminder, error) {
	reminder, err := st.GetReminder(ctx, &store.FindReminder{UID: &uid, CreatorID: &userID})
	if err != nil {
		return nil, fmt.Errorf("find reminder: %w", err)
	}
	if reminder == nil {
		return nil, fmt.Errorf("reminder not found: %s", uid)
	}
	return reminder, nil
}

func parseRemindAt(input map[string]any) (*int64, error) {
	v, ok := input["remindAt"].(string)
	if !ok || v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("remindAt must be RFC 3339, got %q", v)
	}
	ts := t.Unix()
	return &ts, nil
}

// indexNote is best effort. A stale or missing vector entry degrades search
// quality but must not fail the tool call.
func indexNote(ctx context.Context, vs *vectorstore.Store, note *store.Note) {
	if vs == nil {
		return
	}
	if err := vs.UpsertNote(ctx, note.CreatorID, note.UID, note.Title, note.Content); err != nil {
		slog.Warn("[AGENT TOOL] vector index failed", "note", note.UID, "err", err)
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
