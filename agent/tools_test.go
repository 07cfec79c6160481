package agent

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/lmangall/jot/store"
	"github.com/lmangall/jot/store/db/sqlite"
)

func newTestStore(t *testing.T) *store.Store {
	t.Helper()
	driver, err := sqlite.NewDB(filepath.Join(t.TempDir(), "jot.db"))
	require.NoError(t, err)
	st := store.New(driver)
	require.NoError(t, st.Migrate(context.Background()))
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func newTestUser(t *testing.T, st *store.Store, email string) *store.User {
	t.Helper()
	user, err := st.CreateUser(context.Background(), &store.User{
		UID:      shortuuid.New(),
		Email:    email,
		Nickname: "tester",
	})
	require.NoError(t, err)
	return user
}

func dispatch(t *testing.T, registry *Registry, userID int32, action, input string) ToolResult {
	t.Helper()
	return registry.Dispatch(context.Background(), userID, action, input)
}

func TestNoteLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "notes@example.com")
	registry := NewRegistry(StandardTools(st, nil)...)

	created := dispatch(t, registry, user.ID, "create_note",
		`{"title":"Groceries","content":"milk, eggs"}`)
	require.True(t, created.Success)
	noteID, ok := created.Data["noteId"].(string)
	require.True(t, ok)
	require.NotEmpty(t, noteID)

	updated := dispatch(t, registry, user.ID, "update_note",
		`{"noteId":"`+noteID+`","content":"milk, eggs, bread"}`)
	require.True(t, updated.Success)

	note, err := st.GetNote(ctx, &store.FindNote{UID: &noteID})
	require.NoError(t, err)
	require.Equal(t, "milk, eggs, bread", note.Content)
	require.Equal(t, "Groceries", note.Title)

	deleted := dispatch(t, registry, user.ID, "delete_note", `{"noteId":"`+noteID+`"}`)
	require.True(t, deleted.Success)

	// Soft-deleted notes look like missing ones to subsequent tool calls.
	again := dispatch(t, registry, user.ID, "update_note",
		`{"noteId":"`+noteID+`","content":"x"}`)
	require.False(t, again.Success)
	require.Contains(t, again.Error, "note not found")
}

func TestNoteOwnershipScoping(t *testing.T) {
	st := newTestStore(t)
	owner := newTestUser(t, st, "owner@example.com")
	other := newTestUser(t, st, "other@example.com")
	registry := NewRegistry(StandardTools(st, nil)...)

	created := dispatch(t, registry, owner.ID, "create_note",
		`{"title":"secret","content":"mine"}`)
	require.True(t, created.Success)
	noteID := created.Data["noteId"].(string)

	stolen := dispatch(t, registry, other.ID, "delete_note", `{"noteId":"`+noteID+`"}`)
	require.False(t, stolen.Success)
	require.Contains(t, stolen.Error, "note not found")
}

func TestReminderLifecycle(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "reminders@example.com")
	registry := NewRegistry(StandardTools(st, nil)...)

	created := dispatch(t, registry, user.ID, "create_reminder",
		`{"message":"call the dentist","remindAt":"2026-09-01T09:00:00Z","notifyVia":"email"}`)
	require.True(t, created.Success)
	reminderID := created.Data["reminderId"].(string)

	reminder, err := st.GetReminder(ctx, &store.FindReminder{UID: &reminderID})
	require.NoError(t, err)
	require.Equal(t, store.ReminderStatusPending, reminder.Status)
	require.Equal(t, "email", reminder.NotifyVia)
	require.NotNil(t, reminder.RemindAt)
	require.Equal(t, time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC).Unix(), *reminder.RemindAt)

	completed := dispatch(t, registry, user.ID, "complete_reminder",
		`{"reminderId":"`+reminderID+`"}`)
	require.True(t, completed.Success)

	reminder, err = st.GetReminder(ctx, &store.FindReminder{UID: &reminderID})
	require.NoError(t, err)
	require.Equal(t, store.ReminderStatusCompleted, reminder.Status)
}

func TestCreateReminderWithoutDueTime(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st, "floating@example.com")
	registry := NewRegistry(StandardTools(st, nil)...)

	created := dispatch(t, registry, user.ID, "create_reminder", `{"message":"someday: learn piano"}`)
	require.True(t, created.Success)

	reminderID := created.Data["reminderId"].(string)
	reminder, err := st.GetReminder(context.Background(), &store.FindReminder{UID: &reminderID})
	require.NoError(t, err)
	require.Nil(t, reminder.RemindAt)
}

func TestCreateReminderRejectsBadTime(t *testing.T) {
	st := newTestStore(t)
	user := newTestUser(t, st, "badtime@example.com")
	registry := NewRegistry(StandardTools(st, nil)...)

	result := dispatch(t, registry, user.ID, "create_reminder",
		`{"message":"x","remindAt":"tomorrow at nine"}`)
	require.False(t, result.Success)
	require.Contains(t, result.Error, "RFC 3339")
}
