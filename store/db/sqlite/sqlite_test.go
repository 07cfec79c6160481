package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/lmangall/jot/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "jot.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(context.Background()))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func createUser(t *testing.T, db *DB, email string) *store.User {
	t.Helper()
	user, err := db.CreateUser(context.Background(), &store.User{
		UID: shortuuid.New(), Email: email, Nickname: "t",
	})
	require.NoError(t, err)
	return user
}

func TestNoteSoftDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "soft@example.com")

	note, err := db.CreateNote(ctx, &store.Note{
		UID: shortuuid.New(), CreatorID: user.ID, Title: "t", Content: "c",
	})
	require.NoError(t, err)
	require.NotZero(t, note.ID)
	require.NotZero(t, note.CreatedTs)

	deletedTs := int64(123)
	_, err = db.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, DeletedTs: &deletedTs})
	require.NoError(t, err)

	visible, err := db.ListNotes(ctx, &store.FindNote{CreatorID: &user.ID, ExcludeDeleted: true})
	require.NoError(t, err)
	require.Empty(t, visible)

	all, err := db.ListNotes(ctx, &store.FindNote{CreatorID: &user.ID})
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.NotNil(t, all[0].DeletedTs)
}

func TestReminderStatusFilter(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "filter@example.com")

	for _, status := range []string{
		store.ReminderStatusPending,
		store.ReminderStatusCompleted,
		store.ReminderStatusCancelled,
	} {
		_, err := db.CreateReminder(ctx, &store.Reminder{
			UID: shortuuid.New(), CreatorID: user.ID, Message: status,
			NotifyVia: "push", Status: status,
		})
		require.NoError(t, err)
	}

	pending, err := db.ListReminders(ctx, &store.FindReminder{
		CreatorID: &user.ID,
		Statuses:  []string{store.ReminderStatusPending},
	})
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, store.ReminderStatusPending, pending[0].Status)

	open, err := db.ListReminders(ctx, &store.FindReminder{
		CreatorID: &user.ID,
		Statuses:  []string{store.ReminderStatusPending, store.ReminderStatusCancelled},
	})
	require.NoError(t, err)
	require.Len(t, open, 2)
}

func TestConversationCascadeDelete(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "cascade@example.com")

	conversation, err := db.CreateConversation(ctx, &store.Conversation{
		UID: shortuuid.New(), CreatorID: user.ID, Title: "t",
	})
	require.NoError(t, err)
	_, err = db.CreateMessage(ctx, &store.Message{
		ConversationID: conversation.ID, Role: store.MessageRoleUser, Content: "hi",
	})
	require.NoError(t, err)

	require.NoError(t, db.DeleteConversation(ctx, conversation.UID))

	messages, err := db.ListMessages(ctx, &store.FindMessage{ConversationID: conversation.ID})
	require.NoError(t, err)
	require.Empty(t, messages)
}

func TestIngestionLogOverwrite(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "log@example.com")

	log, err := db.CreateIngestionLog(ctx, &store.IngestionLog{
		UID: shortuuid.New(), CreatorID: &user.ID,
		FromAddress: "a@example.com", ToAddress: "1@in.jot.app",
		Subject: "s", RawBody: "b", Status: store.IngestionStatusPending,
	})
	require.NoError(t, err)

	noteID := int32(42)
	updated, err := db.UpdateIngestionLog(ctx, &store.UpdateIngestionLog{
		UID:           log.UID,
		Status:        store.IngestionStatusProcessed,
		AIResult:      "done",
		PrimaryAction: "create_note",
		NoteID:        &noteID,
	})
	require.NoError(t, err)
	require.Equal(t, store.IngestionStatusProcessed, updated.Status)
	require.Equal(t, "b", updated.RawBody, "raw body survives outcome overwrite")
	require.NotNil(t, updated.NoteID)

	// A later failed replay clears the earlier links and result.
	updated, err = db.UpdateIngestionLog(ctx, &store.UpdateIngestionLog{
		UID:          log.UID,
		Status:       store.IngestionStatusFailed,
		ErrorMessage: "boom",
	})
	require.NoError(t, err)
	require.Equal(t, store.IngestionStatusFailed, updated.Status)
	require.Empty(t, updated.AIResult)
	require.Nil(t, updated.NoteID)
}

func TestGetUserByEmail(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	user := createUser(t, db, "lookup@example.com")

	email := "lookup@example.com"
	found, err := db.GetUser(ctx, &store.FindUser{Email: &email})
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, user.ID, found.ID)

	missing := "nobody@example.com"
	found, err = db.GetUser(ctx, &store.FindUser{Email: &missing})
	require.NoError(t, err)
	require.Nil(t, found)
}
