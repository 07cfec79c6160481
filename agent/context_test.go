package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/lithammer/shortuuid/v4"
	"github.com/stretchr/testify/require"

	"github.com/lmangall/jot/store"
)

func TestBuildUserContext(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "ctx@example.com")
	other := newTestUser(t, st, "ctx-other@example.com")

	_, err := st.CreateNote(ctx, &store.Note{
		UID: shortuuid.New(), CreatorID: user.ID,
		Title: "long one", Content: strings.Repeat("x", 500) + " #golang #Project",
	})
	require.NoError(t, err)
	_, err = st.CreateNote(ctx, &store.Note{
		UID: shortuuid.New(), CreatorID: other.ID,
		Title: "not yours", Content: "#hidden",
	})
	require.NoError(t, err)

	due := int64(1_900_000_000)
	_, err = st.CreateReminder(ctx, &store.Reminder{
		UID: shortuuid.New(), CreatorID: user.ID, Message: "water plants",
		RemindAt: &due, NotifyVia: "push", Status: store.ReminderStatusPending,
	})
	require.NoError(t, err)
	_, err = st.CreateReminder(ctx, &store.Reminder{
		UID: shortuuid.New(), CreatorID: user.ID, Message: "already done",
		NotifyVia: "push", Status: store.ReminderStatusCompleted,
	})
	require.NoError(t, err)

	_, err = st.CreateIntegration(ctx, &store.Integration{
		CreatorID: user.ID, Provider: store.IntegrationProviderCalendar,
		BaseURL: "https://cal.example.com", APIKey: "k", Active: true,
	})
	require.NoError(t, err)

	uc, err := BuildUserContext(ctx, st, user.ID)
	require.NoError(t, err)

	require.Len(t, uc.Notes, 1)
	require.Equal(t, "long one", uc.Notes[0].Title)
	require.LessOrEqual(t, len([]rune(strings.TrimSuffix(uc.Notes[0].Preview, "..."))), notePreviewLen)

	require.Len(t, uc.Reminders, 1)
	require.Equal(t, "water plants", uc.Reminders[0].Message)

	require.Equal(t, []string{"golang", "project"}, uc.Tags)

	require.Len(t, uc.Integrations, 1)
	require.Equal(t, store.IntegrationProviderCalendar, uc.Integrations[0].Provider)
}

func TestBuildUserContextExcludesDeletedNotes(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	user := newTestUser(t, st, "deleted@example.com")

	note, err := st.CreateNote(ctx, &store.Note{
		UID: shortuuid.New(), CreatorID: user.ID, Title: "gone", Content: "bye",
	})
	require.NoError(t, err)
	deletedTs := int64(1)
	_, err = st.UpdateNote(ctx, &store.UpdateNote{ID: note.ID, DeletedTs: &deletedTs})
	require.NoError(t, err)

	uc, err := BuildUserContext(ctx, st, user.ID)
	require.NoError(t, err)
	require.Empty(t, uc.Notes)
	require.Empty(t, uc.Tags)
}

func TestSystemPromptEmbedsSnapshot(t *testing.T) {
	due := int64(1_900_000_000)
	uc := &UserContext{
		Notes:     []NoteSnapshot{{UID: "n1", Title: "Groceries", Preview: "milk"}},
		Reminders: []ReminderSnapshot{{UID: "r1", Message: "water plants", RemindAt: &due}},
		Tags:      []string{"golang"},
	}
	prompt := buildSystemPrompt(uc, "Europe/Paris")
	require.Contains(t, prompt, "[n1] Groceries: milk")
	require.Contains(t, prompt, "[r1] water plants")
	require.Contains(t, prompt, "golang")
	require.Contains(t, prompt, "update it instead of creating a duplicate")
}
