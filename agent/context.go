package agent

import (
	"context"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/lmangall/jot/store"
)

const notePreviewLen = 200

var hashtagPattern = regexp.MustCompile(`#([\p{L}\p{N}_-]+)`)

// NoteSnapshot is a compact view of a note for prompt embedding.
type NoteSnapshot struct {
	UID     string
	Title   string
	Preview string
}

// ReminderSnapshot is a compact view of a pending reminder.
type ReminderSnapshot struct {
	UID      string
	Message  string
	RemindAt *int64
	Status   string
}

// UserContext is the snapshot of a user's data embedded into the system
// prompt so the model can reference existing entities by id instead of
// guessing or duplicating them.
type UserContext struct {
	Notes        []NoteSnapshot
	Reminders    []ReminderSnapshot
	Tags         []string
	Integrations []*store.Integration
}

// BuildUserContext fans out the snapshot reads concurrently. Any failing
// read fails the build; the agent must not reason over a partial view.
func BuildUserContext(ctx context.Context, st *store.Store, userID int32) (*UserContext, error) {
	uc := &UserContext{}
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		notes, err := st.ListNotes(gctx, &store.FindNote{CreatorID: &userID, ExcludeDeleted: true})
		if err != nil {
			return err
		}
		tagSet := map[string]struct{}{}
		for _, note := range notes {
			uc.Notes = append(uc.Notes, NoteSnapshot{
				UID:     note.UID,
				Title:   note.Title,
				Preview: truncate(note.Content, notePreviewLen),
			})
			for _, match := range hashtagPattern.FindAllStringSubmatch(note.Content, -1) {
				tagSet[strings.ToLower(match[1])] = struct{}{}
			}
		}
		for tag := range tagSet {
			uc.Tags = append(uc.Tags, tag)
		}
		sort.Strings(uc.Tags)
		return nil
	})

	g.Go(func() error {
		reminders, err := st.ListReminders(gctx, &store.FindReminder{
			CreatorID: &userID,
			Statuses:  []string{store.ReminderStatusPending},
		})
		if err != nil {
			return err
		}
		for _, reminder := range reminders {
			uc.Reminders = append(uc.Reminders, ReminderSnapshot{
				UID:      reminder.UID,
				Message:  reminder.Message,
				RemindAt: reminder.RemindAt,
				Status:   reminder.Status,
			})
		}
		return nil
	})

	g.Go(func() error {
		active := true
		integrations, err := st.ListIntegrations(gctx, &store.FindIntegration{
			CreatorID: &userID,
			Active:    &active,
		})
		if err != nil {
			return err
		}
		uc.Integrations = integrations
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return uc, nil
}
