package store

import "context"

// Reminder statuses. The cron sweep (external) reads pending reminders with a
// due time in the past and flips them to sent after dispatching.
const (
	ReminderStatusPending   = "pending"
	ReminderStatusCompleted = "completed"
	ReminderStatusCancelled = "cancelled"
	ReminderStatusSent      = "sent"
)

// Reminder is a scheduled or free-floating nudge. RemindAt is nil for
// reminders without a due time.
type Reminder struct {
	ID        int32
	UID       string
	CreatorID int32
	Message   string
	RemindAt  *int64
	NotifyVia string
	Status    string
	CreatedTs int64
	UpdatedTs int64
}

// FindReminder filters for ListReminders.
type FindReminder struct {
	ID        *int32
	UID       *string
	CreatorID *int32
	Statuses  []string
	DueBefore *int64
}

// UpdateReminder carries the mutable fields.
type UpdateReminder struct {
	ID        int32
	Message   *string
	RemindAt  *int64
	NotifyVia *string
	Status    *string
}

// CreateReminder inserts a new reminder.
func (s *Store) CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error) {
	return s.driver.CreateReminder(ctx, create)
}

// ListReminders lists reminders matching the filter, soonest due first.
func (s *Store) ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error) {
	return s.driver.ListReminders(ctx, find)
}

// GetReminder returns the first reminder matching the filter, or nil.
func (s *Store) GetReminder(ctx context.Context, find *FindReminder) (*Reminder, error) {
	list, err := s.driver.ListReminders(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateReminder patches a reminder and returns the updated row.
func (s *Store) UpdateReminder(ctx context.Context, update *UpdateReminder) (*Reminder, error) {
	return s.driver.UpdateReminder(ctx, update)
}
