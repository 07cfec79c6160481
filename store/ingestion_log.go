package store

import "context"

// IngestionLog statuses.
const (
	IngestionStatusPending   = "pending"
	IngestionStatusProcessed = "processed"
	IngestionStatusFailed    = "failed"
)

// IngestionLog is the audit record for the asynchronous email channel: one row
// per inbound message, overwritten in place when the message is reprocessed.
// Identity (uid) and the raw input are retained across replays; only the
// outcome fields change.
type IngestionLog struct {
	ID            int32
	UID           string
	CreatorID     *int32
	FromAddress   string
	ToAddress     string
	Subject       string
	RawBody       string
	AIResult      string
	PrimaryAction string
	Status        string
	ErrorMessage  string
	NoteID        *int32
	ReminderID    *int32
	CreatedTs     int64
}

// FindIngestionLog filters for ListIngestionLogs.
type FindIngestionLog struct {
	UID       *string
	CreatorID *int32
}

// UpdateIngestionLog overwrites a log's outcome fields. All outcome fields are
// replaced wholesale so a successful replay clears an earlier error and links.
type UpdateIngestionLog struct {
	UID           string
	Status        string
	AIResult      string
	PrimaryAction string
	ErrorMessage  string
	NoteID        *int32
	ReminderID    *int32
}

// CreateIngestionLog records an inbound message attempt.
func (s *Store) CreateIngestionLog(ctx context.Context, create *IngestionLog) (*IngestionLog, error) {
	return s.driver.CreateIngestionLog(ctx, create)
}

// ListIngestionLogs lists logs matching the filter, newest first.
func (s *Store) ListIngestionLogs(ctx context.Context, find *FindIngestionLog) ([]*IngestionLog, error) {
	return s.driver.ListIngestionLogs(ctx, find)
}

// GetIngestionLog returns the first log matching the filter, or nil.
func (s *Store) GetIngestionLog(ctx context.Context, find *FindIngestionLog) (*IngestionLog, error) {
	list, err := s.driver.ListIngestionLogs(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateIngestionLog overwrites the outcome of a previous ingestion attempt.
func (s *Store) UpdateIngestionLog(ctx context.Context, update *UpdateIngestionLog) (*IngestionLog, error) {
	return s.driver.UpdateIngestionLog(ctx, update)
}
