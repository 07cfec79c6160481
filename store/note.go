package store

import "context"

// Note is a personal note. Deletion is soft: DeletedTs is set and the row is
// excluded from listings, so tool calls referencing a stale id fail cleanly.
type Note struct {
	ID        int32
	UID       string
	CreatorID int32
	Title     string
	Content   string
	CreatedTs int64
	UpdatedTs int64
	DeletedTs *int64
}

// FindNote filters for ListNotes.
type FindNote struct {
	ID             *int32
	UID            *string
	CreatorID      *int32
	ExcludeDeleted bool
}

// UpdateNote carries the mutable fields. Setting DeletedTs soft-deletes.
type UpdateNote struct {
	ID        int32
	Title     *string
	Content   *string
	DeletedTs *int64
}

// CreateNote inserts a new note.
func (s *Store) CreateNote(ctx context.Context, create *Note) (*Note, error) {
	return s.driver.CreateNote(ctx, create)
}

// ListNotes lists notes matching the filter, newest update first.
func (s *Store) ListNotes(ctx context.Context, find *FindNote) ([]*Note, error) {
	return s.driver.ListNotes(ctx, find)
}

// GetNote returns the first note matching the filter, or nil.
func (s *Store) GetNote(ctx context.Context, find *FindNote) (*Note, error) {
	list, err := s.driver.ListNotes(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// UpdateNote patches a note and returns the updated row.
func (s *Store) UpdateNote(ctx context.Context, update *UpdateNote) (*Note, error) {
	return s.driver.UpdateNote(ctx, update)
}
