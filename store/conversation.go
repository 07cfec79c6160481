package store

import "context"

// Conversation is a single chat thread. The title never changes after
// creation; UpdatedTs is bumped whenever a message is appended.
type Conversation struct {
	ID        int32
	UID       string
	CreatorID int32
	Title     string
	CreatedTs int64
	UpdatedTs int64
}

// FindConversation filters for ListConversations.
type FindConversation struct {
	ID        *int32
	UID       *string
	CreatorID *int32
}

// CreateConversation creates a new conversation thread.
func (s *Store) CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error) {
	return s.driver.CreateConversation(ctx, create)
}

// ListConversations lists conversations matching the filter, most recently
// updated first.
func (s *Store) ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error) {
	return s.driver.ListConversations(ctx, find)
}

// GetConversation returns the first conversation matching the filter, or nil.
func (s *Store) GetConversation(ctx context.Context, find *FindConversation) (*Conversation, error) {
	list, err := s.driver.ListConversations(ctx, find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}

// TouchConversation bumps UpdatedTs after a message is appended.
func (s *Store) TouchConversation(ctx context.Context, uid string) error {
	return s.driver.TouchConversation(ctx, uid)
}

// DeleteConversation deletes a conversation and all its messages (cascade).
func (s *Store) DeleteConversation(ctx context.Context, uid string) error {
	return s.driver.DeleteConversation(ctx, uid)
}
