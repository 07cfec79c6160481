package store

import "context"

// Message roles.
const (
	MessageRoleUser      = "user"
	MessageRoleAssistant = "assistant"
)

// Message is a single turn within a conversation. Immutable once written.
// ToolResults is a JSON-encoded []agent.ToolResult and is only populated on
// assistant messages.
type Message struct {
	ID             int32
	ConversationID int32
	Role           string
	Content        string
	ToolResults    string
	CreatedTs      int64
}

// FindMessage filters for ListMessages.
type FindMessage struct {
	ConversationID int32
}

// CreateMessage appends a message to a conversation.
func (s *Store) CreateMessage(ctx context.Context, create *Message) (*Message, error) {
	return s.driver.CreateMessage(ctx, create)
}

// ListMessages returns all messages of a conversation, oldest first.
func (s *Store) ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error) {
	return s.driver.ListMessages(ctx, find)
}
