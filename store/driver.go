package store

import "context"

// Driver is the contract every database backend implements.
type Driver interface {
	Migrate(ctx context.Context) error
	Close() error

	CreateUser(ctx context.Context, create *User) (*User, error)
	GetUser(ctx context.Context, find *FindUser) (*User, error)

	CreateNote(ctx context.Context, create *Note) (*Note, error)
	ListNotes(ctx context.Context, find *FindNote) ([]*Note, error)
	UpdateNote(ctx context.Context, update *UpdateNote) (*Note, error)

	CreateReminder(ctx context.Context, create *Reminder) (*Reminder, error)
	ListReminders(ctx context.Context, find *FindReminder) ([]*Reminder, error)
	UpdateReminder(ctx context.Context, update *UpdateReminder) (*Reminder, error)

	CreateConversation(ctx context.Context, create *Conversation) (*Conversation, error)
	ListConversations(ctx context.Context, find *FindConversation) ([]*Conversation, error)
	TouchConversation(ctx context.Context, uid string) error
	DeleteConversation(ctx context.Context, uid string) error

	CreateMessage(ctx context.Context, create *Message) (*Message, error)
	ListMessages(ctx context.Context, find *FindMessage) ([]*Message, error)

	CreateIngestionLog(ctx context.Context, create *IngestionLog) (*IngestionLog, error)
	ListIngestionLogs(ctx context.Context, find *FindIngestionLog) ([]*IngestionLog, error)
	UpdateIngestionLog(ctx context.Context, update *UpdateIngestionLog) (*IngestionLog, error)

	CreateIntegration(ctx context.Context, create *Integration) (*Integration, error)
	ListIntegrations(ctx context.Context, find *FindIntegration) ([]*Integration, error)
}
