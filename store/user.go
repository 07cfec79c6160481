package store

import "context"

// User is the owner of all personal records. Credential management lives
// outside this service; we only need the row for token and email resolution.
type User struct {
	ID        int32
	UID       string
	Email     string
	Nickname  string
	CreatedTs int64
}

// FindUser filters for GetUser.
type FindUser struct {
	ID    *int32
	Email *string
}

// CreateUser inserts a new user.
func (s *Store) CreateUser(ctx context.Context, create *User) (*User, error) {
	return s.driver.CreateUser(ctx, create)
}

// GetUser returns the first user matching the filter, or nil.
func (s *Store) GetUser(ctx context.Context, find *FindUser) (*User, error) {
	return s.driver.GetUser(ctx, find)
}
