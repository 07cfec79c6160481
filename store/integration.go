package store

import "context"

// IntegrationProviderCalendar is the only third-party provider wired today.
const IntegrationProviderCalendar = "calendar"

// Integration is an active connection to a third-party service whose tools
// are merged into the agent's tool set per invocation.
type Integration struct {
	ID        int32
	CreatorID int32
	Provider  string
	BaseURL   string
	APIKey    string
	Active    bool
	CreatedTs int64
}

// FindIntegration filters for ListIntegrations.
type FindIntegration struct {
	CreatorID *int32
	Provider  *string
	Active    *bool
}

// CreateIntegration registers an integration for a user.
func (s *Store) CreateIntegration(ctx context.Context, create *Integration) (*Integration, error) {
	return s.driver.CreateIntegration(ctx, create)
}

// ListIntegrations lists integrations matching the filter.
func (s *Store) ListIntegrations(ctx context.Context, find *FindIntegration) ([]*Integration, error) {
	return s.driver.ListIntegrations(ctx, find)
}
