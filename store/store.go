// Package store defines the persistence models and the facade over the
// database driver. Handlers and tools talk to *Store only; SQL lives in
// store/db/<driver>.
package store

import "context"

// Store wraps a Driver with the application-facing persistence API.
type Store struct {
	driver Driver
}

// New creates a store backed by the given driver.
func New(driver Driver) *Store {
	return &Store{driver: driver}
}

// Migrate creates or upgrades the schema.
func (s *Store) Migrate(ctx context.Context) error {
	return s.driver.Migrate(ctx)
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.driver.Close()
}
