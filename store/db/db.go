// Package db selects a concrete store driver from the runtime profile.
package db

import (
	"github.com/pkg/errors"

	"github.com/lmangall/jot/server/profile"
	"github.com/lmangall/jot/store"
	"github.com/lmangall/jot/store/db/postgres"
	"github.com/lmangall/jot/store/db/sqlite"
)

// NewDriver opens the database backend named by the profile.
func NewDriver(prof *profile.Profile) (store.Driver, error) {
	switch prof.Driver {
	case "sqlite", "":
		return sqlite.NewDB(prof.DSN)
	case "postgres":
		return postgres.NewDB(prof.DSN)
	default:
		return nil, errors.Errorf("unknown db driver %q", prof.Driver)
	}
}
