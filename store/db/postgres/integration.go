package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/lmangall/jot/store"
)

func (d *DB) CreateIntegration(ctx context.Context, create *store.Integration) (*store.Integration, error) {
	stmt := `INSERT INTO integration (creator_id, provider, base_url, api_key, active)
	         VALUES ($1, $2, $3, $4, $5) RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.CreatorID, create.Provider, create.BaseURL, create.APIKey, create.Active,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListIntegrations(ctx context.Context, find *store.FindIntegration) ([]*store.Integration, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Provider; v != nil {
		where, args = append(where, "provider = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.Active; v != nil {
		where, args = append(where, "active = "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, creator_id, provider, base_url, api_key, active, created_ts
		 FROM integration WHERE %s ORDER BY id ASC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Integration
	for rows.Next() {
		integration := &store.Integration{}
		if err := rows.Scan(
			&integration.ID, &integration.CreatorID, &integration.Provider,
			&integration.BaseURL, &integration.APIKey, &integration.Active, &integration.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, integration)
	}
	return list, rows.Err()
}
