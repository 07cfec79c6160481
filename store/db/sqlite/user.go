package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lmangall/jot/store"
)

func (d *DB) CreateUser(ctx context.Context, create *store.User) (*store.User, error) {
	stmt := `INSERT INTO user (uid, email, nickname) VALUES (?, ?, ?) RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.UID, create.Email, create.Nickname).
		Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) GetUser(ctx context.Context, find *store.FindUser) (*store.User, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "email = ? COLLATE NOCASE"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, email, nickname, created_ts FROM user WHERE %s LIMIT 1`,
		strings.Join(where, " AND "),
	)
	user := &store.User{}
	err := d.db.QueryRowContext(ctx, query, args...).
		Scan(&user.ID, &user.UID, &user.Email, &user.Nickname, &user.CreatedTs)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return user, nil
}
