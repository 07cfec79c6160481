package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lmangall/jot/store"
)

func (d *DB) CreateNote(ctx context.Context, create *store.Note) (*store.Note, error) {
	stmt := `INSERT INTO note (uid, creator_id, title, content) VALUES ($1, $2, $3, $4)
	         RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt, create.UID, create.CreatorID, create.Title, create.Content).
		Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListNotes(ctx context.Context, find *store.FindNote) ([]*store.Note, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.ID; v != nil {
		where, args = append(where, "id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = "+placeholder(len(args)+1)), append(args, *v)
	}
	if find.ExcludeDeleted {
		where = append(where, "deleted_ts IS NULL")
	}
	query := fmt.Sprintf(
		`SELECT id, uid, creator_id, title, content, created_ts, updated_ts, deleted_ts
		 FROM note WHERE %s ORDER BY updated_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Note
	for rows.Next() {
		note := &store.Note{}
		var deletedTs sql.NullInt64
		if err := rows.Scan(
			&note.ID, &note.UID, &note.CreatorID, &note.Title, &note.Content,
			&note.CreatedTs, &note.UpdatedTs, &deletedTs,
		); err != nil {
			return nil, err
		}
		if deletedTs.Valid {
			note.DeletedTs = &deletedTs.Int64
		}
		list = append(list, note)
	}
	return list, rows.Err()
}

func (d *DB) UpdateNote(ctx context.Context, update *store.UpdateNote) (*store.Note, error) {
	set, args := []string{}, []any{}
	if v := update.Title; v != nil {
		set, args = append(set, "title = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Content; v != nil {
		set, args = append(set, "content = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.DeletedTs; v != nil {
		set, args = append(set, "deleted_ts = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return d.getNote(ctx, update.ID)
	}
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	args = append(args, update.ID)
	stmt := fmt.Sprintf("UPDATE note SET %s WHERE id = %s", strings.Join(set, ", "), placeholder(len(args)))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, err
	}
	return d.getNote(ctx, update.ID)
}

func (d *DB) getNote(ctx context.Context, id int32) (*store.Note, error) {
	list, err := d.ListNotes(ctx, &store.FindNote{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
