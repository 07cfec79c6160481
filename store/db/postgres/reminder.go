package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lmangall/jot/store"
)

func (d *DB) CreateReminder(ctx context.Context, create *store.Reminder) (*store.Reminder, error) {
	var remindAt any
	if create.RemindAt != nil {
		remindAt = *create.RemindAt
	}
	stmt := `INSERT INTO reminder (uid, creator_id, message, remind_at, notify_via, status)
	         VALUES ($1, $2, $3, $4, $5, $6) RETURNING id, created_ts, updated_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, create.CreatorID, create.Message, remindAt, create.NotifyVia, create.Status,
	).Scan(&create.ID, &create.CreatedTs, &create.UpdatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListReminders(ctx context.Context, find *store.FindReminder) ([]*store.Reminder, error) {
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
	if len(find.Statuses) > 0 {
		marks := make([]string, len(find.Statuses))
		for i, status := range find.Statuses {
			marks[i] = placeholder(len(args) + 1)
			args = append(args, status)
		}
		where = append(where, fmt.Sprintf("status IN (%s)", strings.Join(marks, ", ")))
	}
	if v := find.DueBefore; v != nil {
		where, args = append(where, "remind_at IS NOT NULL AND remind_at <= "+placeholder(len(args)+1)), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, creator_id, message, remind_at, notify_via, status, created_ts, updated_ts
		 FROM reminder WHERE %s ORDER BY remind_at ASC NULLS LAST, id ASC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.Reminder
	for rows.Next() {
		reminder := &store.Reminder{}
		var remindAt sql.NullInt64
		if err := rows.Scan(
			&reminder.ID, &reminder.UID, &reminder.CreatorID, &reminder.Message,
			&remindAt, &reminder.NotifyVia, &reminder.Status,
			&reminder.CreatedTs, &reminder.UpdatedTs,
		); err != nil {
			return nil, err
		}
		if remindAt.Valid {
			reminder.RemindAt = &remindAt.Int64
		}
		list = append(list, reminder)
	}
	return list, rows.Err()
}

func (d *DB) UpdateReminder(ctx context.Context, update *store.UpdateReminder) (*store.Reminder, error) {
	set, args := []string{}, []any{}
	if v := update.Message; v != nil {
		set, args = append(set, "message = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.RemindAt; v != nil {
		set, args = append(set, "remind_at = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.NotifyVia; v != nil {
		set, args = append(set, "notify_via = "+placeholder(len(args)+1)), append(args, *v)
	}
	if v := update.Status; v != nil {
		set, args = append(set, "status = "+placeholder(len(args)+1)), append(args, *v)
	}
	if len(set) == 0 {
		return d.getReminder(ctx, update.ID)
	}
	set = append(set, "updated_ts = EXTRACT(EPOCH FROM NOW())")
	args = append(args, update.ID)
	stmt := fmt.Sprintf("UPDATE reminder SET %s WHERE id = %s", strings.Join(set, ", "), placeholder(len(args)))
	if _, err := d.db.ExecContext(ctx, stmt, args...); err != nil {
		return nil, err
	}
	return d.getReminder(ctx, update.ID)
}

func (d *DB) getReminder(ctx context.Context, id int32) (*store.Reminder, error) {
	list, err := d.ListReminders(ctx, &store.FindReminder{ID: &id})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
