package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/lmangall/jot/store"
)

func (d *DB) CreateIngestionLog(ctx context.Context, create *store.IngestionLog) (*store.IngestionLog, error) {
	var creatorID any
	if create.CreatorID != nil {
		creatorID = *create.CreatorID
	}
	stmt := `INSERT INTO ingestion_log
	         (uid, creator_id, from_address, to_address, subject, raw_body, status, error_message)
	         VALUES (?, ?, ?, ?, ?, ?, ?, ?) RETURNING id, created_ts`
	if err := d.db.QueryRowContext(ctx, stmt,
		create.UID, creatorID, create.FromAddress, create.ToAddress,
		create.Subject, create.RawBody, create.Status, create.ErrorMessage,
	).Scan(&create.ID, &create.CreatedTs); err != nil {
		return nil, err
	}
	return create, nil
}

func (d *DB) ListIngestionLogs(ctx context.Context, find *store.FindIngestionLog) ([]*store.IngestionLog, error) {
	where, args := []string{"1 = 1"}, []any{}
	if v := find.UID; v != nil {
		where, args = append(where, "uid = ?"), append(args, *v)
	}
	if v := find.CreatorID; v != nil {
		where, args = append(where, "creator_id = ?"), append(args, *v)
	}
	query := fmt.Sprintf(
		`SELECT id, uid, creator_id, from_address, to_address, subject, raw_body,
		        ai_result, primary_action, status, error_message, note_id, reminder_id, created_ts
		 FROM ingestion_log WHERE %s ORDER BY created_ts DESC, id DESC`,
		strings.Join(where, " AND "),
	)
	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []*store.IngestionLog
	for rows.Next() {
		log := &store.IngestionLog{}
		var creatorID, noteID, reminderID sql.NullInt64
		if err := rows.Scan(
			&log.ID, &log.UID, &creatorID, &log.FromAddress, &log.ToAddress,
			&log.Subject, &log.RawBody, &log.AIResult, &log.PrimaryAction,
			&log.Status, &log.ErrorMessage, &noteID, &reminderID, &log.CreatedTs,
		); err != nil {
			return nil, err
		}
		if creatorID.Valid {
			v := int32(creatorID.Int64)
			log.CreatorID = &v
		}
		if noteID.Valid {
			v := int32(noteID.Int64)
			log.NoteID = &v
		}
		if reminderID.Valid {
			v := int32(reminderID.Int64)
			log.ReminderID = &v
		}
		list = append(list, log)
	}
	return list, rows.Err()
}

func (d *DB) UpdateIngestionLog(ctx context.Context, update *store.UpdateIngestionLog) (*store.IngestionLog, error) {
	var noteID, reminderID any
	if update.NoteID != nil {
		noteID = *update.NoteID
	}
	if update.ReminderID != nil {
		reminderID = *update.ReminderID
	}
	stmt := `UPDATE ingestion_log
	         SET status = ?, ai_result = ?, primary_action = ?, error_message = ?, note_id = ?, reminder_id = ?
	         WHERE uid = ?`
	if _, err := d.db.ExecContext(ctx, stmt,
		update.Status, update.AIResult, update.PrimaryAction, update.ErrorMessage,
		noteID, reminderID, update.UID,
	); err != nil {
		return nil, err
	}
	list, err := d.ListIngestionLogs(ctx, &store.FindIngestionLog{UID: &update.UID})
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}
	return list[0], nil
}
