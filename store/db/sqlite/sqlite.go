// Package sqlite implements store.Driver on modernc.org/sqlite. It is the
// default backend: a single file, no server, good enough for one household of
// users.
package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DB is the sqlite-backed driver.
type DB struct {
	db *sql.DB
}

// NewDB opens (and creates if missing) the database file at dbPath.
func NewDB(dbPath string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, errors.Wrap(err, "create database directory")
	}

	// WAL keeps readers from blocking the writer; foreign_keys makes the
	// conversation -> message cascade actually fire.
	dsn := dbPath + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "open database")
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, errors.Wrap(err, "ping database")
	}
	return &DB{db: db}, nil
}

// Migrate creates the schema.
func (d *DB) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT    NOT NULL UNIQUE,
			email      TEXT    NOT NULL UNIQUE,
			nickname   TEXT    NOT NULL DEFAULT '',
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS note (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT    NOT NULL UNIQUE,
			creator_id INTEGER NOT NULL,
			title      TEXT    NOT NULL,
			content    TEXT    NOT NULL DEFAULT '',
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now')),
			deleted_ts BIGINT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_note_creator ON note(creator_id)`,
		`CREATE TABLE IF NOT EXISTS reminder (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT    NOT NULL UNIQUE,
			creator_id INTEGER NOT NULL,
			message    TEXT    NOT NULL,
			remind_at  BIGINT,
			notify_via TEXT    NOT NULL DEFAULT 'push',
			status     TEXT    NOT NULL DEFAULT 'pending',
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_reminder_due ON reminder(status, remind_at)`,
		`CREATE TABLE IF NOT EXISTS conversation (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			uid        TEXT    NOT NULL UNIQUE,
			creator_id INTEGER NOT NULL,
			title      TEXT    NOT NULL,
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now')),
			updated_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS message (
			id              INTEGER PRIMARY KEY AUTOINCREMENT,
			conversation_id INTEGER NOT NULL REFERENCES conversation(id) ON DELETE CASCADE,
			role            TEXT    NOT NULL,
			content         TEXT    NOT NULL,
			tool_results    TEXT    NOT NULL DEFAULT '',
			created_ts      BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE INDEX IF NOT EXISTS idx_message_conversation ON message(conversation_id)`,
		`CREATE TABLE IF NOT EXISTS ingestion_log (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			uid            TEXT    NOT NULL UNIQUE,
			creator_id     INTEGER,
			from_address   TEXT    NOT NULL,
			to_address     TEXT    NOT NULL,
			subject        TEXT    NOT NULL DEFAULT '',
			raw_body       TEXT    NOT NULL DEFAULT '',
			ai_result      TEXT    NOT NULL DEFAULT '',
			primary_action TEXT    NOT NULL DEFAULT '',
			status         TEXT    NOT NULL DEFAULT 'pending',
			error_message  TEXT    NOT NULL DEFAULT '',
			note_id        INTEGER,
			reminder_id    INTEGER,
			created_ts     BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
		`CREATE TABLE IF NOT EXISTS integration (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			creator_id INTEGER NOT NULL,
			provider   TEXT    NOT NULL,
			base_url   TEXT    NOT NULL DEFAULT '',
			api_key    TEXT    NOT NULL DEFAULT '',
			active     INTEGER NOT NULL DEFAULT 1,
			created_ts BIGINT  NOT NULL DEFAULT (strftime('%s', 'now'))
		)`,
	}
	for _, stmt := range stmts {
		if _, err := d.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrap(err, "migrate schema")
		}
	}
	return nil
}

// Close closes the database handle.
func (d *DB) Close() error {
	return d.db.Close()
}
