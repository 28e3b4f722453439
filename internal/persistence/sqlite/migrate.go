package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// migrations are applied sequentially; each entry runs at most once and is
// recorded in schema_migrations.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS time_records (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT,
		is_active INTEGER NOT NULL DEFAULT 0,
		is_paused INTEGER NOT NULL DEFAULT 0,
		paused_ms INTEGER NOT NULL DEFAULT 0,
		last_paused_at TEXT,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		is_overtime INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_time_records_user_active ON time_records(user_id, is_active);
	CREATE INDEX IF NOT EXISTS idx_time_records_start ON time_records(start_time);
	CREATE TABLE IF NOT EXISTS time_record_projects (
		record_id TEXT NOT NULL REFERENCES time_records(id) ON DELETE CASCADE,
		project TEXT NOT NULL,
		PRIMARY KEY (record_id, project)
	);
	CREATE TABLE IF NOT EXISTS time_record_tasks (
		record_id TEXT NOT NULL REFERENCES time_records(id) ON DELETE CASCADE,
		position INTEGER NOT NULL,
		text TEXT NOT NULL,
		added_at TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (record_id, position)
	);`,
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		display_name TEXT NOT NULL,
		email TEXT NOT NULL,
		monthly_salary REAL NOT NULL DEFAULT 0,
		profile_image TEXT
	);`,
	`CREATE TABLE IF NOT EXISTS budgets (
		id TEXT PRIMARY KEY,
		project TEXT,
		start_date TEXT NOT NULL,
		end_date TEXT NOT NULL,
		amount REAL NOT NULL,
		currency TEXT NOT NULL,
		warning_threshold REAL NOT NULL,
		critical_threshold REAL NOT NULL,
		created_by TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,
	`CREATE TABLE IF NOT EXISTS audit_entries (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		entry_id TEXT NOT NULL DEFAULT '',
		action TEXT NOT NULL,
		metadata TEXT NOT NULL DEFAULT '{}',
		timestamp TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_audit_entries_user ON audit_entries(user_id, timestamp);`,
}

// Migrate brings the schema up to date.
func (cp *ConnectionPool) Migrate(ctx context.Context) error {
	if _, err := cp.db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	var current int
	err := cp.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}

	for version := current + 1; version <= len(migrations); version++ {
		statement := migrations[version-1]
		err := cp.WithTransaction(ctx, func(tx *sql.Tx) error {
			if _, err := tx.Exec(statement); err != nil {
				return fmt.Errorf("migration %d failed: %w", version, err)
			}
			_, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
				version, time.Now().UTC().Format(time.RFC3339))
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}
