package sqlite

import (
	"context"
	"encoding/json"

	"github.com/example/labor-tracker/internal/persistence"
)

// AuditRepository implements persistence.AuditRepository on SQLite. Entries
// live in their own table and are never mutated after insertion.
type AuditRepository struct {
	pool *ConnectionPool
}

// NewAuditRepository creates a SQLite audit repository.
func NewAuditRepository(pool *ConnectionPool) *AuditRepository {
	return &AuditRepository{pool: pool}
}

// AppendAuditEntry inserts one audit entry.
func (r *AuditRepository) AppendAuditEntry(ctx context.Context, entry persistence.AuditEntry) error {
	metadata := entry.Metadata
	if metadata == nil {
		metadata = map[string]string{}
	}
	encoded, err := json.Marshal(metadata)
	if err != nil {
		return err
	}

	_, err = r.pool.DB().ExecContext(ctx, `
		INSERT INTO audit_entries (id, user_id, entry_id, action, metadata, timestamp)
		VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.EntryID, entry.Action, string(encoded), encodeTime(entry.Timestamp))
	return err
}

// ListAuditEntriesByUser returns the newest entries for a user, most recent
// first. A non-positive limit returns everything.
func (r *AuditRepository) ListAuditEntriesByUser(ctx context.Context, userID string, limit int) ([]persistence.AuditEntry, error) {
	query := `SELECT id, user_id, entry_id, action, metadata, timestamp FROM audit_entries WHERE user_id = ? ORDER BY timestamp DESC, id DESC`
	args := []any{userID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := r.pool.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []persistence.AuditEntry
	for rows.Next() {
		var (
			entry     persistence.AuditEntry
			metadata  string
			timestamp string
		)
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.EntryID, &entry.Action, &metadata, &timestamp); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(metadata), &entry.Metadata); err != nil {
			return nil, err
		}
		if entry.Timestamp, err = decodeTime(timestamp); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
