// Package bolt implements the append-only audit repository on a BoltDB file.
// The audit trail lives apart from the relational store so compliance records
// survive independently of time record storage.
package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/example/labor-tracker/internal/persistence"
)

const auditBucket = "audit_entries"

// AuditLog is a BoltDB backed audit repository. Entries are stored as JSON
// under per-user buckets keyed by timestamp, which keeps user history scans
// sequential.
type AuditLog struct {
	db *bolt.DB
}

// Open opens (creating if necessary) the audit log at path.
func Open(path string) (*AuditLog, error) {
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("bolt: failed to open audit log: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(auditBucket))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	return &AuditLog{db: db}, nil
}

// Close releases the underlying database file.
func (l *AuditLog) Close() error {
	if l == nil || l.db == nil {
		return nil
	}
	return l.db.Close()
}

// AppendAuditEntry stores one entry. Entries are never rewritten.
func (l *AuditLog) AppendAuditEntry(ctx context.Context, entry persistence.AuditEntry) error {
	value, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	key := []byte(entry.Timestamp.UTC().Format(time.RFC3339Nano) + "|" + entry.ID)

	return l.db.Update(func(tx *bolt.Tx) error {
		user, err := tx.Bucket([]byte(auditBucket)).CreateBucketIfNotExists([]byte(entry.UserID))
		if err != nil {
			return err
		}
		return user.Put(key, value)
	})
}

// ListAuditEntriesByUser returns the newest entries for a user, most recent
// first. A non-positive limit returns everything.
func (l *AuditLog) ListAuditEntriesByUser(ctx context.Context, userID string, limit int) ([]persistence.AuditEntry, error) {
	var entries []persistence.AuditEntry

	err := l.db.View(func(tx *bolt.Tx) error {
		user := tx.Bucket([]byte(auditBucket)).Bucket([]byte(userID))
		if user == nil {
			return nil
		}

		cursor := user.Cursor()
		for key, value := cursor.Last(); key != nil; key, value = cursor.Prev() {
			var entry persistence.AuditEntry
			if err := json.Unmarshal(value, &entry); err != nil {
				return err
			}
			entries = append(entries, entry)
			if limit > 0 && len(entries) == limit {
				break
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
