package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// AuditTrail appends a best-effort compliance record for every timer action.
// A write failure is logged and discarded; it never aborts the caller.
type AuditTrail struct {
	repo        persistence.AuditRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewAuditTrail wires dependencies for audit recording.
func NewAuditTrail(repo persistence.AuditRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *AuditTrail {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &AuditTrail{
		repo:        repo,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

// Record appends one audit entry. The contract is visible in the signature:
// no error is returned, failures are logged and swallowed.
func (a *AuditTrail) Record(ctx context.Context, userID, entryID, action string, metadata map[string]string) {
	if a == nil || a.repo == nil {
		return
	}

	entry := persistence.AuditEntry{
		ID:        a.idGenerator(),
		UserID:    userID,
		EntryID:   entryID,
		Action:    action,
		Metadata:  metadata,
		Timestamp: a.now(),
	}

	if err := a.repo.AppendAuditEntry(ctx, entry); err != nil {
		serviceLogger(ctx, a.logger, "audit", "record", "user_id", userID, "action", action).
			WarnContext(ctx, "audit write failed", "error", err)
	}
}

// History returns the newest audit entries for a user, most recent first.
func (a *AuditTrail) History(ctx context.Context, userID string, limit int) ([]persistence.AuditEntry, error) {
	if a == nil || a.repo == nil {
		return nil, fmt.Errorf("audit trail not configured")
	}
	return a.repo.ListAuditEntriesByUser(ctx, userID, limit)
}
