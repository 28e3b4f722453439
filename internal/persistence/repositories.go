package persistence

import (
	"context"
	"time"
)

// ActiveRecordCondition narrows a conditional update of the active record for
// a user. A nil IsPaused matches the active record regardless of pause state.
type ActiveRecordCondition struct {
	UserID   string
	IsPaused *bool
}

// TimeRecordRepository stores tracked work sessions.
type TimeRecordRepository interface {
	CreateTimeRecord(ctx context.Context, record TimeRecord) (TimeRecord, error)
	GetTimeRecord(ctx context.Context, id string) (TimeRecord, error)
	// FindActiveByUser returns the single active record for the user, or
	// ErrNotFound when the user is idle.
	FindActiveByUser(ctx context.Context, userID string) (TimeRecord, error)
	// UpdateActiveTimeRecord applies update to the record matching the
	// condition as a single atomic read-modify-write. It returns ErrNotFound
	// when no record matches, which callers treat as "nothing to act on".
	UpdateActiveTimeRecord(ctx context.Context, cond ActiveRecordCondition, update TimeRecordUpdate) (TimeRecord, error)
	UpdateTimeRecord(ctx context.Context, id string, update TimeRecordUpdate) (TimeRecord, error)
	ListAllActive(ctx context.Context) ([]TimeRecord, error)
	// ListCompletedInRange returns finished records whose start time falls
	// within [start, end].
	ListCompletedInRange(ctx context.Context, start, end time.Time) ([]TimeRecord, error)
	ListByUserAndRange(ctx context.Context, userID string, start, end time.Time) ([]TimeRecord, error)
	DeleteTimeRecord(ctx context.Context, id string) error
}

// UserDirectory resolves user identifiers to display and compensation data.
type UserDirectory interface {
	GetProfile(ctx context.Context, userID string) (UserProfile, error)
	ListProfiles(ctx context.Context, userIDs []string) (map[string]UserProfile, error)
}

// BudgetRepository stores budget definitions.
type BudgetRepository interface {
	CreateBudget(ctx context.Context, budget Budget) (Budget, error)
	GetBudget(ctx context.Context, id string) (Budget, error)
	UpdateBudget(ctx context.Context, id string, update BudgetUpdate) (Budget, error)
	ListBudgets(ctx context.Context) ([]Budget, error)
	DeleteBudget(ctx context.Context, id string) error
}

// AuditRepository stores append-only audit entries in a collection separate
// from the time records themselves.
type AuditRepository interface {
	AppendAuditEntry(ctx context.Context, entry AuditEntry) error
	ListAuditEntriesByUser(ctx context.Context, userID string, limit int) ([]AuditEntry, error)
}
