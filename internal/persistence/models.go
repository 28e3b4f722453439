package persistence

import "time"

// TimeRecord represents one tracked work session stored in persistence.
type TimeRecord struct {
	ID              string
	UserID          string
	Projects        []string
	Tasks           []TaskEntry
	StartTime       time.Time
	EndTime         *time.Time
	IsActive        bool
	IsPaused        bool
	PausedDuration  time.Duration
	LastPausedAt    *time.Time
	DurationMinutes int
	IsOvertime      bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TaskEntry represents a single task tracked within a session. A task's
// duration is finalized only when it is superseded by the next task or when
// the session stops.
type TaskEntry struct {
	Text            string
	AddedAt         time.Time
	DurationMinutes int
}

// TimeRecordUpdate carries a partial mutation applied to a time record.
// Nil fields are left unchanged. LastPausedAt is cleared through
// ClearLastPausedAt because nil already means "leave as is".
type TimeRecordUpdate struct {
	EndTime           *time.Time
	IsActive          *bool
	IsPaused          *bool
	PausedDuration    *time.Duration
	LastPausedAt      *time.Time
	ClearLastPausedAt bool
	DurationMinutes   *int
	Tasks             []TaskEntry
	// UpdatedAt stamps the row; repositories fall back to wall clock time
	// when zero.
	UpdatedAt time.Time
}

// UserProfile represents the directory entry resolved for a user.
type UserProfile struct {
	ID            string
	DisplayName   string
	Email         string
	MonthlySalary float64
	ProfileImage  *string
}

// Budget represents a spending envelope compared against actual labor cost.
type Budget struct {
	ID                string
	Project           *string
	StartDate         time.Time
	EndDate           time.Time
	Amount            float64
	Currency          string
	WarningThreshold  float64
	CriticalThreshold float64
	CreatedBy         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// BudgetUpdate carries a partial mutation applied to a budget.
type BudgetUpdate struct {
	Project           *string
	ClearProject      bool
	StartDate         *time.Time
	EndDate           *time.Time
	Amount            *float64
	Currency          *string
	WarningThreshold  *float64
	CriticalThreshold *float64
	// UpdatedAt stamps the row; repositories fall back to wall clock time
	// when zero.
	UpdatedAt time.Time
}

// AuditEntry represents one append-only compliance record of a timer action.
type AuditEntry struct {
	ID        string
	UserID    string
	EntryID   string
	Action    string
	Metadata  map[string]string
	Timestamp time.Time
}
