// Package memory provides a mutex-guarded in-memory implementation of every
// repository interface. It backs unit tests and small single-node deployments
// that do not need durable storage.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

// Storage implements the persistence repositories with in-process maps.
type Storage struct {
	mu      sync.RWMutex
	records map[string]persistence.TimeRecord
	users   map[string]persistence.UserProfile
	budgets map[string]persistence.Budget
	audit   []persistence.AuditEntry
}

// NewStorage returns an empty in-memory storage.
func NewStorage() *Storage {
	return &Storage{
		records: make(map[string]persistence.TimeRecord),
		users:   make(map[string]persistence.UserProfile),
		budgets: make(map[string]persistence.Budget),
	}
}

// --- TimeRecordRepository implementation ---

// CreateTimeRecord stores a new time record.
func (s *Storage) CreateTimeRecord(ctx context.Context, record persistence.TimeRecord) (persistence.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[record.ID]; ok {
		return persistence.TimeRecord{}, persistence.ErrDuplicate
	}

	s.records[record.ID] = cloneRecord(record)
	return cloneRecord(record), nil
}

// GetTimeRecord retrieves a time record by ID.
func (s *Storage) GetTimeRecord(ctx context.Context, id string) (persistence.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok {
		return persistence.TimeRecord{}, persistence.ErrNotFound
	}
	return cloneRecord(record), nil
}

// FindActiveByUser returns the active record for the user, if any.
func (s *Storage) FindActiveByUser(ctx context.Context, userID string) (persistence.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, record := range s.records {
		if record.UserID == userID && record.IsActive {
			return cloneRecord(record), nil
		}
	}
	return persistence.TimeRecord{}, persistence.ErrNotFound
}

// UpdateActiveTimeRecord atomically mutates the record matching the condition.
func (s *Storage) UpdateActiveTimeRecord(ctx context.Context, cond persistence.ActiveRecordCondition, update persistence.TimeRecordUpdate) (persistence.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, record := range s.records {
		if record.UserID != cond.UserID || !record.IsActive {
			continue
		}
		if cond.IsPaused != nil && record.IsPaused != *cond.IsPaused {
			continue
		}
		updated := applyRecordUpdate(record, update)
		s.records[id] = updated
		return cloneRecord(updated), nil
	}
	return persistence.TimeRecord{}, persistence.ErrNotFound
}

// UpdateTimeRecord mutates a record by ID.
func (s *Storage) UpdateTimeRecord(ctx context.Context, id string, update persistence.TimeRecordUpdate) (persistence.TimeRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[id]
	if !ok {
		return persistence.TimeRecord{}, persistence.ErrNotFound
	}
	updated := applyRecordUpdate(record, update)
	s.records[id] = updated
	return cloneRecord(updated), nil
}

// ListAllActive returns every record currently marked active.
func (s *Storage) ListAllActive(ctx context.Context) ([]persistence.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.TimeRecord
	for _, record := range s.records {
		if record.IsActive {
			out = append(out, cloneRecord(record))
		}
	}
	sortRecords(out)
	return out, nil
}

// ListCompletedInRange returns finished records started within [start, end].
func (s *Storage) ListCompletedInRange(ctx context.Context, start, end time.Time) ([]persistence.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.TimeRecord
	for _, record := range s.records {
		if record.IsActive {
			continue
		}
		if record.StartTime.Before(start) || record.StartTime.After(end) {
			continue
		}
		out = append(out, cloneRecord(record))
	}
	sortRecords(out)
	return out, nil
}

// ListByUserAndRange returns all of a user's records started within [start, end].
func (s *Storage) ListByUserAndRange(ctx context.Context, userID string, start, end time.Time) ([]persistence.TimeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.TimeRecord
	for _, record := range s.records {
		if record.UserID != userID {
			continue
		}
		if record.StartTime.Before(start) || record.StartTime.After(end) {
			continue
		}
		out = append(out, cloneRecord(record))
	}
	sortRecords(out)
	return out, nil
}

// DeleteTimeRecord removes a record by ID.
func (s *Storage) DeleteTimeRecord(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// --- UserDirectory implementation ---

// PutProfile stores or replaces a directory entry. It exists for seeding and
// tests; the core never writes to the directory.
func (s *Storage) PutProfile(profile persistence.UserProfile) {
	s.mu.Lock()
	s.users[profile.ID] = cloneProfile(profile)
	s.mu.Unlock()
}

// GetProfile resolves a single user.
func (s *Storage) GetProfile(ctx context.Context, userID string) (persistence.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	profile, ok := s.users[userID]
	if !ok {
		return persistence.UserProfile{}, persistence.ErrNotFound
	}
	return cloneProfile(profile), nil
}

// ListProfiles resolves the given users. Unknown IDs are omitted from the
// result rather than reported as errors.
func (s *Storage) ListProfiles(ctx context.Context, userIDs []string) (map[string]persistence.UserProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[string]persistence.UserProfile, len(userIDs))
	for _, id := range userIDs {
		if profile, ok := s.users[id]; ok {
			out[id] = cloneProfile(profile)
		}
	}
	return out, nil
}

// --- BudgetRepository implementation ---

// CreateBudget stores a new budget.
func (s *Storage) CreateBudget(ctx context.Context, budget persistence.Budget) (persistence.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[budget.ID]; ok {
		return persistence.Budget{}, persistence.ErrDuplicate
	}
	s.budgets[budget.ID] = cloneBudget(budget)
	return cloneBudget(budget), nil
}

// GetBudget retrieves a budget by ID.
func (s *Storage) GetBudget(ctx context.Context, id string) (persistence.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	budget, ok := s.budgets[id]
	if !ok {
		return persistence.Budget{}, persistence.ErrNotFound
	}
	return cloneBudget(budget), nil
}

// UpdateBudget applies a partial mutation to a budget.
func (s *Storage) UpdateBudget(ctx context.Context, id string, update persistence.BudgetUpdate) (persistence.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	budget, ok := s.budgets[id]
	if !ok {
		return persistence.Budget{}, persistence.ErrNotFound
	}
	updated := applyBudgetUpdate(budget, update)
	s.budgets[id] = updated
	return cloneBudget(updated), nil
}

// ListBudgets returns all stored budgets ordered by creation time.
func (s *Storage) ListBudgets(ctx context.Context) ([]persistence.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]persistence.Budget, 0, len(s.budgets))
	for _, budget := range s.budgets {
		out = append(out, cloneBudget(budget))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteBudget removes a budget by ID.
func (s *Storage) DeleteBudget(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.budgets[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.budgets, id)
	return nil
}

// --- AuditRepository implementation ---

// AppendAuditEntry appends an entry to the audit log.
func (s *Storage) AppendAuditEntry(ctx context.Context, entry persistence.AuditEntry) error {
	s.mu.Lock()
	s.audit = append(s.audit, cloneAuditEntry(entry))
	s.mu.Unlock()
	return nil
}

// ListAuditEntriesByUser returns the newest entries for a user, most recent
// first. A non-positive limit returns everything.
func (s *Storage) ListAuditEntriesByUser(ctx context.Context, userID string, limit int) ([]persistence.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []persistence.AuditEntry
	for i := len(s.audit) - 1; i >= 0; i-- {
		if s.audit[i].UserID != userID {
			continue
		}
		out = append(out, cloneAuditEntry(s.audit[i]))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func sortRecords(records []persistence.TimeRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].StartTime.Equal(records[j].StartTime) {
			return records[i].ID < records[j].ID
		}
		return records[i].StartTime.Before(records[j].StartTime)
	})
}

func applyRecordUpdate(record persistence.TimeRecord, update persistence.TimeRecordUpdate) persistence.TimeRecord {
	if update.EndTime != nil {
		end := *update.EndTime
		record.EndTime = &end
	}
	if update.IsActive != nil {
		record.IsActive = *update.IsActive
	}
	if update.IsPaused != nil {
		record.IsPaused = *update.IsPaused
	}
	if update.PausedDuration != nil {
		record.PausedDuration = *update.PausedDuration
	}
	if update.LastPausedAt != nil {
		at := *update.LastPausedAt
		record.LastPausedAt = &at
	} else if update.ClearLastPausedAt {
		record.LastPausedAt = nil
	}
	if update.DurationMinutes != nil {
		record.DurationMinutes = *update.DurationMinutes
	}
	if update.Tasks != nil {
		record.Tasks = cloneTasks(update.Tasks)
	}
	record.UpdatedAt = updateStamp(update.UpdatedAt)
	return record
}

func updateStamp(at time.Time) time.Time {
	if at.IsZero() {
		return time.Now().UTC()
	}
	return at
}

func applyBudgetUpdate(budget persistence.Budget, update persistence.BudgetUpdate) persistence.Budget {
	if update.Project != nil {
		project := *update.Project
		budget.Project = &project
	} else if update.ClearProject {
		budget.Project = nil
	}
	if update.StartDate != nil {
		budget.StartDate = *update.StartDate
	}
	if update.EndDate != nil {
		budget.EndDate = *update.EndDate
	}
	if update.Amount != nil {
		budget.Amount = *update.Amount
	}
	if update.Currency != nil {
		budget.Currency = *update.Currency
	}
	if update.WarningThreshold != nil {
		budget.WarningThreshold = *update.WarningThreshold
	}
	if update.CriticalThreshold != nil {
		budget.CriticalThreshold = *update.CriticalThreshold
	}
	budget.UpdatedAt = updateStamp(update.UpdatedAt)
	return budget
}

func cloneRecord(record persistence.TimeRecord) persistence.TimeRecord {
	out := record
	out.Projects = append([]string(nil), record.Projects...)
	out.Tasks = cloneTasks(record.Tasks)
	if record.EndTime != nil {
		end := *record.EndTime
		out.EndTime = &end
	}
	if record.LastPausedAt != nil {
		at := *record.LastPausedAt
		out.LastPausedAt = &at
	}
	return out
}

func cloneTasks(tasks []persistence.TaskEntry) []persistence.TaskEntry {
	if tasks == nil {
		return nil
	}
	out := make([]persistence.TaskEntry, len(tasks))
	copy(out, tasks)
	return out
}

func cloneProfile(profile persistence.UserProfile) persistence.UserProfile {
	out := profile
	if profile.ProfileImage != nil {
		image := *profile.ProfileImage
		out.ProfileImage = &image
	}
	return out
}

func cloneBudget(budget persistence.Budget) persistence.Budget {
	out := budget
	if budget.Project != nil {
		project := *budget.Project
		out.Project = &project
	}
	return out
}

func cloneAuditEntry(entry persistence.AuditEntry) persistence.AuditEntry {
	out := entry
	if entry.Metadata != nil {
		out.Metadata = make(map[string]string, len(entry.Metadata))
		for k, v := range entry.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}
