package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
)

var (
	recordCounter  uint64
	profileCounter uint64
	budgetCounter  uint64
)

var referenceTime = time.Date(2024, time.January, 2, 9, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// --------------------------- Time record fixtures ---------------------------

// TimeRecordOption configures the generated time record fixture.
type TimeRecordOption func(*persistence.TimeRecord)

// NewTimeRecordFixture returns a deterministic active time record with
// optional overrides. The record starts at ReferenceTime plus a per-fixture
// offset and carries a single open task.
func NewTimeRecordFixture(opts ...TimeRecordOption) persistence.TimeRecord {
	idx := atomic.AddUint64(&recordCounter, 1)
	start := referenceTime.Add(time.Duration(idx) * time.Minute)
	record := persistence.TimeRecord{
		ID:        fmt.Sprintf("record-%03d", idx),
		UserID:    fmt.Sprintf("user-%03d", idx),
		Projects:  []string{"apollo"},
		Tasks:     []persistence.TaskEntry{{Text: "General work", AddedAt: start}},
		StartTime: start,
		IsActive:  true,
		CreatedAt: start,
		UpdatedAt: start,
	}
	for _, opt := range opts {
		opt(&record)
	}
	return record
}

// WithRecordID overrides the generated record ID.
func WithRecordID(id string) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.ID = id
	}
}

// WithRecordUser overrides the owning user.
func WithRecordUser(userID string) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.UserID = userID
	}
}

// WithRecordProjects overrides the project assignments.
func WithRecordProjects(projects ...string) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.Projects = projects
	}
}

// WithRecordStart overrides the start time and realigns the first task.
func WithRecordStart(start time.Time) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.StartTime = start
		if len(r.Tasks) > 0 {
			r.Tasks[0].AddedAt = start
		}
		r.CreatedAt = start
		r.UpdatedAt = start
	}
}

// WithRecordCompleted marks the record stopped at the given time with the
// supplied billable minutes.
func WithRecordCompleted(end time.Time, durationMinutes int) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		endCopy := end
		r.EndTime = &endCopy
		r.IsActive = false
		r.IsPaused = false
		r.DurationMinutes = durationMinutes
		r.UpdatedAt = end
	}
}

// WithRecordPaused marks the record paused since the given instant with the
// accumulated pause total.
func WithRecordPaused(since time.Time, accumulated time.Duration) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		sinceCopy := since
		r.IsPaused = true
		r.LastPausedAt = &sinceCopy
		r.PausedDuration = accumulated
	}
}

// WithRecordOvertime flags the record as overtime work.
func WithRecordOvertime() TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.IsOvertime = true
	}
}

// WithRecordTasks overrides the task entries.
func WithRecordTasks(tasks ...persistence.TaskEntry) TimeRecordOption {
	return func(r *persistence.TimeRecord) {
		r.Tasks = tasks
	}
}

// ----------------------------- Profile fixtures -----------------------------

// ProfileOption configures the generated user profile fixture.
type ProfileOption func(*persistence.UserProfile)

// NewProfileFixture returns a deterministic user profile. The default monthly
// salary of 16000 yields an hourly rate of 100, which keeps expected costs
// easy to read in tests.
func NewProfileFixture(opts ...ProfileOption) persistence.UserProfile {
	idx := atomic.AddUint64(&profileCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	profile := persistence.UserProfile{
		ID:            id,
		DisplayName:   fmt.Sprintf("User %03d", idx),
		Email:         fmt.Sprintf("%s@example.com", id),
		MonthlySalary: 16000,
	}
	for _, opt := range opts {
		opt(&profile)
	}
	return profile
}

// WithProfileID overrides the generated profile ID.
func WithProfileID(id string) ProfileOption {
	return func(p *persistence.UserProfile) {
		p.ID = id
	}
}

// WithProfileSalary overrides the monthly salary.
func WithProfileSalary(salary float64) ProfileOption {
	return func(p *persistence.UserProfile) {
		p.MonthlySalary = salary
	}
}

// WithProfileName overrides the display name.
func WithProfileName(name string) ProfileOption {
	return func(p *persistence.UserProfile) {
		p.DisplayName = name
	}
}

// ----------------------------- Budget fixtures ------------------------------

// BudgetOption configures the generated budget fixture.
type BudgetOption func(*persistence.Budget)

// NewBudgetFixture returns a deterministic budget spanning thirty days from
// ReferenceTime.
func NewBudgetFixture(opts ...BudgetOption) persistence.Budget {
	idx := atomic.AddUint64(&budgetCounter, 1)
	created := referenceTime.Add(time.Duration(idx) * time.Minute)
	budget := persistence.Budget{
		ID:                fmt.Sprintf("budget-%03d", idx),
		StartDate:         referenceTime,
		EndDate:           referenceTime.AddDate(0, 0, 30),
		Amount:            10000,
		Currency:          "USD",
		WarningThreshold:  75,
		CriticalThreshold: 90,
		CreatedBy:         fmt.Sprintf("user-%03d", idx),
		CreatedAt:         created,
		UpdatedAt:         created,
	}
	for _, opt := range opts {
		opt(&budget)
	}
	return budget
}

// WithBudgetID overrides the generated budget ID.
func WithBudgetID(id string) BudgetOption {
	return func(b *persistence.Budget) {
		b.ID = id
	}
}

// WithBudgetProject scopes the budget to a single project.
func WithBudgetProject(project string) BudgetOption {
	return func(b *persistence.Budget) {
		b.Project = &project
	}
}

// WithBudgetAmount overrides the budget amount.
func WithBudgetAmount(amount float64) BudgetOption {
	return func(b *persistence.Budget) {
		b.Amount = amount
	}
}

// WithBudgetCreator overrides the creating user.
func WithBudgetCreator(userID string) BudgetOption {
	return func(b *persistence.Budget) {
		b.CreatedBy = userID
	}
}

// WithBudgetSpan overrides the budget period.
func WithBudgetSpan(start, end time.Time) BudgetOption {
	return func(b *persistence.Budget) {
		b.StartDate = start
		b.EndDate = end
	}
}
