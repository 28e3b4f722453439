package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
	"github.com/example/labor-tracker/internal/testfixtures"
)

func TestCreateAndGetTimeRecord(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	record := testfixtures.NewTimeRecordFixture()
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("create returned error: %v", err)
	}
	if _, err := storage.CreateTimeRecord(ctx, record); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	loaded, err := storage.GetTimeRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if loaded.UserID != record.UserID || !loaded.StartTime.Equal(record.StartTime) {
		t.Fatalf("loaded record does not match: %+v", loaded)
	}

	if _, err := storage.GetTimeRecord(ctx, "missing"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGetReturnsIndependentCopy(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	record := testfixtures.NewTimeRecordFixture()
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	loaded, err := storage.GetTimeRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	loaded.Projects[0] = "mutated"
	loaded.Tasks[0].Text = "mutated"

	reloaded, err := storage.GetTimeRecord(ctx, record.ID)
	if err != nil {
		t.Fatalf("get returned error: %v", err)
	}
	if reloaded.Projects[0] == "mutated" || reloaded.Tasks[0].Text == "mutated" {
		t.Fatal("expected stored record isolated from caller mutation")
	}
}

func TestUpdateActiveTimeRecordCondition(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	record := testfixtures.NewTimeRecordFixture(testfixtures.WithRecordUser("user-c"))
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	pausedState := true
	notPaused := false
	now := record.StartTime.Add(10 * time.Minute)

	// Pausing an unpaused record matches the condition.
	updated, err := storage.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: "user-c", IsPaused: &notPaused},
		persistence.TimeRecordUpdate{IsPaused: &pausedState, LastPausedAt: &now},
	)
	if err != nil {
		t.Fatalf("conditional update returned error: %v", err)
	}
	if !updated.IsPaused || updated.LastPausedAt == nil {
		t.Fatalf("expected paused record, got %+v", updated)
	}

	// The same condition no longer matches.
	if _, err := storage.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: "user-c", IsPaused: &notPaused},
		persistence.TimeRecordUpdate{IsPaused: &pausedState},
	); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for stale condition, got %v", err)
	}

	// Clearing the pause marker through the explicit flag.
	accumulated := 5 * time.Minute
	updated, err = storage.UpdateActiveTimeRecord(ctx,
		persistence.ActiveRecordCondition{UserID: "user-c", IsPaused: &pausedState},
		persistence.TimeRecordUpdate{
			IsPaused:          &notPaused,
			PausedDuration:    &accumulated,
			ClearLastPausedAt: true,
		},
	)
	if err != nil {
		t.Fatalf("resume update returned error: %v", err)
	}
	if updated.IsPaused || updated.LastPausedAt != nil || updated.PausedDuration != accumulated {
		t.Fatalf("unexpected resumed state: %+v", updated)
	}
}

func TestListCompletedInRange(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	base := testfixtures.ReferenceTime()
	inRange := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordStart(base.Add(time.Hour)),
		testfixtures.WithRecordCompleted(base.Add(2*time.Hour), 60),
	)
	outOfRange := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordStart(base.Add(72*time.Hour)),
		testfixtures.WithRecordCompleted(base.Add(73*time.Hour), 60),
	)
	stillActive := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordStart(base.Add(time.Hour)),
	)
	for _, record := range []persistence.TimeRecord{inRange, outOfRange, stillActive} {
		if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
	}

	completed, err := storage.ListCompletedInRange(ctx, base, base.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(completed) != 1 || completed[0].ID != inRange.ID {
		t.Fatalf("expected only the completed in-range record, got %+v", completed)
	}
}

func TestListAllActiveSorted(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	base := testfixtures.ReferenceTime()
	later := testfixtures.NewTimeRecordFixture(testfixtures.WithRecordStart(base.Add(2 * time.Hour)))
	earlier := testfixtures.NewTimeRecordFixture(testfixtures.WithRecordStart(base.Add(time.Hour)))
	for _, record := range []persistence.TimeRecord{later, earlier} {
		if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
			t.Fatalf("create returned error: %v", err)
		}
	}

	active, err := storage.ListAllActive(ctx)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected two active records, got %d", len(active))
	}
	if !active[0].StartTime.Before(active[1].StartTime) {
		t.Fatalf("expected records ordered by start time, got %v then %v", active[0].StartTime, active[1].StartTime)
	}
}

func TestProfileDirectory(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	profile := testfixtures.NewProfileFixture()
	storage.PutProfile(profile)

	loaded, err := storage.GetProfile(ctx, profile.ID)
	if err != nil {
		t.Fatalf("get profile returned error: %v", err)
	}
	if loaded.MonthlySalary != profile.MonthlySalary {
		t.Fatalf("unexpected profile: %+v", loaded)
	}

	resolved, err := storage.ListProfiles(ctx, []string{profile.ID, "ghost"})
	if err != nil {
		t.Fatalf("list profiles returned error: %v", err)
	}
	if len(resolved) != 1 {
		t.Fatalf("expected only known profiles resolved, got %d", len(resolved))
	}
	if _, ok := resolved["ghost"]; ok {
		t.Fatal("expected unknown user omitted, not errored")
	}

	if _, err := storage.GetProfile(ctx, "ghost"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBudgetLifecycle(t *testing.T) {
	t.Parallel()
	storage := NewStorage()
	ctx := context.Background()

	budget := testfixtures.NewBudgetFixture(testfixtures.WithBudgetProject("apollo"))
	if _, err := storage.CreateBudget(ctx, budget); err != nil {
		t.Fatalf("create returned error: %v", err)
	}

	amount := 2500.0
	updated, err := storage.UpdateBudget(ctx, budget.ID, persistence.BudgetUpdate{
		Amount:       &amount,
		ClearProject: true,
	})
	if err != nil {
		t.Fatalf("update returned error: %v", err)
	}
	if updated.Amount != 2500 {
		t.Fatalf("expected amount updated, got %v", updated.Amount)
	}
	if updated.Project != nil {
		t.Fatalf("expected project cleared, got %v", *updated.Project)
	}

	budgets, err := storage.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("list returned error: %v", err)
	}
	if len(budgets) != 1 {
		t.Fatalf("expected one budget, got %d", len(budgets))
	}

	if err := storage.DeleteBudget(ctx, budget.ID); err != nil {
		t.Fatalf("delete returned error: %v", err)
	}
	if _, err := storage.GetBudget(ctx, budget.ID); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}
