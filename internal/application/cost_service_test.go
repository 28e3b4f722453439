package application

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/example/labor-tracker/internal/persistence"
	"github.com/example/labor-tracker/internal/persistence/memory"
	"github.com/example/labor-tracker/internal/testfixtures"
)

func newCostHarness(t *testing.T) (*CostService, *memory.Storage, *testfixtures.Clock) {
	t.Helper()
	storage := memory.NewStorage()
	clock := testfixtures.NewClock(time.Time{})
	service := NewCostService(storage, storage, time.Minute, clock.NowFunc(), nil)
	return service, storage, clock
}

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestLiveCostSplitsEvenlyAcrossProjects(t *testing.T) {
	t.Parallel()
	service, storage, clock := newCostHarness(t)
	ctx := context.Background()

	// Salary 16000 yields a 100/h rate; one active hour across two projects
	// should cost 50 on each.
	storage.PutProfile(testfixtures.NewProfileFixture(
		testfixtures.WithProfileID("user-live-1"),
		testfixtures.WithProfileSalary(16000),
	))
	record := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("user-live-1"),
		testfixtures.WithRecordProjects("apollo", "zeus"),
		testfixtures.WithRecordStart(clock.Now().Add(-time.Hour)),
	)
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	report, err := service.LiveCostWithRates(ctx)
	if err != nil {
		t.Fatalf("live cost returned error: %v", err)
	}

	if !approxEqual(report.TotalCost, 100) {
		t.Fatalf("expected total cost 100, got %v", report.TotalCost)
	}
	if !approxEqual(report.TotalBurnRate, 100) {
		t.Fatalf("expected burn rate 100, got %v", report.TotalBurnRate)
	}
	if report.ActiveUsers != 1 || report.TotalMinutes != 60 {
		t.Fatalf("expected 1 user / 60 minutes, got %d / %d", report.ActiveUsers, report.TotalMinutes)
	}
	if len(report.Projects) != 2 {
		t.Fatalf("expected two project entries, got %d", len(report.Projects))
	}
	for _, project := range report.Projects {
		if !approxEqual(project.Cost, 50) {
			t.Fatalf("expected cost 50 for %s, got %v", project.Project, project.Cost)
		}
		if !approxEqual(project.BurnRate, 100) {
			t.Fatalf("expected full burn rate per project, got %v", project.BurnRate)
		}
		if project.Contributors != 1 || project.Minutes != 30 {
			t.Fatalf("unexpected project share: %+v", project)
		}
	}
	if len(report.Contributors) != 1 || !approxEqual(report.Contributors[0].HourlyRate, 100) {
		t.Fatalf("expected one contributor at rate 100, got %+v", report.Contributors)
	}
}

func TestLiveCostSkipsUnresolvedUsers(t *testing.T) {
	t.Parallel()
	service, storage, clock := newCostHarness(t)
	ctx := context.Background()

	storage.PutProfile(testfixtures.NewProfileFixture(testfixtures.WithProfileID("known")))
	for _, userID := range []string{"known", "ghost"} {
		record := testfixtures.NewTimeRecordFixture(
			testfixtures.WithRecordUser(userID),
			testfixtures.WithRecordStart(clock.Now().Add(-time.Hour)),
		)
		if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
			t.Fatalf("failed to seed record: %v", err)
		}
	}

	report, err := service.LiveCostWithRates(ctx)
	if err != nil {
		t.Fatalf("live cost returned error: %v", err)
	}
	if report.ActiveUsers != 1 {
		t.Fatalf("expected only the resolvable user counted, got %d", report.ActiveUsers)
	}
	if len(report.Contributors) != 1 || report.Contributors[0].UserID != "known" {
		t.Fatalf("expected only the known contributor, got %+v", report.Contributors)
	}
}

func TestLiveCostEmptyState(t *testing.T) {
	t.Parallel()
	service, _, _ := newCostHarness(t)

	report, err := service.LiveCost(context.Background())
	if err != nil {
		t.Fatalf("live cost returned error: %v", err)
	}
	if report.TotalCost != 0 || report.ActiveUsers != 0 {
		t.Fatalf("expected zeroed report, got %+v", report)
	}
	if report.Projects == nil {
		t.Fatal("expected empty, non-nil project slice")
	}
}

func TestCostSummaryAggregatesCompletedRecords(t *testing.T) {
	t.Parallel()
	service, storage, clock := newCostHarness(t)
	ctx := context.Background()

	storage.PutProfile(testfixtures.NewProfileFixture(
		testfixtures.WithProfileID("dev-1"),
		testfixtures.WithProfileSalary(16000),
	))
	storage.PutProfile(testfixtures.NewProfileFixture(
		testfixtures.WithProfileID("dev-2"),
		testfixtures.WithProfileSalary(8000),
	))

	base := clock.Now().Add(-48 * time.Hour)

	// dev-1: 120 minutes on apollo at 100/h -> 200.
	first := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("dev-1"),
		testfixtures.WithRecordProjects("apollo"),
		testfixtures.WithRecordStart(base),
		testfixtures.WithRecordCompleted(base.Add(2*time.Hour), 120),
	)
	// dev-2: 60 overtime minutes split across apollo and zeus at 50/h -> 25 each.
	second := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("dev-2"),
		testfixtures.WithRecordProjects("apollo", "zeus"),
		testfixtures.WithRecordStart(base.Add(24*time.Hour)),
		testfixtures.WithRecordCompleted(base.Add(25*time.Hour), 60),
		testfixtures.WithRecordOvertime(),
	)
	if _, err := storage.CreateTimeRecord(ctx, first); err != nil {
		t.Fatalf("failed to seed first record: %v", err)
	}
	if _, err := storage.CreateTimeRecord(ctx, second); err != nil {
		t.Fatalf("failed to seed second record: %v", err)
	}

	summary, err := service.CostSummaryWithRates(ctx, base.Add(-time.Hour), clock.Now(), "")
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}

	if !approxEqual(summary.TotalCost, 250) {
		t.Fatalf("expected total cost 250, got %v", summary.TotalCost)
	}
	if !approxEqual(summary.TotalHours, 3) {
		t.Fatalf("expected three hours, got %v", summary.TotalHours)
	}

	if len(summary.Projects) != 2 {
		t.Fatalf("expected two projects, got %d", len(summary.Projects))
	}
	apollo := summary.Projects[0]
	if apollo.Project != "apollo" || !approxEqual(apollo.Cost, 225) {
		t.Fatalf("expected apollo at 225 first, got %+v", apollo)
	}
	zeus := summary.Projects[1]
	if zeus.Project != "zeus" || !approxEqual(zeus.Cost, 25) {
		t.Fatalf("expected zeus at 25, got %+v", zeus)
	}
	if len(apollo.Developers) != 2 {
		t.Fatalf("expected two developers on apollo, got %d", len(apollo.Developers))
	}

	if !approxEqual(summary.Overtime.OvertimeCost, 50) || !approxEqual(summary.Overtime.RegularCost, 200) {
		t.Fatalf("unexpected overtime split: %+v", summary.Overtime)
	}

	if len(summary.TopPerformers) != 2 {
		t.Fatalf("expected two performers, got %d", len(summary.TopPerformers))
	}
	if summary.TopPerformers[0].UserID != "dev-1" {
		t.Fatalf("expected dev-1 ranked first by hours, got %s", summary.TopPerformers[0].UserID)
	}

	if len(summary.Daily) != 2 || len(summary.Monthly) == 0 {
		t.Fatalf("expected daily and monthly series, got %d / %d", len(summary.Daily), len(summary.Monthly))
	}
}

func TestCostSummaryFiltersByProject(t *testing.T) {
	t.Parallel()
	service, storage, clock := newCostHarness(t)
	ctx := context.Background()

	storage.PutProfile(testfixtures.NewProfileFixture(
		testfixtures.WithProfileID("dev-f"),
		testfixtures.WithProfileSalary(16000),
	))
	base := clock.Now().Add(-24 * time.Hour)

	inScope := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("dev-f"),
		testfixtures.WithRecordProjects("apollo"),
		testfixtures.WithRecordStart(base),
		testfixtures.WithRecordCompleted(base.Add(time.Hour), 60),
	)
	outOfScope := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("dev-f"),
		testfixtures.WithRecordProjects("zeus"),
		testfixtures.WithRecordStart(base.Add(2*time.Hour)),
		testfixtures.WithRecordCompleted(base.Add(3*time.Hour), 60),
	)
	if _, err := storage.CreateTimeRecord(ctx, inScope); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
	if _, err := storage.CreateTimeRecord(ctx, outOfScope); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	summary, err := service.CostSummaryWithRates(ctx, base.Add(-time.Hour), clock.Now(), "apollo")
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	if !approxEqual(summary.TotalCost, 100) {
		t.Fatalf("expected only apollo sessions counted, got %v", summary.TotalCost)
	}
	if len(summary.Projects) != 1 || summary.Projects[0].Project != "apollo" {
		t.Fatalf("expected single apollo project, got %+v", summary.Projects)
	}
}

func TestCostSummaryRejectsInvertedRange(t *testing.T) {
	t.Parallel()
	service, _, clock := newCostHarness(t)

	_, err := service.CostSummaryWithRates(context.Background(), clock.Now(), clock.Now().Add(-time.Hour), "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestCostSummaryEmptyRange(t *testing.T) {
	t.Parallel()
	service, _, clock := newCostHarness(t)

	summary, err := service.CostSummary(context.Background(), clock.Now().Add(-time.Hour), clock.Now(), "")
	if err != nil {
		t.Fatalf("summary returned error: %v", err)
	}
	if summary.TotalCost != 0 || summary.TotalHours != 0 {
		t.Fatalf("expected zero totals, got %+v", summary)
	}
	if summary.Projects == nil || summary.Daily == nil {
		t.Fatal("expected empty, non-nil series")
	}
}

type failingDirectory struct {
	err error
}

func (d failingDirectory) GetProfile(context.Context, string) (persistence.UserProfile, error) {
	return persistence.UserProfile{}, d.err
}

func (d failingDirectory) ListProfiles(context.Context, []string) (map[string]persistence.UserProfile, error) {
	return nil, d.err
}

func TestLiveCostDegradesWhenDirectoryFails(t *testing.T) {
	t.Parallel()
	storage := memory.NewStorage()
	clock := testfixtures.NewClock(time.Time{})
	directory := failingDirectory{err: errors.New("directory unavailable")}
	service := NewCostService(storage, directory, time.Minute, clock.NowFunc(), nil)
	ctx := context.Background()

	record := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("user-dir-1"),
		testfixtures.WithRecordStart(clock.Now().Add(-time.Hour)),
	)
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	report, err := service.LiveCostWithRates(ctx)
	if err != nil {
		t.Fatalf("expected a degraded report, got error: %v", err)
	}
	if report.TotalCost != 0 || report.ActiveUsers != 0 {
		t.Fatalf("expected the unresolved record skipped, got %+v", report)
	}
	if report.Projects == nil || report.Contributors == nil {
		t.Fatalf("expected non-nil collections, got %+v", report)
	}
}

func TestCostSummaryDegradesWhenDirectoryFails(t *testing.T) {
	t.Parallel()
	storage := memory.NewStorage()
	clock := testfixtures.NewClock(time.Time{})
	directory := failingDirectory{err: errors.New("directory unavailable")}
	service := NewCostService(storage, directory, time.Minute, clock.NowFunc(), nil)
	ctx := context.Background()

	start := testfixtures.ReferenceTime()
	record := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("user-dir-2"),
		testfixtures.WithRecordStart(start),
		testfixtures.WithRecordCompleted(start.Add(time.Hour), 60),
	)
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	summary, err := service.CostSummaryWithRates(ctx, start.Add(-time.Hour), start.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("expected a degraded summary, got error: %v", err)
	}
	if summary.TotalCost != 0 || summary.TotalHours != 0 {
		t.Fatalf("expected the unresolved record skipped, got %+v", summary)
	}
	if len(summary.TopPerformers) != 0 || len(summary.Projects) != 0 {
		t.Fatalf("expected empty breakdowns, got %+v", summary)
	}
}

func TestCostSummaryUsesCachedProfilesDespiteDirectoryOutage(t *testing.T) {
	t.Parallel()
	storage := memory.NewStorage()
	clock := testfixtures.NewClock(time.Time{})
	directory := &flakyDirectory{inner: storage}
	service := NewCostService(storage, directory, time.Minute, clock.NowFunc(), nil)
	ctx := context.Background()

	storage.PutProfile(testfixtures.NewProfileFixture(
		testfixtures.WithProfileID("user-dir-3"),
		testfixtures.WithProfileSalary(16000),
	))
	start := testfixtures.ReferenceTime()
	record := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser("user-dir-3"),
		testfixtures.WithRecordStart(start),
		testfixtures.WithRecordCompleted(start.Add(time.Hour), 60),
	)
	if _, err := storage.CreateTimeRecord(ctx, record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}

	// First call resolves and caches the profile.
	if _, err := service.CostSummaryWithRates(ctx, start.Add(-time.Hour), start.Add(2*time.Hour), ""); err != nil {
		t.Fatalf("seed summary returned error: %v", err)
	}

	directory.fail = true
	summary, err := service.CostSummaryWithRates(ctx, start.Add(-time.Hour), start.Add(2*time.Hour), "")
	if err != nil {
		t.Fatalf("expected cached data to carry the summary, got error: %v", err)
	}
	if !approxEqual(summary.TotalCost, 100) {
		t.Fatalf("expected cost 100 from the cached profile, got %v", summary.TotalCost)
	}
}

type flakyDirectory struct {
	inner persistence.UserDirectory
	fail  bool
}

func (d *flakyDirectory) GetProfile(ctx context.Context, userID string) (persistence.UserProfile, error) {
	if d.fail {
		return persistence.UserProfile{}, errors.New("directory unavailable")
	}
	return d.inner.GetProfile(ctx, userID)
}

func (d *flakyDirectory) ListProfiles(ctx context.Context, userIDs []string) (map[string]persistence.UserProfile, error) {
	if d.fail {
		return nil, errors.New("directory unavailable")
	}
	return d.inner.ListProfiles(ctx, userIDs)
}
