package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/labor-tracker/internal/persistence/memory"
	"github.com/example/labor-tracker/internal/testfixtures"
)

func newForecastHarness(t *testing.T) (*ForecastService, *memory.Storage, *testfixtures.Clock) {
	t.Helper()
	storage := memory.NewStorage()
	clock := testfixtures.NewClock(time.Time{})
	costs := NewCostService(storage, storage, time.Minute, clock.NowFunc(), nil)
	return NewForecastService(costs, nil), storage, clock
}

// seedDailyCost stores one completed session producing the given cost on the
// given day, assuming the fixture profile's 100/h rate.
func seedDailyCost(t *testing.T, storage *memory.Storage, userID string, day time.Time, cost float64) {
	t.Helper()
	minutes := int(cost / 100 * 60)
	record := testfixtures.NewTimeRecordFixture(
		testfixtures.WithRecordUser(userID),
		testfixtures.WithRecordProjects("apollo"),
		testfixtures.WithRecordStart(day),
		testfixtures.WithRecordCompleted(day.Add(time.Duration(minutes)*time.Minute), minutes),
	)
	if _, err := storage.CreateTimeRecord(context.Background(), record); err != nil {
		t.Fatalf("failed to seed record: %v", err)
	}
}

func TestForecastRejectsNonPositiveDays(t *testing.T) {
	t.Parallel()
	service, _, clock := newForecastHarness(t)

	_, err := service.Forecast(context.Background(), clock.Now().AddDate(0, 0, -7), clock.Now(), 0, "")

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestForecastSinglePointProjectsFlat(t *testing.T) {
	t.Parallel()
	service, storage, clock := newForecastHarness(t)

	storage.PutProfile(testfixtures.NewProfileFixture(testfixtures.WithProfileID("dev-s")))
	day := clock.Now().AddDate(0, 0, -3)
	seedDailyCost(t, storage, "dev-s", day, 100)

	result, err := service.Forecast(context.Background(), clock.Now().AddDate(0, 0, -7), clock.Now(), 30, "")
	if err != nil {
		t.Fatalf("forecast returned error: %v", err)
	}

	if !approxEqual(result.ProjectedCost, 3000) {
		t.Fatalf("expected 100*30=3000 projection, got %v", result.ProjectedCost)
	}
	if result.Confidence != 0 {
		t.Fatalf("expected zero confidence for one data point, got %v", result.Confidence)
	}
	if result.Trend != "stable" {
		t.Fatalf("expected stable trend, got %s", result.Trend)
	}
	if result.DataPoints != 1 {
		t.Fatalf("expected one data point, got %d", result.DataPoints)
	}
}

func TestForecastEmptySeries(t *testing.T) {
	t.Parallel()
	service, _, clock := newForecastHarness(t)

	result, err := service.Forecast(context.Background(), clock.Now().AddDate(0, 0, -7), clock.Now(), 30, "")
	if err != nil {
		t.Fatalf("forecast returned error: %v", err)
	}
	if result.ProjectedCost != 0 || result.Confidence != 0 || result.DataPoints != 0 {
		t.Fatalf("expected trivial zero forecast, got %+v", result)
	}
}

func TestForecastDetectsIncreasingTrend(t *testing.T) {
	t.Parallel()
	service, storage, clock := newForecastHarness(t)

	storage.PutProfile(testfixtures.NewProfileFixture(testfixtures.WithProfileID("dev-i")))
	base := clock.Now().AddDate(0, 0, -6)
	for i, cost := range []float64{100, 200, 300, 400, 500} {
		seedDailyCost(t, storage, "dev-i", base.AddDate(0, 0, i), cost)
	}

	result, err := service.Forecast(context.Background(), base.AddDate(0, 0, -1), clock.Now(), 10, "")
	if err != nil {
		t.Fatalf("forecast returned error: %v", err)
	}

	if result.Trend != "increasing" {
		t.Fatalf("expected increasing trend, got %s", result.Trend)
	}
	if !approxEqual(result.DailyAverage, 300) {
		t.Fatalf("expected daily average 300, got %v", result.DailyAverage)
	}
	// The regression extrapolates 600 for the next day; blended with the
	// average of 300 that projects 450 per day.
	if !approxEqual(result.ProjectedCost, 4500) {
		t.Fatalf("expected blended projection 4500, got %v", result.ProjectedCost)
	}
	if result.Confidence <= 0 || result.Confidence >= 100 {
		t.Fatalf("expected confidence strictly between 0 and 100, got %v", result.Confidence)
	}
}

func TestForecastDetectsDecreasingTrendAndFloorsAtZero(t *testing.T) {
	t.Parallel()
	service, storage, clock := newForecastHarness(t)

	storage.PutProfile(testfixtures.NewProfileFixture(testfixtures.WithProfileID("dev-d")))
	base := clock.Now().AddDate(0, 0, -6)
	for i, cost := range []float64{500, 300, 100} {
		seedDailyCost(t, storage, "dev-d", base.AddDate(0, 0, i), cost)
	}

	result, err := service.Forecast(context.Background(), base.AddDate(0, 0, -1), clock.Now(), 30, "")
	if err != nil {
		t.Fatalf("forecast returned error: %v", err)
	}

	if result.Trend != "decreasing" {
		t.Fatalf("expected decreasing trend, got %s", result.Trend)
	}
	if result.ProjectedCost < 0 {
		t.Fatalf("expected projection floored at zero, got %v", result.ProjectedCost)
	}
}

func TestForecastStableSeriesKeepsAverage(t *testing.T) {
	t.Parallel()
	service, storage, clock := newForecastHarness(t)

	storage.PutProfile(testfixtures.NewProfileFixture(testfixtures.WithProfileID("dev-c")))
	base := clock.Now().AddDate(0, 0, -6)
	for i := 0; i < 4; i++ {
		seedDailyCost(t, storage, "dev-c", base.AddDate(0, 0, i), 200)
	}

	result, err := service.Forecast(context.Background(), base.AddDate(0, 0, -1), clock.Now(), 5, "")
	if err != nil {
		t.Fatalf("forecast returned error: %v", err)
	}

	if result.Trend != "stable" {
		t.Fatalf("expected stable trend, got %s", result.Trend)
	}
	if !approxEqual(result.ProjectedCost, 1000) {
		t.Fatalf("expected 200*5=1000 projection, got %v", result.ProjectedCost)
	}
	if !approxEqual(result.Confidence, 100) {
		t.Fatalf("expected full confidence for constant series, got %v", result.Confidence)
	}
}
