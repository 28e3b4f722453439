package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/labor-tracker/internal/forecast"
)

// ForecastService projects future labor cost from the historical daily cost
// series produced by the cost engine.
type ForecastService struct {
	costs  *CostService
	logger *slog.Logger
}

// NewForecastService wires dependencies for cost forecasting.
func NewForecastService(costs *CostService, logger *slog.Logger) *ForecastService {
	return &ForecastService{costs: costs, logger: defaultLogger(logger)}
}

// Forecast projects cost for the next days from the daily series observed in
// [start, end], optionally scoped to one project. With fewer than two data
// points it returns a trivial projection at zero confidence.
func (s *ForecastService) Forecast(ctx context.Context, start, end time.Time, days int, project string) (Forecast, error) {
	if s == nil || s.costs == nil {
		return Forecast{}, fmt.Errorf("forecast service not configured")
	}
	if days <= 0 {
		vErr := &ValidationError{}
		vErr.add("days", "forecast days must be positive")
		return Forecast{}, vErr
	}

	daily, err := s.costs.DailyCosts(ctx, start, end, project)
	if err != nil {
		return Forecast{}, err
	}

	result := Forecast{
		Start:      start,
		End:        end,
		Days:       days,
		Project:    project,
		Trend:      string(forecast.TrendStable),
		DataPoints: len(daily),
	}

	values := make([]float64, len(daily))
	for i, point := range daily {
		values[i] = point.Cost
	}

	if len(values) < 2 {
		var last float64
		if len(values) == 1 {
			last = values[0]
		}
		result.ProjectedCost = last * float64(days)
		result.DailyAverage = last
		return result, nil
	}

	line := forecast.Fit(values)
	average := forecast.Mean(values)

	// Blend the regression-projected daily figure with the plain historical
	// average to dampen slope overshoot on short series.
	projectedDaily := line.At(float64(len(values)))
	projected := (projectedDaily + average) / 2 * float64(days)
	if projected < 0 {
		projected = 0
	}

	result.ProjectedCost = projected
	result.Confidence = forecast.Confidence(values)
	result.Trend = string(line.Classify())
	result.DailyAverage = average

	return result, nil
}
