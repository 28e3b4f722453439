// Package forecast fits trend lines over historical daily-cost series. It is
// a pure computation package with no persistence or service dependencies.
package forecast

import "math"

// Trend classifies the direction of a fitted cost series.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// slopeThreshold is the band around zero within which a slope counts as
// stable.
const slopeThreshold = 0.01

// Line is an ordinary-least-squares fit cost = Slope*x + Intercept over the
// sequential day index.
type Line struct {
	Slope     float64
	Intercept float64
}

// Fit computes the least-squares line over values indexed 0..n-1. Fewer than
// two points cannot determine a slope; the caller is expected to handle that
// case before fitting.
func Fit(values []float64) Line {
	n := float64(len(values))
	if len(values) < 2 {
		var intercept float64
		if len(values) == 1 {
			intercept = values[0]
		}
		return Line{Intercept: intercept}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}

	denominator := n*sumXX - sumX*sumX
	if denominator == 0 {
		return Line{Intercept: sumY / n}
	}

	slope := (n*sumXY - sumX*sumY) / denominator
	intercept := (sumY - slope*sumX) / n
	return Line{Slope: slope, Intercept: intercept}
}

// At evaluates the fitted line at index x.
func (l Line) At(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Classify maps a slope to a trend using the stability band.
func (l Line) Classify() Trend {
	switch {
	case l.Slope > slopeThreshold:
		return TrendIncreasing
	case l.Slope < -slopeThreshold:
		return TrendDecreasing
	default:
		return TrendStable
	}
}

// Mean returns the arithmetic mean of the series, 0 for an empty series.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// StdDev returns the population standard deviation of the series.
func StdDev(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	mean := Mean(values)
	var sum float64
	for _, v := range values {
		diff := v - mean
		sum += diff * diff
	}
	return math.Sqrt(sum / float64(len(values)))
}

// CoefficientOfVariation returns stddev/mean, or 0 when the mean is 0.
func CoefficientOfVariation(values []float64) float64 {
	mean := Mean(values)
	if mean == 0 {
		return 0
	}
	return StdDev(values) / mean
}

// Confidence converts the series variability into a 0-100 score: stable
// series score high, erratic series approach zero.
func Confidence(values []float64) float64 {
	if len(values) == 0 || Mean(values) == 0 {
		return 0
	}
	penalty := 100 * CoefficientOfVariation(values)
	if penalty > 100 {
		penalty = 100
	}
	return 100 - penalty
}
