// Package timeseries provides the statistical primitives shared by the
// anomaly detector and the cost forecaster: mean, sample standard
// deviation, interpolated quartiles, IQR outlier bounds, and ordinary
// least squares regression over (index, value) pairs.
//
// Every function is deterministic, side-effect free, and never mutates
// its input slice.
package timeseries

import (
	"fmt"
	"math"
	"sort"
)

// InsufficientDataError reports that a computation was asked to run on a
// series shorter than it supports.
type InsufficientDataError struct {
	Points   int
	Required int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient data: got %d points, need at least %d", e.Points, e.Required)
}

// Mean returns the arithmetic mean of values, or 0 for an empty slice.
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

// SampleStdDev returns the sample standard deviation (n-1 denominator).
// A series with fewer than two points has a standard deviation of 0.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	mean := Mean(values)
	var ss float64
	for _, v := range values {
		d := v - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(n-1))
}

// Percentile returns the p-th percentile (0 <= p <= 1) of values using
// linear interpolation between the closest ranks of the sorted series.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	k := float64(len(sorted)-1) * p
	f := int(math.Floor(k))
	c := f + 1
	if c > len(sorted)-1 {
		c = len(sorted) - 1
	}
	if f == c {
		return sorted[f]
	}
	return sorted[f]*(float64(c)-k) + sorted[c]*(k-float64(f))
}

// Quartiles returns Q1, Q2 (median) and Q3 of values.
func Quartiles(values []float64) (q1, q2, q3 float64) {
	return Percentile(values, 0.25), Percentile(values, 0.5), Percentile(values, 0.75)
}

// IQRBounds returns the standard 1.5*IQR outlier fences for values.
func IQRBounds(values []float64) (lower, upper float64) {
	q1, _, q3 := Quartiles(values)
	iqr := q3 - q1
	return q1 - 1.5*iqr, q3 + 1.5*iqr
}

// ExtremeIQRBounds returns the 3*IQR fences, used to grade how far
// outside the distribution an outlier sits.
func ExtremeIQRBounds(values []float64) (lower, upper float64) {
	q1, _, q3 := Quartiles(values)
	iqr := q3 - q1
	return q1 - 3*iqr, q3 + 3*iqr
}

// LinearRegression fits y = intercept + slope*x by ordinary least squares
// over (i, values[i]) pairs. It fails when fewer than two points are
// supplied. A perfectly vertical fit cannot occur since x values are the
// distinct indices 0..n-1.
func LinearRegression(values []float64) (slope, intercept float64, err error) {
	n := len(values)
	if n < 2 {
		return 0, 0, &InsufficientDataError{Points: n, Required: 2}
	}

	var sumX, sumY, sumXY, sumXX float64
	for i, v := range values {
		x := float64(i)
		sumX += x
		sumY += v
		sumXY += x * v
		sumXX += x * x
	}

	fn := float64(n)
	denom := fn*sumXX - sumX*sumX
	slope = (fn*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / fn
	return slope, intercept, nil
}
