package timeseries

import (
	"errors"
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeanAndSampleStdDev(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := Mean(values); !almostEqual(got, 5.0) {
		t.Fatalf("Mean = %v, want 5.0", got)
	}
	// Sample variance of this series is 32/7.
	want := math.Sqrt(32.0 / 7.0)
	if got := SampleStdDev(values); !almostEqual(got, want) {
		t.Fatalf("SampleStdDev = %v, want %v", got, want)
	}
}

func TestSampleStdDevShortSeries(t *testing.T) {
	if got := SampleStdDev(nil); got != 0 {
		t.Fatalf("SampleStdDev(nil) = %v, want 0", got)
	}
	if got := SampleStdDev([]float64{42}); got != 0 {
		t.Fatalf("SampleStdDev(single) = %v, want 0", got)
	}
}

func TestConstantSeriesHasZeroSpread(t *testing.T) {
	values := []float64{100, 100, 100, 100}
	if got := SampleStdDev(values); got != 0 {
		t.Fatalf("SampleStdDev = %v, want 0", got)
	}
	lower, upper := IQRBounds(values)
	if !almostEqual(lower, 100) || !almostEqual(upper, 100) {
		t.Fatalf("IQRBounds = [%v, %v], want [100, 100]", lower, upper)
	}
}

func TestQuartilesInterpolation(t *testing.T) {
	values := []float64{6, 7, 15, 36, 39, 40, 41, 42, 43, 47, 49}
	q1, q2, q3 := Quartiles(values)
	if !almostEqual(q1, 25.5) {
		t.Fatalf("Q1 = %v, want 25.5", q1)
	}
	if !almostEqual(q2, 40) {
		t.Fatalf("Q2 = %v, want 40", q2)
	}
	if !almostEqual(q3, 42.5) {
		t.Fatalf("Q3 = %v, want 42.5", q3)
	}
}

func TestQuartilesDoNotMutateInput(t *testing.T) {
	values := []float64{9, 1, 5, 3}
	Quartiles(values)
	if values[0] != 9 || values[3] != 3 {
		t.Fatalf("input mutated: %v", values)
	}
}

func TestIQRBounds(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6, 7, 8}
	// Q1 = 2.75, Q3 = 6.25, IQR = 3.5
	lower, upper := IQRBounds(values)
	if !almostEqual(lower, 2.75-5.25) {
		t.Fatalf("lower = %v, want %v", lower, 2.75-5.25)
	}
	if !almostEqual(upper, 6.25+5.25) {
		t.Fatalf("upper = %v, want %v", upper, 6.25+5.25)
	}
}

func TestLinearRegressionExactLine(t *testing.T) {
	// y = 3 + 2x
	values := []float64{3, 5, 7, 9, 11}
	slope, intercept, err := LinearRegression(values)
	if err != nil {
		t.Fatalf("LinearRegression: %v", err)
	}
	if !almostEqual(slope, 2) || !almostEqual(intercept, 3) {
		t.Fatalf("fit = (%v, %v), want (2, 3)", slope, intercept)
	}
}

func TestLinearRegressionFlatLine(t *testing.T) {
	slope, intercept, err := LinearRegression([]float64{5, 5, 5})
	if err != nil {
		t.Fatalf("LinearRegression: %v", err)
	}
	if !almostEqual(slope, 0) || !almostEqual(intercept, 5) {
		t.Fatalf("fit = (%v, %v), want (0, 5)", slope, intercept)
	}
}

func TestLinearRegressionInsufficientData(t *testing.T) {
	_, _, err := LinearRegression([]float64{1})
	var insufficient *InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("err = %v, want *InsufficientDataError", err)
	}
	if insufficient.Points != 1 || insufficient.Required != 2 {
		t.Fatalf("error detail = %+v", insufficient)
	}
}
