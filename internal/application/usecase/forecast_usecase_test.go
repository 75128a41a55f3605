package usecase

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
	"github.com/nawuni/aws-cost-copilot-go/pkg/timeseries"
)

func TestForecastRisingSeries(t *testing.T) {
	f := NewCostForecaster(nil, 0)

	amounts := make([]float64, 30)
	for i := range amounts {
		amounts[i] = 100 + 2*float64(i)
	}

	got, err := f.Forecast(series(amounts...), 30)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if got.Trend != entity.TrendIncreasing {
		t.Errorf("trend = %s, want %s", got.Trend, entity.TrendIncreasing)
	}
	if got.GrowthRatePct <= 1 {
		t.Errorf("growth rate = %f, want > 1", got.GrowthRatePct)
	}

	// Fitted line at the forecast-window midpoint: 100 + 2*(30+14.5).
	wantDaily := 189.0
	if math.Abs(got.DailyAverage-wantDaily) > 1e-9 {
		t.Errorf("daily average = %f, want %f", got.DailyAverage, wantDaily)
	}
	if math.Abs(got.ProjectedTotal-wantDaily*30) > 1e-9 {
		t.Errorf("projected total = %f, want %f", got.ProjectedTotal, wantDaily*30)
	}
	if got.HorizonDays != 30 || got.HistoryDays != 30 {
		t.Errorf("horizon/history = %d/%d, want 30/30", got.HorizonDays, got.HistoryDays)
	}
}

func TestForecastConstantSeries(t *testing.T) {
	f := NewCostForecaster(nil, 0)

	amounts := make([]float64, 30)
	for i := range amounts {
		amounts[i] = 100
	}

	got, err := f.Forecast(series(amounts...), 30)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if got.Trend != entity.TrendStable {
		t.Errorf("trend = %s, want %s", got.Trend, entity.TrendStable)
	}
	if math.Abs(got.GrowthRatePct) > 1e-9 {
		t.Errorf("growth rate = %f, want 0", got.GrowthRatePct)
	}
	if math.Abs(got.ProjectedTotal-3000) > 1e-9 {
		t.Errorf("projected total = %f, want 3000", got.ProjectedTotal)
	}
	if got.VolatilityPct != 0 {
		t.Errorf("volatility = %f, want 0", got.VolatilityPct)
	}
	if got.Confidence != entity.ConfidenceHigh {
		t.Errorf("confidence = %s, want %s", got.Confidence, entity.ConfidenceHigh)
	}
}

func TestForecastDecliningSeriesClampsAtZero(t *testing.T) {
	f := NewCostForecaster(nil, 0)

	// Steep decline: the fitted line crosses zero inside the horizon.
	amounts := []float64{100, 80, 60, 40, 20, 10, 5, 2, 1, 0.5}

	got, err := f.Forecast(series(amounts...), 30)
	if err != nil {
		t.Fatalf("Forecast: %v", err)
	}

	if got.Trend != entity.TrendDecreasing {
		t.Errorf("trend = %s, want %s", got.Trend, entity.TrendDecreasing)
	}
	if got.DailyAverage != 0 || got.ProjectedTotal != 0 {
		t.Errorf("daily/projected = %f/%f, want clamped to 0", got.DailyAverage, got.ProjectedTotal)
	}
}

func TestForecastInsufficientData(t *testing.T) {
	f := NewCostForecaster(nil, 0)

	_, err := f.Forecast(series(100), 30)
	var insufficient *timeseries.InsufficientDataError
	if !errors.As(err, &insufficient) {
		t.Fatalf("error = %v, want *timeseries.InsufficientDataError", err)
	}
	if insufficient.Points != 1 || insufficient.Required != 2 {
		t.Errorf("got %d/%d, want 1/2", insufficient.Points, insufficient.Required)
	}
}

func TestCheckBudgetOverage(t *testing.T) {
	f := NewCostForecaster(nil, 0)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	forecast := entity.ForecastResult{HorizonDays: 30, ProjectedTotal: 2850}

	got := f.CheckBudget(forecast, 2500, 95, asOf)

	if math.Abs(got.Overage-350) > 1e-9 {
		t.Errorf("overage = %f, want 350", got.Overage)
	}
	if math.Abs(got.OveragePct-14) > 1e-9 {
		t.Errorf("overage pct = %f, want 14", got.OveragePct)
	}
	if got.Severity != entity.AlertMedium {
		t.Errorf("severity = %s, want %s", got.Severity, entity.AlertMedium)
	}
	if got.DaysUntilBreach == nil || got.BreachDate == nil {
		t.Fatal("breach fields unset, want a projection inside the horizon")
	}
	if *got.DaysUntilBreach != 26 {
		t.Errorf("days until breach = %d, want 26", *got.DaysUntilBreach)
	}
	if want := asOf.AddDate(0, 0, 26); !got.BreachDate.Equal(want) {
		t.Errorf("breach date = %s, want %s", got.BreachDate, want)
	}
}

func TestCheckBudgetSeverities(t *testing.T) {
	f := NewCostForecaster(nil, 0)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		projected float64
		want      entity.AlertSeverity
	}{
		{"under budget", 2000, entity.AlertNone},
		{"exactly on budget", 2500, entity.AlertNone},
		{"small overage", 2600, entity.AlertLow},
		{"moderate overage", 2850, entity.AlertMedium},
		{"large overage", 3000, entity.AlertHigh},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			forecast := entity.ForecastResult{HorizonDays: 30, ProjectedTotal: tt.projected}
			got := f.CheckBudget(forecast, 2500, 90, asOf)
			if got.Severity != tt.want {
				t.Errorf("severity = %s, want %s", got.Severity, tt.want)
			}
			if tt.want == entity.AlertNone && (got.DaysUntilBreach != nil || got.BreachDate != nil) {
				t.Errorf("breach fields set without an overage: %+v", got)
			}
		})
	}
}

func TestCheckBudgetBreachBeyondHorizon(t *testing.T) {
	f := NewCostForecaster(nil, 0)
	asOf := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)
	forecast := entity.ForecastResult{HorizonDays: 30, ProjectedTotal: 2600}

	// 2500 budget at $10/day breaches in 250 days, far past the horizon.
	got := f.CheckBudget(forecast, 2500, 10, asOf)
	if got.DaysUntilBreach != nil || got.BreachDate != nil {
		t.Errorf("breach fields set beyond the horizon: %+v", got)
	}
}

type stubProvider struct {
	name string
	text string
	err  error
}

func (p *stubProvider) Name() string { return p.name }

func (p *stubProvider) Explain(ctx context.Context, forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) (string, error) {
	return p.text, p.err
}

func TestNarrateWithoutProvider(t *testing.T) {
	f := NewCostForecaster(nil, 0)

	text, err := f.Narrate(context.Background(), entity.ForecastResult{}, nil)
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if text != "" {
		t.Errorf("text = %q, want empty", text)
	}
}

func TestNarrateProviderFailure(t *testing.T) {
	f := NewCostForecaster(&stubProvider{name: "stub", err: errors.New("quota exceeded")}, time.Second)

	text, err := f.Narrate(context.Background(), entity.ForecastResult{}, nil)
	if text != "" {
		t.Errorf("text = %q, want empty on failure", text)
	}
	var provErr *types.ExternalProviderError
	if !errors.As(err, &provErr) {
		t.Fatalf("error = %v, want *types.ExternalProviderError", err)
	}
	if provErr.Provider != "stub" {
		t.Errorf("provider = %q, want stub", provErr.Provider)
	}
}

func TestNarrateSuccess(t *testing.T) {
	f := NewCostForecaster(&stubProvider{name: "stub", text: "spend is trending up"}, time.Second)

	text, err := f.Narrate(context.Background(), entity.ForecastResult{}, entity.ServiceBreakdown{"AmazonEC2": 120})
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if text != "spend is trending up" {
		t.Errorf("text = %q", text)
	}
}
