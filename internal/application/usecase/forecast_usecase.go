package usecase

import (
	"context"
	"math"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
	"github.com/nawuni/aws-cost-copilot-go/pkg/timeseries"
)

// CostForecaster projects future spend from a daily history. The numeric
// path is pure and stateless; the optional narrative provider is only
// consulted by Narrate and can never affect the numbers.
type CostForecaster struct {
	narrative repository.NarrativeProvider
	timeout   time.Duration
}

// NewCostForecaster creates a forecaster. provider may be nil, in which
// case Narrate is a no-op.
func NewCostForecaster(provider repository.NarrativeProvider, narrativeTimeout time.Duration) *CostForecaster {
	if narrativeTimeout <= 0 {
		narrativeTimeout = 30 * time.Second
	}
	return &CostForecaster{narrative: provider, timeout: narrativeTimeout}
}

// Forecast fits an ordinary least squares trend over the history and
// extrapolates it for horizonDays. The projected daily average is the
// fitted line evaluated at the midpoint of the forecast window, clamped
// at zero since spend cannot be negative.
//
// At least two history points are required; fewer fail with
// *timeseries.InsufficientDataError.
func (f *CostForecaster) Forecast(series []entity.DailyCostPoint, horizonDays int) (entity.ForecastResult, error) {
	if horizonDays <= 0 {
		horizonDays = 30
	}

	amounts := make([]float64, len(series))
	for i, p := range series {
		amounts[i] = p.Amount
	}

	slope, intercept, err := timeseries.LinearRegression(amounts)
	if err != nil {
		return entity.ForecastResult{}, err
	}
	n := len(amounts)

	// Mean index of the forecast window: days n .. n+horizon-1.
	midpoint := float64(n) + float64(horizonDays-1)/2.0
	dailyAverage := intercept + slope*midpoint
	if dailyAverage < 0 {
		dailyAverage = 0
	}
	projectedTotal := dailyAverage * float64(horizonDays)

	growthRatePct := 0.0
	fittedStart := intercept
	fittedEnd := intercept + slope*float64(n-1)
	if fittedStart > 0 {
		growthRatePct = (fittedEnd - fittedStart) / fittedStart * 100
	}

	trend := entity.TrendStable
	switch {
	case growthRatePct > 1:
		trend = entity.TrendIncreasing
	case growthRatePct < -1:
		trend = entity.TrendDecreasing
	}

	volatilityPct := 0.0
	if mean := timeseries.Mean(amounts); mean > 0 {
		volatilityPct = timeseries.SampleStdDev(amounts) / mean * 100
	}

	confidence := entity.ConfidenceLow
	switch {
	case volatilityPct < 10 && n >= 14:
		confidence = entity.ConfidenceHigh
	case volatilityPct < 25:
		confidence = entity.ConfidenceMedium
	}

	return entity.ForecastResult{
		HorizonDays:    horizonDays,
		ProjectedTotal: projectedTotal,
		DailyAverage:   dailyAverage,
		Trend:          trend,
		GrowthRatePct:  growthRatePct,
		VolatilityPct:  volatilityPct,
		Confidence:     confidence,
		HistoryDays:    n,
	}, nil
}

// CheckBudget compares a forecast against a monthly budget. The breach
// estimate projects cumulative spend forward from asOf at
// currentDailyRate and reports the day the budget would be exhausted,
// clamped to the forecast horizon; beyond the horizon both breach
// fields stay unset.
func (f *CostForecaster) CheckBudget(forecast entity.ForecastResult, monthlyBudget, currentDailyRate float64, asOf time.Time) entity.BudgetAlert {
	alert := entity.BudgetAlert{
		MonthlyBudget:  monthlyBudget,
		ProjectedSpend: forecast.ProjectedTotal,
	}
	alert.Overage = forecast.ProjectedTotal - monthlyBudget
	if monthlyBudget > 0 {
		alert.OveragePct = alert.Overage / monthlyBudget * 100
	}

	switch {
	case alert.Overage <= 0:
		alert.Severity = entity.AlertNone
	case alert.OveragePct > 15:
		alert.Severity = entity.AlertHigh
	case alert.OveragePct >= 5:
		alert.Severity = entity.AlertMedium
	default:
		alert.Severity = entity.AlertLow
	}

	if alert.Overage > 0 && currentDailyRate > 0 {
		days := int(math.Floor(monthlyBudget / currentDailyRate))
		if days < 0 {
			days = 0
		}
		if days <= forecast.HorizonDays {
			breach := asOf.AddDate(0, 0, days)
			alert.DaysUntilBreach = &days
			alert.BreachDate = &breach
		}
	}

	return alert
}

// Narrate asks the injected provider for supplementary commentary on
// the forecast. The call is bounded by the configured timeout and any
// failure is returned as a *types.ExternalProviderError with an empty
// narrative; callers report it as a degraded result and move on.
func (f *CostForecaster) Narrate(ctx context.Context, forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) (string, error) {
	if f.narrative == nil {
		return "", nil
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	text, err := f.narrative.Explain(ctx, forecast, breakdown)
	if err != nil {
		return "", &types.ExternalProviderError{Provider: f.narrative.Name(), Err: err}
	}
	return text, nil
}
