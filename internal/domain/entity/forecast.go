package entity

import "time"

// Trend classifies the direction of a fitted spend trend relative to a
// +/-1% neutral band.
type Trend string

const (
	TrendIncreasing Trend = "increasing"
	TrendDecreasing Trend = "decreasing"
	TrendStable     Trend = "stable"
)

// Confidence grades how much the history supports the projection.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// ForecastResult is a forward projection of daily spend.
//
// Narrative is advisory commentary from an external text provider; it is
// filled in after the numeric fields and left empty when the provider is
// unavailable or fails.
type ForecastResult struct {
	HorizonDays    int        `json:"horizon_days"`
	ProjectedTotal float64    `json:"projected_total"`
	DailyAverage   float64    `json:"daily_average"`
	Trend          Trend      `json:"trend"`
	GrowthRatePct  float64    `json:"growth_rate_pct"`
	VolatilityPct  float64    `json:"volatility_pct"`
	Confidence     Confidence `json:"confidence"`
	HistoryDays    int        `json:"history_days"`
	Narrative      string     `json:"narrative,omitempty"`
}

// AlertSeverity grades a budget overage.
type AlertSeverity string

const (
	AlertNone   AlertSeverity = "none"
	AlertLow    AlertSeverity = "low"
	AlertMedium AlertSeverity = "medium"
	AlertHigh   AlertSeverity = "high"
)

// BudgetAlert compares a projection against a monthly budget. Overage is
// negative when the projection is under budget. DaysUntilBreach and
// BreachDate are set only when the budget would be exhausted within the
// forecast horizon.
type BudgetAlert struct {
	MonthlyBudget   float64       `json:"monthly_budget"`
	ProjectedSpend  float64       `json:"projected_spend"`
	Overage         float64       `json:"overage"`
	OveragePct      float64       `json:"overage_pct"`
	Severity        AlertSeverity `json:"severity"`
	DaysUntilBreach *int          `json:"days_until_breach,omitempty"`
	BreachDate      *time.Time    `json:"breach_date,omitempty"`
}
