package entity

import "time"

// RiskLevel grades the business risk of acting on a recommendation.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Effort grades how much work a recommendation takes to implement.
type Effort string

const (
	EffortQuickWin Effort = "quick_win"
	EffortMedium   Effort = "medium"
	EffortLarge    Effort = "large"
)

// RecommendationStatus is the lifecycle state of a ledger entry. Pending
// entries may move to implemented or rejected; both are terminal.
type RecommendationStatus string

const (
	StatusPending     RecommendationStatus = "pending"
	StatusImplemented RecommendationStatus = "implemented"
	StatusRejected    RecommendationStatus = "rejected"
)

// Recommendation is one cost-optimization proposal tracked by the
// savings ledger. The ID is assigned by the store at creation and never
// changes; entries are never deleted.
type Recommendation struct {
	ID                      int64                `json:"id"`
	Title                   string               `json:"title"`
	Type                    string               `json:"type"`
	Description             string               `json:"description,omitempty"`
	AccountID               string               `json:"account_id,omitempty"`
	EstimatedMonthlySavings float64              `json:"estimated_monthly_savings"`
	RiskLevel               RiskLevel            `json:"risk_level"`
	Effort                  Effort               `json:"effort"`
	Status                  RecommendationStatus `json:"status"`
	CreatedAt               time.Time            `json:"created_at"`
	ResolvedAt              *time.Time           `json:"resolved_at,omitempty"`
	ActualMonthlySavings    *float64             `json:"actual_monthly_savings,omitempty"`
	Notes                   string               `json:"notes,omitempty"`
}

// IsQuickWin reports whether the entry qualifies for lightweight
// automated follow-up: low effort and low risk.
func (r Recommendation) IsQuickWin() bool {
	return r.Effort == EffortQuickWin && r.RiskLevel == RiskLow
}

// RoiSummary aggregates the ledger into the numbers the ROI dashboard
// shows. ForecastAccuracyPct is nil when no implemented recommendation
// carries both an estimate and an actual value.
type RoiSummary struct {
	Total                       int      `json:"total"`
	Pending                     int      `json:"pending"`
	Implemented                 int      `json:"implemented"`
	Rejected                    int      `json:"rejected"`
	ImplementationRatePct       float64  `json:"implementation_rate_pct"`
	EstimatedSavingsTotal       float64  `json:"estimated_savings_total"`
	ImplementedSavingsEstimated float64  `json:"implemented_savings_estimated_total"`
	ActualSavingsTotal          float64  `json:"actual_savings_total"`
	AnnualProjection            float64  `json:"annual_projection"`
	ForecastAccuracyPct         *float64 `json:"forecast_accuracy_pct"`
}
