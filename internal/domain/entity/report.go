package entity

import "time"

// AnalysisReport bundles the outputs of one orchestrated run for
// presentation and export. Every field is a plain record serializable
// to any wire format without further transformation.
type AnalysisReport struct {
	GeneratedAt time.Time        `json:"generated_at"`
	AccountID   string           `json:"account_id,omitempty"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	TotalSpend  float64          `json:"total_spend"`
	ByService   ServiceBreakdown `json:"by_service,omitempty"`
	DailyCosts  []DailyCostPoint `json:"daily_costs"`
	Anomalies   []Anomaly        `json:"anomalies"`
	Forecast    *ForecastResult  `json:"forecast,omitempty"`
	Budget      *BudgetAlert     `json:"budget,omitempty"`
	Roi         *RoiSummary      `json:"roi,omitempty"`
	Pending     []Recommendation `json:"pending_recommendations,omitempty"`
	// Degraded lists non-fatal failures hit during the run, e.g. a
	// narrative provider timeout. The numeric results are still valid.
	Degraded []string `json:"degraded,omitempty"`
}
