package entity

import "time"

// DailyCostPoint is one day of spend. A missing date in a series means
// "no data for that day", never zero spend; callers must not interpolate.
type DailyCostPoint struct {
	Date   time.Time `json:"date"`
	Amount float64   `json:"amount"`
}

// ServiceBreakdown maps a service name to its spend for a period.
type ServiceBreakdown map[string]float64

// CostData is the full answer from a cost-data provider for one period.
type CostData struct {
	AccountID   string           `json:"account_id,omitempty"`
	PeriodStart time.Time        `json:"period_start"`
	PeriodEnd   time.Time        `json:"period_end"`
	TotalCost   float64          `json:"total_cost"`
	DailyCosts  []DailyCostPoint `json:"daily_costs"`
	ByService   ServiceBreakdown `json:"by_service,omitempty"`
}

// Amounts returns the raw daily amounts in series order.
func (c CostData) Amounts() []float64 {
	amounts := make([]float64, len(c.DailyCosts))
	for i, p := range c.DailyCosts {
		amounts[i] = p.Amount
	}
	return amounts
}

// CostSnapshot is a persisted record of one analyzed period, kept for
// before/after comparison of implemented recommendations.
type CostSnapshot struct {
	ID         int64            `json:"id"`
	Date       time.Time        `json:"date"`
	AccountID  string           `json:"account_id"`
	TotalCost  float64          `json:"total_cost"`
	PeriodDays int              `json:"period_days"`
	ByService  ServiceBreakdown `json:"by_service,omitempty"`
}
