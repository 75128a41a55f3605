// Package replay provides offline cost-data sources: a JSON fixture
// loader and a deterministic demo generator. Both satisfy the cost-data
// port so the analysis pipeline runs unchanged without AWS access.
package replay

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// fixtureFile is the on-disk replay format. Dates are YYYY-MM-DD.
type fixtureFile struct {
	AccountID  string              `json:"account_id"`
	DailyCosts []fixturePoint      `json:"daily_costs"`
	ByService  map[string]float64  `json:"by_service"`
	Budgets    []entity.BudgetInfo `json:"budgets"`
}

type fixturePoint struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// Loader serves cost data from a recorded JSON fixture.
type Loader struct {
	accountID string
	points    []entity.DailyCostPoint
	byService entity.ServiceBreakdown
	budgets   []entity.BudgetInfo
}

// Load reads and validates a replay fixture from path.
func Load(path string) (*Loader, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading replay file: %w", err)
	}

	var file fixtureFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing replay file %s: %w", path, err)
	}
	if len(file.DailyCosts) == 0 {
		return nil, fmt.Errorf("replay file %s has no daily costs", path)
	}

	points := make([]entity.DailyCostPoint, 0, len(file.DailyCosts))
	seen := make(map[string]bool, len(file.DailyCosts))
	for _, p := range file.DailyCosts {
		date, err := time.Parse("2006-01-02", p.Date)
		if err != nil {
			return nil, fmt.Errorf("replay file %s: bad date %q: %w", path, p.Date, err)
		}
		if seen[p.Date] {
			return nil, fmt.Errorf("replay file %s: duplicate date %s", path, p.Date)
		}
		seen[p.Date] = true
		points = append(points, entity.DailyCostPoint{Date: date, Amount: p.Amount})
	}
	sort.Slice(points, func(i, j int) bool { return points[i].Date.Before(points[j].Date) })

	return &Loader{
		accountID: file.AccountID,
		points:    points,
		byService: file.ByService,
		budgets:   file.Budgets,
	}, nil
}

// GetCostData returns the recorded series restricted to the `days` days
// ending at asOf. Days the recording never covered are simply absent.
func (l *Loader) GetCostData(ctx context.Context, days int, asOf time.Time) (entity.CostData, error) {
	if days <= 0 {
		days = 30
	}

	end := asOf.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)

	data := entity.CostData{
		AccountID:   l.accountID,
		PeriodStart: start,
		PeriodEnd:   end.AddDate(0, 0, -1),
		ByService:   l.byService,
	}
	for _, p := range l.points {
		if p.Date.Before(start) || !p.Date.Before(end) {
			continue
		}
		data.DailyCosts = append(data.DailyCosts, p)
		data.TotalCost += p.Amount
	}
	return data, nil
}

// GetBudgets returns the budgets recorded in the fixture.
func (l *Loader) GetBudgets(ctx context.Context) ([]entity.BudgetInfo, error) {
	return l.budgets, nil
}

// Demo generates stable synthetic cost data: a weekly wave plus a mild
// upward drift and one pronounced spike, with no randomness, so repeated
// demo runs always show the same numbers.
type Demo struct{}

// NewDemo creates the demo source.
func NewDemo() *Demo {
	return &Demo{}
}

const demoAccountID = "123456789012"

// GetCostData synthesizes the `days` days ending the day before asOf.
func (d *Demo) GetCostData(ctx context.Context, days int, asOf time.Time) (entity.CostData, error) {
	if days <= 0 {
		days = 30
	}

	end := asOf.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)

	data := entity.CostData{
		AccountID:   demoAccountID,
		PeriodStart: start,
		PeriodEnd:   end.AddDate(0, 0, -1),
	}

	base := 280.0
	denom := float64(days - 1)
	if denom < 1 {
		denom = 1
	}
	for i := 0; i < days; i++ {
		wave := (float64(i%7) - 3) * 0.12
		trend := 0.25 * (float64(i) / denom)
		jitter := 1.5 * (float64(i%3) - 1)
		cost := base + base*(wave+trend) + jitter
		if cost < 0.5 {
			cost = 0.5
		}
		// One spike near the end so anomaly detection has something to find.
		if i == days-3 {
			cost *= 2.5
		}
		data.DailyCosts = append(data.DailyCosts, entity.DailyCostPoint{
			Date:   start.AddDate(0, 0, i),
			Amount: round2(cost),
		})
	}
	for _, p := range data.DailyCosts {
		data.TotalCost += p.Amount
	}

	total := data.TotalCost
	data.ByService = entity.ServiceBreakdown{
		"Amazon EC2":        round2(total * 0.52),
		"Amazon RDS":        round2(total * 0.25),
		"Amazon S3":         round2(total * 0.11),
		"AWS Lambda":        round2(total * 0.06),
		"NAT Gateway":       round2(total * 0.04),
		"Amazon CloudWatch": round2(total * 0.02),
	}

	return data, nil
}

// GetBudgets returns one demo budget sized to make the budget section
// interesting.
func (d *Demo) GetBudgets(ctx context.Context) ([]entity.BudgetInfo, error) {
	return []entity.BudgetInfo{
		{Name: "monthly-total", Limit: 9000, Actual: 8200, Forecast: 9800},
	}, nil
}

func round2(v float64) float64 {
	return float64(int64(v*100+0.5)) / 100
}
