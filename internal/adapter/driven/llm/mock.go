package llm

import (
	"context"
	"fmt"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// MockProvider produces a canned narrative without any network call.
// Useful for demos and for exercising the degraded-path plumbing.
type MockProvider struct{}

// Name identifies the provider in degraded-run messages.
func (p *MockProvider) Name() string { return "mock" }

// Explain renders a fixed-form summary from the forecast numbers.
func (p *MockProvider) Explain(ctx context.Context, forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) (string, error) {
	top := ""
	topCost := 0.0
	for name, cost := range breakdown {
		if cost > topCost {
			top, topCost = name, cost
		}
	}

	text := fmt.Sprintf("Spend is %s, projected at $%.2f over the next %d days.",
		forecast.Trend, forecast.ProjectedTotal, forecast.HorizonDays)
	if top != "" {
		text += fmt.Sprintf(" %s is the largest driver at $%.2f this period.", top, topCost)
	}
	return text, nil
}
