// Package llm implements the narrative provider port against hosted
// text-generation APIs. Providers return plain advisory text; all
// numeric analysis happens before they are consulted.
package llm

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
)

const maxBodySize = 1 << 20 // 1 MB

var (
	// ErrMissingAPIKey indicates no API key was found for the selected
	// provider.
	ErrMissingAPIKey = errors.New("llm: API key not set")
	// ErrUnauthorized indicates the API key was rejected.
	ErrUnauthorized = errors.New("llm: unauthorized (check the API key)")
	// ErrRateLimited indicates the provider throttled the request.
	ErrRateLimited = errors.New("llm: rate limited")
)

// New builds the provider named by the config. Keys come from the
// environment: ANTHROPIC_API_KEY or OPENAI_API_KEY.
func New(cfg types.NarrativeConfig) (repository.NarrativeProvider, error) {
	model := cfg.Model
	maxTokens := cfg.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1000
	}

	switch strings.ToLower(cfg.Provider) {
	case "anthropic":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("%w: ANTHROPIC_API_KEY", ErrMissingAPIKey)
		}
		if model == "" {
			model = "claude-sonnet-4-20250514"
		}
		return &AnthropicProvider{apiKey: key, model: model, maxTokens: maxTokens, http: &http.Client{}}, nil
	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("%w: OPENAI_API_KEY", ErrMissingAPIKey)
		}
		if model == "" {
			model = "gpt-4.1-mini"
		}
		return &OpenAIProvider{apiKey: key, model: model, maxTokens: maxTokens, http: &http.Client{}}, nil
	case "mock":
		return &MockProvider{}, nil
	default:
		return nil, fmt.Errorf("llm: unknown provider %q", cfg.Provider)
	}
}

const systemPrompt = "You are a FinOps analyst. Explain cloud spend forecasts to engineers " +
	"in two or three short sentences. Mention the trend and the biggest cost driver. " +
	"Do not restate every number."

// buildPrompt renders the forecast and the top services into a compact
// prompt. Service order is fixed so the same inputs produce the same
// prompt.
func buildPrompt(forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Spend forecast for the next %d days: $%.2f total ($%.2f/day).\n",
		forecast.HorizonDays, forecast.ProjectedTotal, forecast.DailyAverage)
	fmt.Fprintf(&b, "Trend: %s (%.1f%% over the observed period). Volatility: %.1f%%. Confidence: %s. History: %d days.\n",
		forecast.Trend, forecast.GrowthRatePct, forecast.VolatilityPct, forecast.Confidence, forecast.HistoryDays)

	if len(breakdown) > 0 {
		type svc struct {
			name string
			cost float64
		}
		services := make([]svc, 0, len(breakdown))
		for name, cost := range breakdown {
			services = append(services, svc{name, cost})
		}
		sort.Slice(services, func(i, j int) bool {
			if services[i].cost != services[j].cost {
				return services[i].cost > services[j].cost
			}
			return services[i].name < services[j].name
		})
		if len(services) > 5 {
			services = services[:5]
		}
		b.WriteString("Top services this period:\n")
		for _, s := range services {
			fmt.Fprintf(&b, "- %s: $%.2f\n", s.name, s.cost)
		}
	}

	b.WriteString("Explain what is happening and what to watch.")
	return b.String()
}
