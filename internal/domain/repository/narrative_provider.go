package repository

import (
	"context"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// NarrativeProvider is the external text-generation collaborator
// consulted for supplementary commentary on a forecast. Calls are
// advisory: the caller bounds them with a context deadline, never lets
// a failure reach the numeric pipeline, and never feeds the text back
// into any computation.
type NarrativeProvider interface {
	Name() string
	Explain(ctx context.Context, forecast entity.ForecastResult, breakdown entity.ServiceBreakdown) (string, error)
}
