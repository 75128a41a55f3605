package repository

import (
	"context"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// CostDataRepository is the external cost-data collaborator. The core
// makes no assumption about how the data is retrieved (live API, replay
// file, synthetic fixture), only that dates are unique, ascending, and
// not after the analysis as-of date.
type CostDataRepository interface {
	// GetCostData returns the daily series and per-service breakdown for
	// the `days` days ending at asOf.
	GetCostData(ctx context.Context, days int, asOf time.Time) (entity.CostData, error)
	// GetBudgets returns the provider-side budgets, when any exist.
	GetBudgets(ctx context.Context) ([]entity.BudgetInfo, error)
}

// ResourceAuditRepository scans cloud resources for waste that can be
// turned into recommendation candidates. Implemented only by the live
// adapter; replay/demo sources return nothing.
type ResourceAuditRepository interface {
	GetResourceFindings(ctx context.Context, regions []string) (entity.ResourceFindings, error)
}
