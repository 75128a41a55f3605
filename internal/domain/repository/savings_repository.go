package repository

import (
	"context"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// SavingsRepository is the durable recommendation ledger. Every mutating
// call commits before returning; Resolve executes as a single atomic
// transaction so that concurrent resolves of the same id cannot both
// succeed; the loser observes the resolved row and fails with
// types.ErrInvalidTransition. Empty resolution notes leave any existing
// notes in place. Reads see a consistent snapshot.
type SavingsRepository interface {
	Add(ctx context.Context, rec entity.Recommendation) (int64, error)
	Resolve(ctx context.Context, id int64, status entity.RecommendationStatus, actualSavings *float64, notes string) (entity.Recommendation, error)
	Get(ctx context.Context, id int64) (entity.Recommendation, error)
	List(ctx context.Context, status entity.RecommendationStatus) ([]entity.Recommendation, error)
	Summary(ctx context.Context) (entity.RoiSummary, error)

	AddSnapshot(ctx context.Context, snap entity.CostSnapshot) (int64, error)
	GetCostTrend(ctx context.Context, accountID string, limit int) ([]entity.CostSnapshot, error)

	Close() error
}
