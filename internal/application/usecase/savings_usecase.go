package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
)

// SavingsLedger validates recommendation lifecycle rules and delegates
// durable state to the savings repository. The repository guarantees
// atomicity; this layer guarantees the records themselves are legal.
type SavingsLedger struct {
	repo repository.SavingsRepository
}

// NewSavingsLedger creates a ledger over the given store.
func NewSavingsLedger(repo repository.SavingsRepository) *SavingsLedger {
	return &SavingsLedger{repo: repo}
}

// Add records a new pending recommendation and returns its id. The
// candidate may come from an automated analysis pass or a human; either
// way it enters the ledger as pending with store-assigned id and
// timestamps.
func (l *SavingsLedger) Add(ctx context.Context, rec entity.Recommendation) (int64, error) {
	if strings.TrimSpace(rec.Title) == "" {
		return 0, fmt.Errorf("recommendation title is required")
	}
	if strings.TrimSpace(rec.Type) == "" {
		return 0, fmt.Errorf("recommendation type is required")
	}
	if rec.EstimatedMonthlySavings < 0 {
		return 0, fmt.Errorf("estimated monthly savings must be >= 0, got %.2f", rec.EstimatedMonthlySavings)
	}
	if rec.RiskLevel == "" {
		rec.RiskLevel = entity.RiskMedium
	}
	if rec.Effort == "" {
		rec.Effort = entity.EffortMedium
	}
	if !validRisk(rec.RiskLevel) {
		return 0, fmt.Errorf("invalid risk level %q", rec.RiskLevel)
	}
	if !validEffort(rec.Effort) {
		return 0, fmt.Errorf("invalid effort %q", rec.Effort)
	}

	rec.Status = entity.StatusPending
	rec.ResolvedAt = nil
	rec.ActualMonthlySavings = nil
	return l.repo.Add(ctx, rec)
}

// Implement resolves a pending recommendation as implemented. The
// measured actual savings are required so forecast accuracy stays
// computable.
func (l *SavingsLedger) Implement(ctx context.Context, id int64, actualSavings float64, notes string) (entity.Recommendation, error) {
	if actualSavings < 0 {
		return entity.Recommendation{}, fmt.Errorf("actual monthly savings must be >= 0, got %.2f", actualSavings)
	}
	return l.repo.Resolve(ctx, id, entity.StatusImplemented, &actualSavings, notes)
}

// Reject resolves a pending recommendation as rejected. Actual savings
// are omitted; a rejection reason goes into notes.
func (l *SavingsLedger) Reject(ctx context.Context, id int64, notes string) (entity.Recommendation, error) {
	return l.repo.Resolve(ctx, id, entity.StatusRejected, nil, notes)
}

// Get returns one recommendation by id.
func (l *SavingsLedger) Get(ctx context.Context, id int64) (entity.Recommendation, error) {
	return l.repo.Get(ctx, id)
}

// List returns recommendations, optionally filtered by status (empty
// status means all), newest first.
func (l *SavingsLedger) List(ctx context.Context, status entity.RecommendationStatus) ([]entity.Recommendation, error) {
	return l.repo.List(ctx, status)
}

// Summary returns the aggregate ROI numbers for the whole ledger.
func (l *SavingsLedger) Summary(ctx context.Context) (entity.RoiSummary, error) {
	return l.repo.Summary(ctx)
}

// RecordSnapshot persists a cost snapshot of one analyzed period.
func (l *SavingsLedger) RecordSnapshot(ctx context.Context, snap entity.CostSnapshot) (int64, error) {
	if snap.TotalCost < 0 {
		return 0, fmt.Errorf("snapshot total cost must be >= 0, got %.2f", snap.TotalCost)
	}
	return l.repo.AddSnapshot(ctx, snap)
}

// CostTrend returns up to limit recent snapshots for an account.
func (l *SavingsLedger) CostTrend(ctx context.Context, accountID string, limit int) ([]entity.CostSnapshot, error) {
	return l.repo.GetCostTrend(ctx, accountID, limit)
}

func validRisk(r entity.RiskLevel) bool {
	switch r {
	case entity.RiskLow, entity.RiskMedium, entity.RiskHigh:
		return true
	}
	return false
}

func validEffort(e entity.Effort) bool {
	switch e {
	case entity.EffortQuickWin, entity.EffortMedium, entity.EffortLarge:
		return true
	}
	return false
}
