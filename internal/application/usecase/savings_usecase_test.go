package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
)

// memorySavingsRepo is an in-memory stand-in for the sqlite store with
// the same transition semantics.
type memorySavingsRepo struct {
	nextID    int64
	recs      map[int64]entity.Recommendation
	snapshots []entity.CostSnapshot
}

func newMemorySavingsRepo() *memorySavingsRepo {
	return &memorySavingsRepo{nextID: 1, recs: map[int64]entity.Recommendation{}}
}

func (m *memorySavingsRepo) Add(ctx context.Context, rec entity.Recommendation) (int64, error) {
	rec.ID = m.nextID
	rec.CreatedAt = time.Now().UTC()
	m.recs[rec.ID] = rec
	m.nextID++
	return rec.ID, nil
}

func (m *memorySavingsRepo) Resolve(ctx context.Context, id int64, status entity.RecommendationStatus, actualSavings *float64, notes string) (entity.Recommendation, error) {
	rec, ok := m.recs[id]
	if !ok {
		return entity.Recommendation{}, types.ErrNotFound
	}
	if rec.Status != entity.StatusPending {
		return entity.Recommendation{}, types.ErrInvalidTransition
	}
	now := time.Now().UTC()
	rec.Status = status
	rec.ResolvedAt = &now
	rec.ActualMonthlySavings = actualSavings
	if notes != "" {
		rec.Notes = notes
	}
	m.recs[id] = rec
	return rec, nil
}

func (m *memorySavingsRepo) Get(ctx context.Context, id int64) (entity.Recommendation, error) {
	rec, ok := m.recs[id]
	if !ok {
		return entity.Recommendation{}, types.ErrNotFound
	}
	return rec, nil
}

func (m *memorySavingsRepo) List(ctx context.Context, status entity.RecommendationStatus) ([]entity.Recommendation, error) {
	var out []entity.Recommendation
	for _, rec := range m.recs {
		if status == "" || rec.Status == status {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (m *memorySavingsRepo) Summary(ctx context.Context) (entity.RoiSummary, error) {
	var s entity.RoiSummary
	var accSum float64
	var accN int
	for _, rec := range m.recs {
		s.Total++
		s.EstimatedSavingsTotal += rec.EstimatedMonthlySavings
		switch rec.Status {
		case entity.StatusPending:
			s.Pending++
		case entity.StatusImplemented:
			s.Implemented++
			s.ImplementedSavingsEstimated += rec.EstimatedMonthlySavings
			if rec.ActualMonthlySavings != nil {
				s.ActualSavingsTotal += *rec.ActualMonthlySavings
				if rec.EstimatedMonthlySavings > 0 {
					acc := 100 * (1 - abs(rec.EstimatedMonthlySavings-*rec.ActualMonthlySavings)/rec.EstimatedMonthlySavings)
					if acc < 0 {
						acc = 0
					}
					if acc > 100 {
						acc = 100
					}
					accSum += acc
					accN++
				}
			}
		case entity.StatusRejected:
			s.Rejected++
		}
	}
	if s.Total > 0 {
		s.ImplementationRatePct = 100 * float64(s.Implemented) / float64(s.Total)
	}
	s.AnnualProjection = s.ActualSavingsTotal * 12
	if accN > 0 {
		avg := accSum / float64(accN)
		s.ForecastAccuracyPct = &avg
	}
	return s, nil
}

func (m *memorySavingsRepo) AddSnapshot(ctx context.Context, snap entity.CostSnapshot) (int64, error) {
	snap.ID = int64(len(m.snapshots) + 1)
	m.snapshots = append(m.snapshots, snap)
	return snap.ID, nil
}

func (m *memorySavingsRepo) GetCostTrend(ctx context.Context, accountID string, limit int) ([]entity.CostSnapshot, error) {
	return m.snapshots, nil
}

func (m *memorySavingsRepo) Close() error { return nil }

func abs(x float64) float64 {
	if x < 0 {
		return -x
	}
	return x
}

func TestLedgerAddValidation(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())
	ctx := context.Background()

	tests := []struct {
		name string
		rec  entity.Recommendation
	}{
		{"missing title", entity.Recommendation{Type: "EBS_unattached"}},
		{"missing type", entity.Recommendation{Title: "Delete volumes"}},
		{"negative estimate", entity.Recommendation{Title: "x", Type: "y", EstimatedMonthlySavings: -1}},
		{"bad risk", entity.Recommendation{Title: "x", Type: "y", RiskLevel: "extreme"}},
		{"bad effort", entity.Recommendation{Title: "x", Type: "y", Effort: "weekend"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ledger.Add(ctx, tt.rec); err == nil {
				t.Errorf("Add accepted %+v, want error", tt.rec)
			}
		})
	}
}

func TestLedgerAddForcesPending(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())
	ctx := context.Background()

	resolved := time.Now()
	actual := 50.0
	id, err := ledger.Add(ctx, entity.Recommendation{
		Title:                "Delete unattached volumes",
		Type:                 "EBS_unattached",
		Status:               entity.StatusImplemented,
		ResolvedAt:           &resolved,
		ActualMonthlySavings: &actual,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	got, err := ledger.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != entity.StatusPending {
		t.Errorf("status = %s, want %s", got.Status, entity.StatusPending)
	}
	if got.ResolvedAt != nil || got.ActualMonthlySavings != nil {
		t.Errorf("resolution fields set on a new entry: %+v", got)
	}
	if got.RiskLevel != entity.RiskMedium || got.Effort != entity.EffortMedium {
		t.Errorf("defaults not applied: risk=%s effort=%s", got.RiskLevel, got.Effort)
	}
}

func TestLedgerLifecycle(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())
	ctx := context.Background()

	id, err := ledger.Add(ctx, entity.Recommendation{
		Title:                   "Release unassociated EIPs",
		Type:                    "EIP_unassociated",
		EstimatedMonthlySavings: 100,
		RiskLevel:               entity.RiskLow,
		Effort:                  entity.EffortQuickWin,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}

	rec, err := ledger.Implement(ctx, id, 97, "released 3 EIPs")
	if err != nil {
		t.Fatalf("Implement: %v", err)
	}
	if rec.Status != entity.StatusImplemented {
		t.Errorf("status = %s, want %s", rec.Status, entity.StatusImplemented)
	}
	if rec.ActualMonthlySavings == nil || *rec.ActualMonthlySavings != 97 {
		t.Errorf("actual savings = %v, want 97", rec.ActualMonthlySavings)
	}
	if rec.ResolvedAt == nil {
		t.Error("resolved_at not set")
	}

	// Terminal states cannot move again.
	if _, err := ledger.Implement(ctx, id, 97, ""); !errors.Is(err, types.ErrInvalidTransition) {
		t.Errorf("second Implement error = %v, want ErrInvalidTransition", err)
	}
	if _, err := ledger.Reject(ctx, id, "changed my mind"); !errors.Is(err, types.ErrInvalidTransition) {
		t.Errorf("Reject after Implement error = %v, want ErrInvalidTransition", err)
	}
}

func TestLedgerResolveMissing(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())

	if _, err := ledger.Reject(context.Background(), 42, ""); !errors.Is(err, types.ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestLedgerImplementRejectsNegativeActual(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())

	if _, err := ledger.Implement(context.Background(), 1, -5, ""); err == nil {
		t.Error("negative actual savings accepted, want error")
	}
}

func TestLedgerSummaryAccuracy(t *testing.T) {
	ledger := NewSavingsLedger(newMemorySavingsRepo())
	ctx := context.Background()

	id, err := ledger.Add(ctx, entity.Recommendation{
		Title:                   "Set log retention",
		Type:                    "logs_retention",
		EstimatedMonthlySavings: 100,
	})
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := ledger.Implement(ctx, id, 97, ""); err != nil {
		t.Fatalf("Implement: %v", err)
	}
	if _, err := ledger.Add(ctx, entity.Recommendation{Title: "Tag resources", Type: "tag_hygiene"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	summary, err := ledger.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.Total != 2 || summary.Implemented != 1 || summary.Pending != 1 {
		t.Errorf("counts = %d/%d/%d, want 2 total, 1 implemented, 1 pending",
			summary.Total, summary.Implemented, summary.Pending)
	}
	if summary.ForecastAccuracyPct == nil {
		t.Fatal("forecast accuracy nil, want 97.0")
	}
	if got := *summary.ForecastAccuracyPct; got != 97 {
		t.Errorf("forecast accuracy = %f, want 97", got)
	}
	if summary.AnnualProjection != 97*12 {
		t.Errorf("annual projection = %f, want %f", summary.AnnualProjection, 97.0*12)
	}
}
