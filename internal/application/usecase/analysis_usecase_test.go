package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
)

type stubCostRepo struct {
	data    entity.CostData
	err     error
	budgets []entity.BudgetInfo
}

func (s *stubCostRepo) GetCostData(ctx context.Context, days int, asOf time.Time) (entity.CostData, error) {
	return s.data, s.err
}

func (s *stubCostRepo) GetBudgets(ctx context.Context) ([]entity.BudgetInfo, error) {
	return s.budgets, nil
}

type stubAuditRepo struct {
	findings entity.ResourceFindings
	err      error
}

func (s *stubAuditRepo) GetResourceFindings(ctx context.Context, regions []string) (entity.ResourceFindings, error) {
	return s.findings, s.err
}

type recordingExportRepo struct {
	csv, json, pdf int
}

func (r *recordingExportRepo) ExportToCSV(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	r.csv++
	return "/out/report.csv", nil
}

func (r *recordingExportRepo) ExportToJSON(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	r.json++
	return "/out/report.json", nil
}

func (r *recordingExportRepo) ExportToPDF(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	r.pdf++
	return "/out/report.pdf", nil
}

type nopConsole struct{}

func (nopConsole) Print(a ...interface{})                     {}
func (nopConsole) Printf(format string, a ...interface{})     {}
func (nopConsole) Println(a ...interface{})                   {}
func (nopConsole) LogInfo(format string, a ...interface{})    {}
func (nopConsole) LogWarning(format string, a ...interface{}) {}
func (nopConsole) LogError(format string, a ...interface{})   {}
func (nopConsole) LogSuccess(format string, a ...interface{}) {}
func (nopConsole) Status(message string) types.StatusHandle   { return nopStatus{} }
func (nopConsole) CreateTable() types.TableInterface          { return &nopTable{} }
func (nopConsole) DisplayDailyCostBars(points []types.DailyBar) {
}

type nopStatus struct{}

func (nopStatus) Update(message string) {}
func (nopStatus) Stop()                 {}

type nopTable struct{}

func (*nopTable) AddColumn(name string, options ...interface{}) {}
func (*nopTable) AddRow(cells ...interface{})                   {}
func (*nopTable) Render() string                                { return "" }

// flatSeriesWithSpike builds n days of `base` spend ending the day
// before asOf, with one spiked day at index spikeAt.
func flatSeriesWithSpike(asOf time.Time, n int, base, spike float64, spikeAt int) entity.CostData {
	start := asOf.AddDate(0, 0, -n)
	data := entity.CostData{
		AccountID:   "123456789012",
		PeriodStart: start,
		PeriodEnd:   asOf.AddDate(0, 0, -1),
		ByService:   entity.ServiceBreakdown{"AmazonEC2": 1000, "AmazonS3": 200},
	}
	for i := 0; i < n; i++ {
		amount := base
		if i == spikeAt {
			amount = spike
		}
		data.DailyCosts = append(data.DailyCosts, entity.DailyCostPoint{
			Date:   start.AddDate(0, 0, i),
			Amount: amount,
		})
		data.TotalCost += amount
	}
	return data
}

func newTestAnalysis(costRepo *stubCostRepo, auditRepo *stubAuditRepo, exportRepo *recordingExportRepo, ledgerRepo *memorySavingsRepo, asOf time.Time) *AnalysisUseCase {
	var ledger *SavingsLedger
	if ledgerRepo != nil {
		ledger = NewSavingsLedger(ledgerRepo)
	}
	var audit repository.ResourceAuditRepository
	if auditRepo != nil {
		audit = auditRepo
	}

	uc := NewAnalysisUseCase(
		costRepo,
		audit,
		exportRepo,
		ledger,
		NewAnomalyDetector(),
		NewCostForecaster(nil, time.Second),
		NewOptimizer(),
		nopConsole{},
	)
	uc.now = func() time.Time { return asOf }
	return uc
}

func defaultArgs() *types.CLIArgs {
	return &types.CLIArgs{
		Days:         14,
		HorizonDays:  30,
		LookbackDays: 7,
		MinDays:      7,
	}
}

func TestRunFullPipeline(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 9, 30, 0, 0, time.UTC)
	costRepo := &stubCostRepo{data: flatSeriesWithSpike(asOf, 14, 100, 400, 10)}
	ledgerRepo := newMemorySavingsRepo()

	uc := newTestAnalysis(costRepo, nil, &recordingExportRepo{}, ledgerRepo, asOf)

	report, err := uc.Run(context.Background(), defaultArgs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.AccountID != "123456789012" {
		t.Errorf("account = %q", report.AccountID)
	}
	if report.TotalSpend != 100*13+400 {
		t.Errorf("total = %.2f", report.TotalSpend)
	}
	if len(report.Anomalies) != 1 || report.Anomalies[0].Amount != 400 {
		t.Errorf("anomalies = %+v", report.Anomalies)
	}
	if report.Forecast == nil {
		t.Fatal("forecast section missing")
	}
	if report.Budget != nil {
		t.Errorf("budget section present without a budget: %+v", report.Budget)
	}
	if report.Roi == nil {
		t.Error("ledger summary missing")
	}
	if len(report.Degraded) != 0 {
		t.Errorf("degraded = %v", report.Degraded)
	}
	if len(ledgerRepo.snapshots) != 1 {
		t.Fatalf("snapshots recorded = %d, want 1", len(ledgerRepo.snapshots))
	}
	if snap := ledgerRepo.snapshots[0]; snap.TotalCost != report.TotalSpend || snap.AccountID != report.AccountID {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestRunDegradesWhenHistoryTooShort(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{data: flatSeriesWithSpike(asOf, 1, 100, 100, 0)}

	uc := newTestAnalysis(costRepo, nil, &recordingExportRepo{}, newMemorySavingsRepo(), asOf)

	report, err := uc.Run(context.Background(), defaultArgs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Forecast != nil {
		t.Errorf("forecast = %+v, want nil", report.Forecast)
	}
	found := false
	for _, msg := range report.Degraded {
		if strings.Contains(msg, "forecast skipped") {
			found = true
		}
	}
	if !found {
		t.Errorf("degraded = %v, want a forecast-skipped entry", report.Degraded)
	}
}

func TestRunCostDataFailureIsFatal(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{err: errors.New("throttled")}

	uc := newTestAnalysis(costRepo, nil, &recordingExportRepo{}, newMemorySavingsRepo(), asOf)

	if _, err := uc.Run(context.Background(), defaultArgs()); err == nil {
		t.Fatal("Run succeeded with a failing cost source")
	}
}

func TestRunUsesProviderBudgetWhenFlagUnset(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{
		data:    flatSeriesWithSpike(asOf, 14, 100, 100, 0),
		budgets: []entity.BudgetInfo{{Name: "monthly", Limit: 2500}},
	}

	uc := newTestAnalysis(costRepo, nil, &recordingExportRepo{}, newMemorySavingsRepo(), asOf)

	report, err := uc.Run(context.Background(), defaultArgs())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Budget == nil || report.Budget.MonthlyBudget != 2500 {
		t.Errorf("budget = %+v, want limit 2500", report.Budget)
	}
}

func TestRunAuditFilesCandidatesOnce(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{data: flatSeriesWithSpike(asOf, 14, 100, 100, 0)}
	auditRepo := &stubAuditRepo{findings: entity.ResourceFindings{
		AccountID:        "123456789012",
		StoppedInstances: map[string][]string{"us-east-1": {"i-0abc", "i-0def"}},
	}}
	ledgerRepo := newMemorySavingsRepo()

	uc := newTestAnalysis(costRepo, auditRepo, &recordingExportRepo{}, ledgerRepo, asOf)

	args := defaultArgs()
	args.Audit = true

	report, err := uc.Run(context.Background(), args)
	if err != nil {
		t.Fatalf("first Run: %v", err)
	}
	if len(report.Pending) != 1 || report.Pending[0].Type != "EC2_stopped" {
		t.Fatalf("pending after first audit = %+v", report.Pending)
	}

	report, err = uc.Run(context.Background(), args)
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if len(report.Pending) != 1 {
		t.Errorf("pending after second audit = %d, want 1 (no duplicates)", len(report.Pending))
	}
}

func TestRunAuditDegradesWithoutAuditSource(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{data: flatSeriesWithSpike(asOf, 14, 100, 100, 0)}

	uc := newTestAnalysis(costRepo, nil, &recordingExportRepo{}, newMemorySavingsRepo(), asOf)

	args := defaultArgs()
	args.Audit = true

	report, err := uc.Run(context.Background(), args)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	found := false
	for _, msg := range report.Degraded {
		if strings.Contains(msg, "resource audit unavailable") {
			found = true
		}
	}
	if !found {
		t.Errorf("degraded = %v, want a resource-audit entry", report.Degraded)
	}
}

func TestRunExportsRequestedFormats(t *testing.T) {
	asOf := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	costRepo := &stubCostRepo{data: flatSeriesWithSpike(asOf, 14, 100, 100, 0)}
	exportRepo := &recordingExportRepo{}

	uc := newTestAnalysis(costRepo, nil, exportRepo, newMemorySavingsRepo(), asOf)

	args := defaultArgs()
	args.ReportName = "report"
	args.ReportType = []string{"csv", "json"}

	if _, err := uc.Run(context.Background(), args); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if exportRepo.csv != 1 || exportRepo.json != 1 || exportRepo.pdf != 0 {
		t.Errorf("exports = csv:%d json:%d pdf:%d", exportRepo.csv, exportRepo.json, exportRepo.pdf)
	}
}
