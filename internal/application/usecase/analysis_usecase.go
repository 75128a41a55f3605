package usecase

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
	"github.com/nawuni/aws-cost-copilot-go/pkg/timeseries"
)

// AnalysisUseCase orchestrates one analysis run: fetch the cost series,
// detect anomalies, forecast spend, check the budget, enrich with the
// savings ledger, render and export. Computation failures abort the run;
// advisory steps (narrative, audit, snapshot) degrade it instead, and
// every degradation is listed on the report.
type AnalysisUseCase struct {
	costRepo   repository.CostDataRepository
	auditRepo  repository.ResourceAuditRepository
	exportRepo repository.ExportRepository
	ledger     *SavingsLedger
	detector   *AnomalyDetector
	forecaster *CostForecaster
	optimizer  *Optimizer
	console    types.ConsoleInterface

	// now is swapped in tests for a fixed clock.
	now func() time.Time
}

// NewAnalysisUseCase wires the orchestrator. auditRepo and ledger may be
// nil; the corresponding report sections are then omitted.
func NewAnalysisUseCase(
	costRepo repository.CostDataRepository,
	auditRepo repository.ResourceAuditRepository,
	exportRepo repository.ExportRepository,
	ledger *SavingsLedger,
	detector *AnomalyDetector,
	forecaster *CostForecaster,
	optimizer *Optimizer,
	console types.ConsoleInterface,
) *AnalysisUseCase {
	return &AnalysisUseCase{
		costRepo:   costRepo,
		auditRepo:  auditRepo,
		exportRepo: exportRepo,
		ledger:     ledger,
		detector:   detector,
		forecaster: forecaster,
		optimizer:  optimizer,
		console:    console,
		now:        time.Now,
	}
}

// Run executes the full analysis for the given arguments and renders the
// result to the console. The returned report is what exports receive.
func (uc *AnalysisUseCase) Run(ctx context.Context, args *types.CLIArgs) (entity.AnalysisReport, error) {
	asOf := uc.now().UTC()
	report := entity.AnalysisReport{GeneratedAt: asOf}

	status := uc.console.Status("Fetching cost data...")

	costData, err := uc.costRepo.GetCostData(ctx, args.Days, asOf)
	if err != nil {
		status.Stop()
		return report, fmt.Errorf("getting cost data: %w", err)
	}

	report.AccountID = costData.AccountID
	report.PeriodStart = costData.PeriodStart
	report.PeriodEnd = costData.PeriodEnd
	report.TotalSpend = costData.TotalCost
	report.ByService = costData.ByService
	report.DailyCosts = costData.DailyCosts

	status.Update("Detecting anomalies...")
	report.Anomalies = uc.detector.Detect(costData.DailyCosts, AnomalyConfig{
		LookbackDays: args.LookbackDays,
		MinDays:      args.MinDays,
	})

	status.Update("Forecasting spend...")
	forecast, err := uc.forecaster.Forecast(costData.DailyCosts, args.HorizonDays)
	if err != nil {
		var insufficient *timeseries.InsufficientDataError
		if errors.As(err, &insufficient) {
			report.Degraded = append(report.Degraded,
				fmt.Sprintf("forecast skipped: %s", insufficient))
		} else {
			status.Stop()
			return report, fmt.Errorf("forecasting: %w", err)
		}
	} else {
		report.Forecast = &forecast
	}

	if report.Forecast != nil {
		uc.checkBudget(ctx, args, &report, costData, asOf)
		uc.narrate(ctx, &report, costData.ByService)
	}

	uc.enrichFromLedger(ctx, &report, costData, args)

	if args.Audit {
		status.Update("Auditing resources...")
		uc.runAudit(ctx, &report, args)
	}

	status.Stop()

	uc.render(report)
	uc.export(report, args)

	return report, nil
}

// checkBudget fills the budget section. An explicit --budget wins; with
// no flag the first provider-side budget limit is used; with neither the
// section is omitted.
func (uc *AnalysisUseCase) checkBudget(ctx context.Context, args *types.CLIArgs, report *entity.AnalysisReport, costData entity.CostData, asOf time.Time) {
	budget := args.MonthlyBudget
	if budget <= 0 {
		budgets, err := uc.costRepo.GetBudgets(ctx)
		if err != nil {
			report.Degraded = append(report.Degraded, fmt.Sprintf("budgets unavailable: %s", err))
			return
		}
		for _, b := range budgets {
			if b.Limit > 0 {
				budget = b.Limit
				break
			}
		}
	}
	if budget <= 0 {
		return
	}

	dailyRate := currentDailyRate(costData.DailyCosts)
	alert := uc.forecaster.CheckBudget(*report.Forecast, budget, dailyRate, asOf)
	report.Budget = &alert
}

func (uc *AnalysisUseCase) narrate(ctx context.Context, report *entity.AnalysisReport, breakdown entity.ServiceBreakdown) {
	text, err := uc.forecaster.Narrate(ctx, *report.Forecast, breakdown)
	if err != nil {
		report.Degraded = append(report.Degraded, fmt.Sprintf("narrative unavailable: %s", err))
		return
	}
	if text != "" {
		report.Forecast.Narrative = text
	}
}

// enrichFromLedger records a snapshot of this run and attaches the ROI
// summary and pending recommendations. All ledger failures degrade.
func (uc *AnalysisUseCase) enrichFromLedger(ctx context.Context, report *entity.AnalysisReport, costData entity.CostData, args *types.CLIArgs) {
	if uc.ledger == nil {
		return
	}

	_, err := uc.ledger.RecordSnapshot(ctx, entity.CostSnapshot{
		Date:       report.GeneratedAt,
		AccountID:  costData.AccountID,
		TotalCost:  costData.TotalCost,
		PeriodDays: args.Days,
		ByService:  costData.ByService,
	})
	if err != nil {
		report.Degraded = append(report.Degraded, fmt.Sprintf("cost snapshot not recorded: %s", err))
	}

	summary, err := uc.ledger.Summary(ctx)
	if err != nil {
		report.Degraded = append(report.Degraded, fmt.Sprintf("ledger summary unavailable: %s", err))
	} else {
		report.Roi = &summary
	}

	pending, err := uc.ledger.List(ctx, entity.StatusPending)
	if err != nil {
		report.Degraded = append(report.Degraded, fmt.Sprintf("pending recommendations unavailable: %s", err))
	} else {
		report.Pending = pending
	}
}

// runAudit scans resources and files any new candidates into the ledger
// as pending recommendations. Candidates whose type already exists among
// the pending entries are skipped so repeated audits do not duplicate.
func (uc *AnalysisUseCase) runAudit(ctx context.Context, report *entity.AnalysisReport, args *types.CLIArgs) {
	if uc.auditRepo == nil {
		report.Degraded = append(report.Degraded, "resource audit unavailable in this mode")
		return
	}

	findings, err := uc.auditRepo.GetResourceFindings(ctx, args.Regions)
	if err != nil {
		report.Degraded = append(report.Degraded, fmt.Sprintf("resource audit failed: %s", err))
		return
	}

	candidates := uc.optimizer.Candidates(findings)
	if len(candidates) == 0 || uc.ledger == nil {
		return
	}

	existing := make(map[string]bool, len(report.Pending))
	for _, rec := range report.Pending {
		existing[rec.Type] = true
	}

	added := 0
	for _, cand := range candidates {
		if existing[cand.Type] {
			continue
		}
		if _, err := uc.ledger.Add(ctx, cand); err != nil {
			report.Degraded = append(report.Degraded, fmt.Sprintf("could not record candidate %q: %s", cand.Title, err))
			continue
		}
		added++
	}
	if added > 0 {
		uc.console.LogSuccess("Filed %d new recommendation(s) from the resource audit", added)
		if pending, err := uc.ledger.List(ctx, entity.StatusPending); err == nil {
			report.Pending = pending
		}
	}
}

// render writes the report to the console: summary table, daily bars,
// anomaly list, forecast and budget sections, then the ledger extract.
func (uc *AnalysisUseCase) render(report entity.AnalysisReport) {
	uc.console.Printf("\n%s\n", pterm.FgCyan.Sprintf("Account: %s    Period: %s to %s",
		orUnknown(report.AccountID),
		report.PeriodStart.Format("2006-01-02"),
		report.PeriodEnd.Format("2006-01-02")))
	uc.console.Printf("%s\n\n", pterm.NewStyle(pterm.FgRed, pterm.Bold).Sprintf("Total spend: $%.2f", report.TotalSpend))

	uc.renderServiceBreakdown(report.ByService)
	uc.renderDailyBars(report)
	uc.renderAnomalies(report.Anomalies)
	uc.renderForecast(report.Forecast)
	uc.renderBudget(report.Budget)
	uc.renderLedger(report.Roi, report.Pending)

	for _, msg := range report.Degraded {
		uc.console.LogWarning("Degraded: %s", msg)
	}
}

func (uc *AnalysisUseCase) renderServiceBreakdown(byService entity.ServiceBreakdown) {
	if len(byService) == 0 {
		return
	}

	type svc struct {
		name string
		cost float64
	}
	services := make([]svc, 0, len(byService))
	for name, cost := range byService {
		if cost > 0.001 {
			services = append(services, svc{name, cost})
		}
	}
	sort.Slice(services, func(i, j int) bool { return services[i].cost > services[j].cost })

	table := uc.console.CreateTable()
	table.AddColumn("Service")
	table.AddColumn("Cost")
	for _, s := range services {
		table.AddRow(s.name, pterm.FgGreen.Sprintf("$%.2f", s.cost))
	}
	uc.console.Print(table.Render())
}

func (uc *AnalysisUseCase) renderDailyBars(report entity.AnalysisReport) {
	if len(report.DailyCosts) == 0 {
		return
	}

	flagged := make(map[string]bool, len(report.Anomalies))
	for _, a := range report.Anomalies {
		flagged[a.Date.Format("2006-01-02")] = true
	}

	bars := make([]types.DailyBar, len(report.DailyCosts))
	for i, p := range report.DailyCosts {
		label := p.Date.Format("01-02")
		bars[i] = types.DailyBar{
			Label:   label,
			Amount:  p.Amount,
			Flagged: flagged[p.Date.Format("2006-01-02")],
		}
	}
	uc.console.DisplayDailyCostBars(bars)
}

func (uc *AnalysisUseCase) renderAnomalies(anomalies []entity.Anomaly) {
	if len(anomalies) == 0 {
		uc.console.LogInfo("No anomalous days in the period.")
		return
	}

	table := uc.console.CreateTable()
	table.AddColumn("Date")
	table.AddColumn("Amount")
	table.AddColumn("Severity")
	table.AddColumn("Reason")
	for _, a := range anomalies {
		table.AddRow(
			a.Date.Format("2006-01-02"),
			fmt.Sprintf("$%.2f", a.Amount),
			severityText(a.Severity),
			a.Reason,
		)
	}
	uc.console.Printf("\n%s\n", pterm.FgYellow.Sprintf("Anomalous days: %d", len(anomalies)))
	uc.console.Print(table.Render())
}

func (uc *AnalysisUseCase) renderForecast(forecast *entity.ForecastResult) {
	if forecast == nil {
		return
	}

	uc.console.Printf("\n%s\n", pterm.FgCyan.Sprint("Forecast"))
	uc.console.Printf("  Next %d days: %s (daily avg $%.2f)\n",
		forecast.HorizonDays,
		pterm.NewStyle(pterm.Bold).Sprintf("$%.2f", forecast.ProjectedTotal),
		forecast.DailyAverage)
	uc.console.Printf("  Trend: %s (%.1f%% over the period), volatility %.1f%%, confidence %s\n",
		trendText(forecast.Trend), forecast.GrowthRatePct, forecast.VolatilityPct, forecast.Confidence)
	if forecast.Narrative != "" {
		uc.console.Printf("\n%s\n", pterm.FgDarkGray.Sprint(wrapIndent(forecast.Narrative, "  ")))
	}
}

func (uc *AnalysisUseCase) renderBudget(alert *entity.BudgetAlert) {
	if alert == nil {
		return
	}

	uc.console.Printf("\n%s\n", pterm.FgCyan.Sprint("Budget"))
	uc.console.Printf("  Monthly budget $%.2f, projected $%.2f\n", alert.MonthlyBudget, alert.ProjectedSpend)
	if alert.Severity == entity.AlertNone {
		uc.console.LogSuccess("Projected spend is within budget.")
		return
	}

	line := fmt.Sprintf("Over budget by $%.2f (%.1f%%)", alert.Overage, alert.OveragePct)
	switch alert.Severity {
	case entity.AlertHigh:
		uc.console.LogError("%s", line)
	case entity.AlertMedium:
		uc.console.LogWarning("%s", line)
	default:
		uc.console.LogInfo("%s", line)
	}
	if alert.DaysUntilBreach != nil && alert.BreachDate != nil {
		uc.console.Printf("  At the current rate the budget is exhausted in %d day(s), on %s\n",
			*alert.DaysUntilBreach, alert.BreachDate.Format("2006-01-02"))
	}
}

func (uc *AnalysisUseCase) renderLedger(roi *entity.RoiSummary, pending []entity.Recommendation) {
	if roi == nil {
		return
	}

	uc.console.Printf("\n%s\n", pterm.FgCyan.Sprint("Savings ledger"))
	uc.console.Printf("  %d tracked: %d pending, %d implemented, %d rejected (%.0f%% implementation rate)\n",
		roi.Total, roi.Pending, roi.Implemented, roi.Rejected, roi.ImplementationRatePct)
	uc.console.Printf("  Realized $%.2f/month ($%.2f/year projected)\n", roi.ActualSavingsTotal, roi.AnnualProjection)
	if roi.ForecastAccuracyPct != nil {
		uc.console.Printf("  Savings estimates were %.1f%% accurate\n", *roi.ForecastAccuracyPct)
	}

	if len(pending) == 0 {
		return
	}
	table := uc.console.CreateTable()
	table.AddColumn("ID")
	table.AddColumn("Title")
	table.AddColumn("Est. $/month")
	table.AddColumn("Risk")
	table.AddColumn("Effort")
	for _, rec := range pending {
		table.AddRow(
			fmt.Sprintf("%d", rec.ID),
			rec.Title,
			fmt.Sprintf("$%.2f", rec.EstimatedMonthlySavings),
			string(rec.RiskLevel),
			string(rec.Effort),
		)
	}
	uc.console.Print(table.Render())
}

// export writes the report in each requested format; individual format
// failures are logged and do not stop the others.
func (uc *AnalysisUseCase) export(report entity.AnalysisReport, args *types.CLIArgs) {
	if args.ReportName == "" || len(args.ReportType) == 0 {
		return
	}

	for _, reportType := range args.ReportType {
		switch reportType {
		case "csv":
			path, err := uc.exportRepo.ExportToCSV(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to CSV: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to CSV: %s", path)
			}
		case "json":
			path, err := uc.exportRepo.ExportToJSON(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to JSON: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to JSON: %s", path)
			}
		case "pdf":
			path, err := uc.exportRepo.ExportToPDF(report, args.ReportName, args.Dir)
			if err != nil {
				uc.console.LogError("Failed to export to PDF: %s", err)
			} else {
				uc.console.LogSuccess("Successfully exported to PDF: %s", path)
			}
		default:
			uc.console.LogWarning("Unknown report type %q, skipping", reportType)
		}
	}
}

// currentDailyRate is the mean of the last seven observed days, the rate
// the breach projection runs forward at.
func currentDailyRate(series []entity.DailyCostPoint) float64 {
	if len(series) == 0 {
		return 0
	}
	start := len(series) - 7
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, p := range series[start:] {
		sum += p.Amount
	}
	return sum / float64(len(series)-start)
}

func severityText(s entity.Severity) string {
	switch s {
	case entity.SeverityHigh:
		return pterm.FgRed.Sprint(string(s))
	case entity.SeverityMedium:
		return pterm.FgYellow.Sprint(string(s))
	default:
		return pterm.FgCyan.Sprint(string(s))
	}
}

func trendText(t entity.Trend) string {
	switch t {
	case entity.TrendIncreasing:
		return pterm.FgRed.Sprint(string(t))
	case entity.TrendDecreasing:
		return pterm.FgGreen.Sprint(string(t))
	default:
		return pterm.FgYellow.Sprint(string(t))
	}
}

func orUnknown(s string) string {
	if s == "" {
		return "unknown"
	}
	return s
}

// wrapIndent prefixes each line of text with the given indent.
func wrapIndent(text, indent string) string {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	for i, l := range lines {
		lines[i] = indent + l
	}
	return strings.Join(lines, "\n")
}
