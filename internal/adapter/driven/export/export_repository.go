// Package export writes analysis reports to CSV, JSON, and PDF files.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
)

// ExportRepositoryImpl implements repository.ExportRepository.
type ExportRepositoryImpl struct{}

// NewExportRepository creates a new export repository.
func NewExportRepository() repository.ExportRepository {
	return &ExportRepositoryImpl{}
}

// ExportToCSV writes the report as a flat CSV: one summary block, then the
// daily series with anomaly annotations, then pending recommendations.
func (r *ExportRepositoryImpl) ExportToCSV(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "csv")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating CSV file: %w", err)
	}
	defer func() { _ = file.Close() }()

	w := csv.NewWriter(file)
	defer w.Flush()

	writeRow := func(fields ...string) {
		_ = w.Write(fields)
	}

	writeRow("Account ID", report.AccountID)
	writeRow("Period", fmt.Sprintf("%s to %s",
		report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02")))
	writeRow("Total Spend", fmt.Sprintf("%.2f", report.TotalSpend))
	if report.Forecast != nil {
		f := report.Forecast
		writeRow("Forecast Projected Total", fmt.Sprintf("%.2f", f.ProjectedTotal))
		writeRow("Forecast Daily Average", fmt.Sprintf("%.2f", f.DailyAverage))
		writeRow("Forecast Trend", string(f.Trend))
		writeRow("Forecast Confidence", string(f.Confidence))
	}
	if report.Budget != nil {
		b := report.Budget
		writeRow("Budget Limit", fmt.Sprintf("%.2f", b.MonthlyBudget))
		writeRow("Budget Projected Overage", fmt.Sprintf("%.2f", b.Overage))
		writeRow("Budget Severity", string(b.Severity))
		if b.BreachDate != nil {
			writeRow("Budget Breach Date", b.BreachDate.Format("2006-01-02"))
		}
	}
	writeRow()

	writeRow("Service", "Cost")
	for _, sc := range sortedServices(report.ByService) {
		writeRow(sc.name, fmt.Sprintf("%.2f", sc.cost))
	}
	writeRow()

	anomalyByDate := make(map[string]entity.Anomaly, len(report.Anomalies))
	for _, a := range report.Anomalies {
		anomalyByDate[a.Date.Format("2006-01-02")] = a
	}

	writeRow("Date", "Cost", "Anomaly Severity", "Anomaly Reason")
	for _, point := range report.DailyCosts {
		date := point.Date.Format("2006-01-02")
		severity, reason := "", ""
		if a, ok := anomalyByDate[date]; ok {
			severity, reason = string(a.Severity), a.Reason
		}
		writeRow(date, fmt.Sprintf("%.2f", point.Amount), severity, reason)
	}

	if len(report.Pending) > 0 {
		writeRow()
		writeRow("Recommendation", "Type", "Est. Monthly Savings", "Risk", "Effort")
		for _, rec := range report.Pending {
			writeRow(rec.Title, rec.Type,
				fmt.Sprintf("%.2f", rec.EstimatedMonthlySavings), string(rec.RiskLevel), string(rec.Effort))
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return "", fmt.Errorf("error writing CSV data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToJSON writes the full report structure, pretty printed.
func (r *ExportRepositoryImpl) ExportToJSON(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "json")
	if err != nil {
		return "", err
	}

	file, err := os.Create(outputFilename)
	if err != nil {
		return "", fmt.Errorf("error creating JSON file: %w", err)
	}
	defer func() { _ = file.Close() }()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(report); err != nil {
		return "", fmt.Errorf("error encoding JSON data: %w", err)
	}

	return filepath.Abs(outputFilename)
}

// ExportToPDF renders the report as a single-account PDF document.
func (r *ExportRepositoryImpl) ExportToPDF(report entity.AnalysisReport, filename, outputDir string) (string, error) {
	outputFilename, err := generateFilename(filename, outputDir, "pdf")
	if err != nil {
		return "", err
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	headerColor := [3]int{40, 40, 40}
	headerTextColor := [3]int{255, 255, 255}
	sectionTitleColor := [3]int{0, 0, 0}
	bodyTextColor := [3]int{50, 50, 50}
	lineColor := [3]int{200, 200, 200}

	drawSection := func(title string, content string) {
		if strings.TrimSpace(content) == "" {
			return
		}
		pdf.SetFont("Arial", "B", 12)
		pdf.SetTextColor(sectionTitleColor[0], sectionTitleColor[1], sectionTitleColor[2])
		pdf.Cell(0, 8, tr(title))
		pdf.Ln(7)

		pdf.SetDrawColor(lineColor[0], lineColor[1], lineColor[2])
		pdf.Line(pdf.GetX(), pdf.GetY(), pdf.GetX()+190, pdf.GetY())
		pdf.Ln(4)

		pdf.SetFont("Arial", "", 10)
		pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
		pdf.MultiCell(190, 5, tr(content), "", "L", false)
		pdf.Ln(8)
	}

	pdf.AddPage()

	pdf.SetFillColor(headerColor[0], headerColor[1], headerColor[2])
	pdf.SetTextColor(headerTextColor[0], headerTextColor[1], headerTextColor[2])
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 12, tr("  Cost Analysis Report"), "", 1, "L", true, 0, "")

	pdf.SetFont("Arial", "", 10)
	pdf.SetFillColor(240, 240, 240)
	pdf.SetTextColor(bodyTextColor[0], bodyTextColor[1], bodyTextColor[2])
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Account ID: %s", report.AccountID)), "", 1, "L", true, 0, "")
	pdf.CellFormat(0, 8, tr(fmt.Sprintf("  Period: %s to %s",
		report.PeriodStart.Format("2006-01-02"), report.PeriodEnd.Format("2006-01-02"))), "", 1, "L", true, 0, "")
	pdf.Ln(8)

	var summary strings.Builder
	summary.WriteString(fmt.Sprintf("Total Spend: $%.2f\n", report.TotalSpend))
	if report.Forecast != nil {
		f := report.Forecast
		summary.WriteString(fmt.Sprintf("Projected (next %d days): $%.2f at $%.2f/day\n",
			f.HorizonDays, f.ProjectedTotal, f.DailyAverage))
		summary.WriteString(fmt.Sprintf("Trend: %s (growth %.1f%%, volatility %.1f%%, confidence %s)\n",
			f.Trend, f.GrowthRatePct, f.VolatilityPct, f.Confidence))
	}
	drawSection("Summary", summary.String())

	var services strings.Builder
	for _, sc := range sortedServices(report.ByService) {
		services.WriteString(fmt.Sprintf("%s: $%.2f\n", sc.name, sc.cost))
	}
	drawSection("Cost By Service", services.String())

	if len(report.Anomalies) > 0 {
		var anomalies strings.Builder
		for _, a := range report.Anomalies {
			anomalies.WriteString(fmt.Sprintf("%s: $%.2f [%s] %s\n",
				a.Date.Format("2006-01-02"), a.Amount, a.Severity, a.Reason))
		}
		drawSection("Anomalies", anomalies.String())
	}

	if report.Budget != nil {
		b := report.Budget
		var budget strings.Builder
		budget.WriteString(fmt.Sprintf("Monthly Budget: $%.2f\n", b.MonthlyBudget))
		budget.WriteString(fmt.Sprintf("Projected Spend: $%.2f\n", b.ProjectedSpend))
		if b.Overage > 0 {
			budget.WriteString(fmt.Sprintf("Projected Overage: $%.2f (%.1f%%, severity %s)\n",
				b.Overage, b.OveragePct, b.Severity))
		}
		if b.BreachDate != nil && b.DaysUntilBreach != nil {
			budget.WriteString(fmt.Sprintf("Projected Breach: %s (in %d days)\n",
				b.BreachDate.Format("2006-01-02"), *b.DaysUntilBreach))
		}
		drawSection("Budget", budget.String())
	}

	if report.Roi != nil {
		roi := report.Roi
		var ledger strings.Builder
		ledger.WriteString(fmt.Sprintf("Recommendations: %d total (%d pending, %d implemented, %d rejected)\n",
			roi.Total, roi.Pending, roi.Implemented, roi.Rejected))
		ledger.WriteString(fmt.Sprintf("Estimated Monthly Savings (all): $%.2f\n", roi.EstimatedSavingsTotal))
		ledger.WriteString(fmt.Sprintf("Actual Monthly Savings (implemented): $%.2f\n", roi.ActualSavingsTotal))
		ledger.WriteString(fmt.Sprintf("Annual Projection: $%.2f\n", roi.AnnualProjection))
		if roi.ForecastAccuracyPct != nil {
			ledger.WriteString(fmt.Sprintf("Estimate Accuracy: %.1f%%\n", *roi.ForecastAccuracyPct))
		}
		drawSection("Savings Ledger", ledger.String())
	}

	if len(report.Pending) > 0 {
		var pending strings.Builder
		for _, rec := range report.Pending {
			pending.WriteString(fmt.Sprintf("%s (%s): est. $%.2f/mo, risk %s, effort %s\n",
				rec.Title, rec.Type, rec.EstimatedMonthlySavings, rec.RiskLevel, rec.Effort))
		}
		drawSection("Pending Recommendations", pending.String())
	}

	if report.Forecast != nil && report.Forecast.Narrative != "" {
		drawSection("Commentary", report.Forecast.Narrative)
	}

	if len(report.Degraded) > 0 {
		drawSection("Degraded Checks", strings.Join(report.Degraded, "\n"))
	}

	pdf.SetY(-15)
	pdf.SetFont("Arial", "I", 8)
	pdf.SetTextColor(128, 128, 128)
	footerText := fmt.Sprintf("Generated by AWS Cost Copilot | %s", report.GeneratedAt.Format("2006-01-02"))
	pdf.CellFormat(0, 10, tr(footerText), "", 0, "L", false, 0, "")

	if err := pdf.OutputFileAndClose(outputFilename); err != nil {
		return "", fmt.Errorf("error writing PDF file: %w", err)
	}

	return filepath.Abs(outputFilename)
}

type serviceCost struct {
	name string
	cost float64
}

func sortedServices(breakdown entity.ServiceBreakdown) []serviceCost {
	services := make([]serviceCost, 0, len(breakdown))
	for name, cost := range breakdown {
		services = append(services, serviceCost{name, cost})
	}
	sort.Slice(services, func(i, j int) bool {
		if services[i].cost != services[j].cost {
			return services[i].cost > services[j].cost
		}
		return services[i].name < services[j].name
	})
	return services
}

// generateFilename builds a timestamped output path and ensures the
// directory exists.
func generateFilename(base, dir, ext string) (string, error) {
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("could not get current working directory: %w", err)
		}
		dir = cwd
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("error creating output directory '%s': %w", dir, err)
	}
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("%s_%s.%s", base, timestamp, ext)
	return filepath.Join(dir, filename), nil
}
