// Package console implements terminal output on top of pterm.
package console

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
)

// Console implements types.ConsoleInterface.
type Console struct{}

// NewConsole creates a new Console.
func NewConsole() *Console {
	return &Console{}
}

func (c *Console) Print(a ...interface{}) {
	fmt.Print(a...)
}

func (c *Console) Printf(format string, a ...interface{}) {
	fmt.Printf(format, a...)
}

func (c *Console) Println(a ...interface{}) {
	fmt.Println(a...)
}

func (c *Console) LogInfo(format string, a ...interface{}) {
	pterm.Info.Printfln(format, a...)
}

func (c *Console) LogWarning(format string, a ...interface{}) {
	pterm.Warning.Printfln(format, a...)
}

func (c *Console) LogError(format string, a ...interface{}) {
	pterm.Error.Printfln(format, a...)
}

func (c *Console) LogSuccess(format string, a ...interface{}) {
	pterm.Success.Printfln(format, a...)
}

// Shared color helpers for CLI output.
var (
	BrightMagenta = color.New(color.FgMagenta, color.Bold).SprintFunc()
	BoldRed       = color.New(color.FgRed, color.Bold).SprintFunc()
	BrightGreen   = color.New(color.FgGreen, color.Bold).SprintFunc()
	BrightYellow  = color.New(color.FgYellow, color.Bold).SprintFunc()
	BrightCyan    = color.New(color.FgCyan, color.Bold).SprintFunc()
)

// statusHandle wraps a pterm spinner.
type statusHandle struct {
	spinner *pterm.SpinnerPrinter
}

// Status starts a spinner with the given message.
func (c *Console) Status(message string) types.StatusHandle {
	spinner, _ := pterm.DefaultSpinner.Start(message)
	return &statusHandle{spinner: spinner}
}

func (h *statusHandle) Update(message string) {
	if h.spinner != nil {
		h.spinner.UpdateText(message)
	}
}

func (h *statusHandle) Stop() {
	if h.spinner != nil {
		_ = h.spinner.Stop()
	}
}

// Table implements types.TableInterface on pterm.
type Table struct {
	columns []string
	rows    [][]string
}

// CreateTable creates an empty table.
func (c *Console) CreateTable() types.TableInterface {
	return &Table{
		columns: []string{},
		rows:    [][]string{},
	}
}

// AddColumn appends a header column.
func (t *Table) AddColumn(name string, options ...interface{}) {
	t.columns = append(t.columns, name)
}

// AddRow appends a row, stringifying each cell.
func (t *Table) AddRow(cells ...interface{}) {
	processedCells := make([]string, len(cells))
	for i, cell := range cells {
		processedCells[i] = fmt.Sprint(cell)
	}
	t.rows = append(t.rows, processedCells)
}

// Render renders the table as a string.
func (t *Table) Render() string {
	tableData := pterm.TableData{t.columns}
	for _, row := range t.rows {
		tableData = append(tableData, row)
	}

	table := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(tableData)

	renderedTable, _ := table.Srender()
	return renderedTable
}

// DisplayDailyCostBars renders the daily spend series as a bar chart.
// Flagged days are drawn in red so anomalies stand out in the series.
func (c *Console) DisplayDailyCostBars(points []types.DailyBar) {
	maxAmount := 0.0
	for _, p := range points {
		if p.Amount > maxAmount {
			maxAmount = p.Amount
		}
	}

	if maxAmount == 0 {
		pterm.Warning.Println("All costs are $0.00 for this period")
		return
	}

	tableData := pterm.TableData{
		{"Date", "Cost", ""},
	}

	for _, p := range points {
		barLength := int((p.Amount / maxAmount) * 40)
		bar := strings.Repeat("█", barLength)

		coloredBar := pterm.FgBlue.Sprint(bar)
		amount := fmt.Sprintf("$%.2f", p.Amount)
		if p.Flagged {
			coloredBar = pterm.FgRed.Sprint(bar + " ◀ anomaly")
			amount = pterm.FgRed.Sprint(amount)
		}

		tableData = append(tableData, []string{p.Label, amount, coloredBar})
	}

	table := pterm.DefaultTable.WithHasHeader().WithData(tableData)
	renderedTable, _ := table.Srender()

	panel := pterm.DefaultBox.
		WithTitle("Daily Spend").
		WithBoxStyle(pterm.NewStyle(pterm.FgCyan)).
		Sprint(renderedTable)

	fmt.Println("\n" + panel)
}
