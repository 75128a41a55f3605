// Package cli wires the cobra commands to the analysis and ledger use
// cases.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/aws"
	configrepo "github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/config"
	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/export"
	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/llm"
	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/replay"
	"github.com/nawuni/aws-cost-copilot-go/internal/adapter/driven/store"
	"github.com/nawuni/aws-cost-copilot-go/internal/application/usecase"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
	"github.com/nawuni/aws-cost-copilot-go/internal/domain/repository"
	"github.com/nawuni/aws-cost-copilot-go/internal/shared/types"
	"github.com/nawuni/aws-cost-copilot-go/pkg/console"
	"github.com/nawuni/aws-cost-copilot-go/pkg/version"
)

// CLIApp is the command-line application.
type CLIApp struct {
	rootCmd *cobra.Command
	console types.ConsoleInterface
	version string
}

// NewCLIApp builds the command tree.
func NewCLIApp(versionStr string) *CLIApp {
	app := &CLIApp{
		console: console.NewConsole(),
		version: versionStr,
	}

	formattedVersion := version.FormatVersion()

	rootCmd := &cobra.Command{
		Use:     "cost-copilot",
		Short:   "AWS cost analysis: anomalies, forecast, budget, and a savings ledger",
		Version: formattedVersion,
		RunE:    app.runAnalysis,
	}
	rootCmd.SetVersionTemplate(`{{printf "AWS Cost Copilot version: %s\n" .Version}}`)

	rootCmd.PersistentFlags().StringP("config-file", "C", "", "Path to a TOML, YAML, or JSON configuration file")
	rootCmd.PersistentFlags().String("db", "", "Path to the savings ledger database (default: ~/.cost-copilot/ledger.db)")

	rootCmd.Flags().StringP("profile", "p", "", "AWS profile to use")
	rootCmd.Flags().StringSliceP("regions", "r", nil, "AWS regions for the resource audit (comma-separated; default: all accessible)")
	rootCmd.Flags().StringP("mode", "m", "live", "Data source: live, demo, or replay")
	rootCmd.Flags().StringP("input", "i", "", "Fixture file for replay mode")
	rootCmd.Flags().IntP("days", "t", 30, "Days of cost history to analyze")
	rootCmd.Flags().Int("horizon-days", 30, "Days to project forward")
	rootCmd.Flags().Float64P("budget", "b", 0, "Monthly budget in USD (overrides provider budgets)")
	rootCmd.Flags().Int("lookback-days", 7, "Trailing window size for anomaly baselines")
	rootCmd.Flags().Int("min-days", 7, "Minimum history before anomaly detection runs")
	rootCmd.Flags().StringP("report-name", "n", "", "Base name for report files (without extension)")
	rootCmd.Flags().StringSliceP("report-type", "y", nil, "Report types to export: csv, json, pdf")
	rootCmd.Flags().StringP("dir", "d", "", "Directory for report files (default: current directory)")
	rootCmd.Flags().Bool("audit", false, "Scan for idle and unmanaged resources and file recommendations")
	rootCmd.Flags().Bool("narrative", false, "Ask the configured text provider to explain the forecast")

	rootCmd.AddCommand(app.newLedgerCommand())

	app.rootCmd = rootCmd
	return app
}

// Execute runs the CLI application.
func (app *CLIApp) Execute() error {
	return app.rootCmd.Execute()
}

// parseArgs merges flags with the optional config file. Flags the user
// set explicitly win; otherwise non-zero file values apply.
func (app *CLIApp) parseArgs(cmd *cobra.Command) (*types.CLIArgs, types.NarrativeConfig, error) {
	flags := cmd.Flags()

	args := &types.CLIArgs{}
	args.ConfigFile, _ = flags.GetString("config-file")
	args.Profile, _ = flags.GetString("profile")
	args.Regions, _ = flags.GetStringSlice("regions")
	args.Mode, _ = flags.GetString("mode")
	args.Input, _ = flags.GetString("input")
	args.Days, _ = flags.GetInt("days")
	args.HorizonDays, _ = flags.GetInt("horizon-days")
	args.MonthlyBudget, _ = flags.GetFloat64("budget")
	args.LookbackDays, _ = flags.GetInt("lookback-days")
	args.MinDays, _ = flags.GetInt("min-days")
	args.DBPath, _ = flags.GetString("db")
	args.ReportName, _ = flags.GetString("report-name")
	args.ReportType, _ = flags.GetStringSlice("report-type")
	args.Dir, _ = flags.GetString("dir")
	args.Audit, _ = flags.GetBool("audit")
	args.Narrative, _ = flags.GetBool("narrative")

	var narrative types.NarrativeConfig

	if args.ConfigFile != "" {
		cfg, err := configrepo.NewConfigRepository().LoadConfigFile(args.ConfigFile)
		if err != nil {
			return nil, narrative, err
		}
		narrative = cfg.Narrative

		if !flags.Changed("profile") && cfg.Profile != "" {
			args.Profile = cfg.Profile
		}
		if !flags.Changed("regions") && len(cfg.Regions) > 0 {
			args.Regions = cfg.Regions
		}
		if !flags.Changed("mode") && cfg.Mode != "" {
			args.Mode = cfg.Mode
		}
		if !flags.Changed("input") && cfg.Input != "" {
			args.Input = cfg.Input
		}
		if !flags.Changed("days") && cfg.Days > 0 {
			args.Days = cfg.Days
		}
		if !flags.Changed("horizon-days") && cfg.HorizonDays > 0 {
			args.HorizonDays = cfg.HorizonDays
		}
		if !flags.Changed("budget") && cfg.MonthlyBudget > 0 {
			args.MonthlyBudget = cfg.MonthlyBudget
		}
		if !flags.Changed("lookback-days") && cfg.LookbackDays > 0 {
			args.LookbackDays = cfg.LookbackDays
		}
		if !flags.Changed("min-days") && cfg.MinDays > 0 {
			args.MinDays = cfg.MinDays
		}
		if !flags.Changed("db") && cfg.DBPath != "" {
			args.DBPath = cfg.DBPath
		}
		if !flags.Changed("report-name") && cfg.ReportName != "" {
			args.ReportName = cfg.ReportName
		}
		if !flags.Changed("report-type") && len(cfg.ReportType) > 0 {
			args.ReportType = cfg.ReportType
		}
		if !flags.Changed("dir") && cfg.Dir != "" {
			args.Dir = cfg.Dir
		}
		if !flags.Changed("audit") && cfg.Audit {
			args.Audit = true
		}
		if !flags.Changed("narrative") && cfg.Narrative.Enabled {
			args.Narrative = true
		}
	}

	if args.DBPath == "" {
		path, err := defaultDBPath()
		if err != nil {
			return nil, narrative, err
		}
		args.DBPath = path
	}

	if args.Dir != "" {
		absDir, err := filepath.Abs(args.Dir)
		if err != nil {
			return nil, narrative, err
		}
		args.Dir = absDir
	}

	return args, narrative, nil
}

// runAnalysis is the root command: one full analysis run.
func (app *CLIApp) runAnalysis(cmd *cobra.Command, _ []string) error {
	displayWelcomeBanner(app.version)
	go version.CheckLatestVersion(app.version)

	args, narrativeCfg, err := app.parseArgs(cmd)
	if err != nil {
		return err
	}

	var costRepo repository.CostDataRepository
	var auditRepo repository.ResourceAuditRepository

	switch strings.ToLower(args.Mode) {
	case "live", "":
		awsRepo := aws.NewRepository(args.Profile)
		costRepo = awsRepo
		auditRepo = awsRepo
	case "demo":
		costRepo = replay.NewDemo()
	case "replay":
		if args.Input == "" {
			return fmt.Errorf("replay mode requires --input")
		}
		loader, err := replay.Load(args.Input)
		if err != nil {
			return err
		}
		costRepo = loader
	default:
		return fmt.Errorf("unknown mode %q (expected live, demo, or replay)", args.Mode)
	}

	var provider repository.NarrativeProvider
	if args.Narrative {
		if narrativeCfg.Provider == "" {
			narrativeCfg.Provider = "anthropic"
		}
		provider, err = llm.New(narrativeCfg)
		if err != nil {
			return err
		}
	}

	var ledger *usecase.SavingsLedger
	savingsStore, err := store.Open(args.DBPath)
	if err != nil {
		app.console.LogWarning("Savings ledger unavailable (%v); continuing without it", err)
	} else {
		defer func() { _ = savingsStore.Close() }()
		ledger = usecase.NewSavingsLedger(savingsStore)
	}

	analysis := usecase.NewAnalysisUseCase(
		costRepo,
		auditRepo,
		export.NewExportRepository(),
		ledger,
		usecase.NewAnomalyDetector(),
		usecase.NewCostForecaster(provider, narrativeTimeout(narrativeCfg)),
		usecase.NewOptimizer(),
		app.console,
	)

	_, err = analysis.Run(context.Background(), args)
	return err
}

// newLedgerCommand groups the savings ledger subcommands.
func (app *CLIApp) newLedgerCommand() *cobra.Command {
	ledgerCmd := &cobra.Command{
		Use:   "ledger",
		Short: "Manage the savings ledger",
	}

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "File a new savings recommendation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				title, _ := cmd.Flags().GetString("title")
				recType, _ := cmd.Flags().GetString("type")
				savings, _ := cmd.Flags().GetFloat64("savings")
				description, _ := cmd.Flags().GetString("description")
				notes, _ := cmd.Flags().GetString("notes")
				risk, _ := cmd.Flags().GetString("risk")
				effort, _ := cmd.Flags().GetString("effort")

				id, err := ledger.Add(ctx, entity.Recommendation{
					Title:                   title,
					Type:                    recType,
					Description:             description,
					EstimatedMonthlySavings: savings,
					RiskLevel:               entity.RiskLevel(risk),
					Effort:                  entity.Effort(effort),
					Notes:                   notes,
				})
				if err != nil {
					return err
				}
				app.console.LogSuccess("Recommendation #%d filed", id)
				return nil
			})
		},
	}
	addCmd.Flags().String("title", "", "Short description of the action")
	addCmd.Flags().String("type", "", "Recommendation category, e.g. EBS_unattached")
	addCmd.Flags().Float64("savings", 0, "Estimated monthly savings in USD")
	addCmd.Flags().String("description", "", "Longer description")
	addCmd.Flags().String("notes", "", "Free-form notes")
	addCmd.Flags().String("risk", "", "Risk level: low, medium, high")
	addCmd.Flags().String("effort", "", "Effort: quick_win, medium, large")

	implementCmd := &cobra.Command{
		Use:   "implement <id>",
		Short: "Mark a recommendation as implemented with the realized savings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			id, err := strconv.ParseInt(cmdArgs[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", cmdArgs[0])
			}
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				actual, _ := cmd.Flags().GetFloat64("actual")
				notes, _ := cmd.Flags().GetString("notes")

				rec, err := ledger.Implement(ctx, id, actual, notes)
				if err != nil {
					return err
				}
				app.console.LogSuccess("Recommendation #%d implemented: $%.2f/mo actual (estimated $%.2f/mo)",
					rec.ID, actual, rec.EstimatedMonthlySavings)
				return nil
			})
		},
	}
	implementCmd.Flags().Float64("actual", 0, "Actual monthly savings realized, in USD")
	implementCmd.Flags().String("notes", "", "Resolution notes")

	rejectCmd := &cobra.Command{
		Use:   "reject <id>",
		Short: "Mark a recommendation as rejected",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			id, err := strconv.ParseInt(cmdArgs[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid id %q", cmdArgs[0])
			}
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				notes, _ := cmd.Flags().GetString("notes")

				rec, err := ledger.Reject(ctx, id, notes)
				if err != nil {
					return err
				}
				app.console.LogInfo("Recommendation #%d rejected", rec.ID)
				return nil
			})
		},
	}
	rejectCmd.Flags().String("notes", "", "Resolution notes")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List ledger entries, optionally filtered by status",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				status, _ := cmd.Flags().GetString("status")

				recs, err := ledger.List(ctx, entity.RecommendationStatus(status))
				if err != nil {
					return err
				}
				if len(recs) == 0 {
					app.console.LogInfo("No ledger entries")
					return nil
				}

				table := app.console.CreateTable()
				table.AddColumn("ID")
				table.AddColumn("Title")
				table.AddColumn("Type")
				table.AddColumn("Est. $/mo")
				table.AddColumn("Status")
				table.AddColumn("Actual $/mo")
				for _, rec := range recs {
					actual := "-"
					if rec.ActualMonthlySavings != nil {
						actual = fmt.Sprintf("%.2f", *rec.ActualMonthlySavings)
					}
					table.AddRow(rec.ID, rec.Title, rec.Type,
						fmt.Sprintf("%.2f", rec.EstimatedMonthlySavings), string(rec.Status), actual)
				}
				app.console.Println(table.Render())
				return nil
			})
		},
	}
	listCmd.Flags().String("status", "", "Filter by status: pending, implemented, rejected")

	roiCmd := &cobra.Command{
		Use:   "roi",
		Short: "Show the realized savings summary",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				roi, err := ledger.Summary(ctx)
				if err != nil {
					return err
				}

				app.console.LogInfo("Recommendations: %d total (%d pending, %d implemented, %d rejected)",
					roi.Total, roi.Pending, roi.Implemented, roi.Rejected)
				app.console.LogInfo("Implementation rate: %.1f%%", roi.ImplementationRatePct)
				app.console.LogInfo("Estimated savings (all): $%.2f/mo", roi.EstimatedSavingsTotal)
				app.console.LogInfo("Actual savings (implemented): $%.2f/mo ($%.2f/yr projected)",
					roi.ActualSavingsTotal, roi.AnnualProjection)
				if roi.ForecastAccuracyPct != nil {
					app.console.LogInfo("Estimate accuracy: %.1f%%", *roi.ForecastAccuracyPct)
				}
				return nil
			})
		},
	}

	trendCmd := &cobra.Command{
		Use:   "trend",
		Short: "Show recorded cost snapshots for an account, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return app.withLedger(cmd, func(ctx context.Context, ledger *usecase.SavingsLedger) error {
				accountID, _ := cmd.Flags().GetString("account")
				limit, _ := cmd.Flags().GetInt("limit")

				snaps, err := ledger.CostTrend(ctx, accountID, limit)
				if err != nil {
					return err
				}
				if len(snaps) == 0 {
					app.console.LogInfo("No snapshots recorded for account %q", accountID)
					return nil
				}

				table := app.console.CreateTable()
				table.AddColumn("Date")
				table.AddColumn("Total")
				table.AddColumn("Period (days)")
				for _, snap := range snaps {
					table.AddRow(snap.Date.Format("2006-01-02"),
						fmt.Sprintf("$%.2f", snap.TotalCost), snap.PeriodDays)
				}
				app.console.Println(table.Render())
				return nil
			})
		},
	}
	trendCmd.Flags().String("account", "", "AWS account id the snapshots were recorded under")
	trendCmd.Flags().Int("limit", 12, "Maximum snapshots to show")

	ledgerCmd.AddCommand(addCmd, implementCmd, rejectCmd, listCmd, roiCmd, trendCmd)
	return ledgerCmd
}

// withLedger opens the ledger store for a subcommand and closes it after.
func (app *CLIApp) withLedger(cmd *cobra.Command, fn func(context.Context, *usecase.SavingsLedger) error) error {
	dbPath, _ := cmd.Flags().GetString("db")
	if dbPath == "" {
		configFile, _ := cmd.Flags().GetString("config-file")
		if configFile != "" {
			cfg, err := configrepo.NewConfigRepository().LoadConfigFile(configFile)
			if err != nil {
				return err
			}
			dbPath = cfg.DBPath
		}
	}
	if dbPath == "" {
		path, err := defaultDBPath()
		if err != nil {
			return err
		}
		dbPath = path
	}

	savingsStore, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = savingsStore.Close() }()

	return fn(context.Background(), usecase.NewSavingsLedger(savingsStore))
}

func defaultDBPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not resolve home directory: %w", err)
	}
	return filepath.Join(home, ".cost-copilot", "ledger.db"), nil
}

func narrativeTimeout(cfg types.NarrativeConfig) time.Duration {
	if cfg.TimeoutSeconds > 0 {
		return time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	return 30 * time.Second
}
