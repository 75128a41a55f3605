// Package aws implements the driven ports against the live AWS APIs.
package aws

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/budgets"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/costexplorer"
	ceTypes "github.com/aws/aws-sdk-go-v2/service/costexplorer/types"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sts"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// Repository talks to the AWS APIs for one profile, caching the loaded
// config and per-region service clients.
type Repository struct {
	profile string

	mu          sync.Mutex
	cfg         *aws.Config
	clientCache map[string]interface{}
}

// NewRepository creates a repository for the given shared-config
// profile. An empty profile uses the default credential chain.
func NewRepository(profile string) *Repository {
	return &Repository{
		profile:     profile,
		clientCache: make(map[string]interface{}),
	}
}

func (r *Repository) getAWSConfig(ctx context.Context) (aws.Config, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.cfg != nil {
		return *r.cfg, nil
	}

	var opts []func(*config.LoadOptions) error
	if r.profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(r.profile))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config for profile %q: %w", r.profile, err)
	}

	r.cfg = &cfg
	return cfg, nil
}

func (r *Repository) getServiceClient(ctx context.Context, region, service string) (interface{}, error) {
	cacheKey := region + "-" + service

	r.mu.Lock()
	if client, ok := r.clientCache[cacheKey]; ok {
		r.mu.Unlock()
		return client, nil
	}
	r.mu.Unlock()

	cfg, err := r.getAWSConfig(ctx)
	if err != nil {
		return nil, err
	}

	regionalCfg := cfg.Copy()
	if region != "" {
		regionalCfg.Region = region
	}

	var client interface{}
	switch service {
	case "sts":
		client = sts.NewFromConfig(regionalCfg)
	case "ec2":
		client = ec2.NewFromConfig(regionalCfg)
	case "costexplorer":
		// Cost Explorer and Budgets are global, served from us-east-1.
		regionalCfg.Region = "us-east-1"
		client = costexplorer.NewFromConfig(regionalCfg)
	case "budgets":
		regionalCfg.Region = "us-east-1"
		client = budgets.NewFromConfig(regionalCfg)
	case "rds":
		client = rds.NewFromConfig(regionalCfg)
	case "lambda":
		client = lambda.NewFromConfig(regionalCfg)
	case "elbv2":
		client = elasticloadbalancingv2.NewFromConfig(regionalCfg)
	case "s3":
		client = s3.NewFromConfig(regionalCfg)
	case "cloudwatchlogs":
		client = cloudwatchlogs.NewFromConfig(regionalCfg)
	default:
		return nil, fmt.Errorf("unsupported service: %s", service)
	}

	r.mu.Lock()
	r.clientCache[cacheKey] = client
	r.mu.Unlock()

	return client, nil
}

// GetAccountID resolves the account behind the profile via STS.
func (r *Repository) GetAccountID(ctx context.Context) (string, error) {
	client, err := r.getServiceClient(ctx, "us-east-1", "sts")
	if err != nil {
		return "", err
	}
	stsClient := client.(*sts.Client)

	result, err := stsClient.GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return "", fmt.Errorf("getting account ID for profile %q: %w", r.profile, err)
	}
	return *result.Account, nil
}

// GetCostData returns the daily cost series and per-service breakdown
// for the `days` full days ending the day before asOf. Cost Explorer's
// end date is exclusive, so the as-of day itself (still accruing) is
// never included.
func (r *Repository) GetCostData(ctx context.Context, days int, asOf time.Time) (entity.CostData, error) {
	if days <= 0 {
		days = 30
	}

	client, err := r.getServiceClient(ctx, "", "costexplorer")
	if err != nil {
		return entity.CostData{}, err
	}
	ceClient := client.(*costexplorer.Client)

	end := asOf.UTC().Truncate(24 * time.Hour)
	start := end.AddDate(0, 0, -days)

	input := &costexplorer.GetCostAndUsageInput{
		TimePeriod: &ceTypes.DateInterval{
			Start: aws.String(start.Format("2006-01-02")),
			End:   aws.String(end.Format("2006-01-02")),
		},
		Granularity: ceTypes.GranularityDaily,
		Metrics:     []string{"UnblendedCost"},
		GroupBy: []ceTypes.GroupDefinition{
			{Type: ceTypes.GroupDefinitionTypeDimension, Key: aws.String("SERVICE")},
		},
	}

	costData := entity.CostData{
		PeriodStart: start,
		PeriodEnd:   end.AddDate(0, 0, -1),
		ByService:   entity.ServiceBreakdown{},
	}

	for {
		result, err := ceClient.GetCostAndUsage(ctx, input)
		if err != nil {
			return entity.CostData{}, fmt.Errorf("getting cost and usage: %w", err)
		}

		for _, period := range result.ResultsByTime {
			date, err := time.Parse("2006-01-02", *period.TimePeriod.Start)
			if err != nil {
				continue
			}

			var dayTotal float64
			for _, group := range period.Groups {
				metric, ok := group.Metrics["UnblendedCost"]
				if !ok || metric.Amount == nil {
					continue
				}
				cost, _ := strconv.ParseFloat(*metric.Amount, 64)
				dayTotal += cost
				if len(group.Keys) > 0 && cost > 0.001 {
					costData.ByService[group.Keys[0]] += cost
				}
			}

			costData.DailyCosts = append(costData.DailyCosts, entity.DailyCostPoint{
				Date:   date,
				Amount: dayTotal,
			})
			costData.TotalCost += dayTotal
		}

		if result.NextPageToken == nil {
			break
		}
		input.NextPageToken = result.NextPageToken
	}

	costData.AccountID, _ = r.GetAccountID(ctx)
	return costData, nil
}

// GetBudgets returns the account's budgets. A missing Budgets API (no
// budgets configured, or no permission) is not fatal and yields nil.
func (r *Repository) GetBudgets(ctx context.Context) ([]entity.BudgetInfo, error) {
	client, err := r.getServiceClient(ctx, "", "budgets")
	if err != nil {
		return nil, err
	}
	budgetsClient := client.(*budgets.Client)

	accountID, err := r.GetAccountID(ctx)
	if err != nil {
		return nil, err
	}

	result, err := budgetsClient.DescribeBudgets(ctx, &budgets.DescribeBudgetsInput{
		AccountId: aws.String(accountID),
	})
	if err != nil {
		return nil, nil
	}

	var budgetsData []entity.BudgetInfo
	for _, budget := range result.Budgets {
		b := entity.BudgetInfo{Name: aws.ToString(budget.BudgetName)}
		if budget.BudgetLimit != nil && budget.BudgetLimit.Amount != nil {
			b.Limit, _ = strconv.ParseFloat(*budget.BudgetLimit.Amount, 64)
		}
		if budget.CalculatedSpend != nil {
			if budget.CalculatedSpend.ActualSpend != nil && budget.CalculatedSpend.ActualSpend.Amount != nil {
				b.Actual, _ = strconv.ParseFloat(*budget.CalculatedSpend.ActualSpend.Amount, 64)
			}
			if budget.CalculatedSpend.ForecastedSpend != nil && budget.CalculatedSpend.ForecastedSpend.Amount != nil {
				b.Forecast, _ = strconv.ParseFloat(*budget.CalculatedSpend.ForecastedSpend.Amount, 64)
			}
		}
		budgetsData = append(budgetsData, b)
	}

	return budgetsData, nil
}

// GetAccessibleRegions lists the regions enabled for the account,
// falling back to a common set when the API is unreachable.
func (r *Repository) GetAccessibleRegions(ctx context.Context) ([]string, error) {
	defaultRegions := []string{"us-east-1", "us-east-2", "us-west-1", "us-west-2", "eu-west-1", "eu-central-1"}

	client, err := r.getServiceClient(ctx, "us-east-1", "ec2")
	if err != nil {
		return defaultRegions, err
	}
	ec2Client := client.(*ec2.Client)

	regionsOutput, err := ec2Client.DescribeRegions(ctx, &ec2.DescribeRegionsInput{AllRegions: aws.Bool(false)})
	if err != nil {
		return defaultRegions, nil
	}

	regions := make([]string, 0, len(regionsOutput.Regions))
	for _, region := range regionsOutput.Regions {
		regions = append(regions, *region.RegionName)
	}
	return regions, nil
}
