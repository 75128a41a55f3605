package usecase

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// Conservative per-resource monthly savings estimates in USD. These are
// deliberately on the low side: they seed ledger entries whose actual
// savings get recorded at implementation time.
const (
	estStoppedInstance  = 8.0
	estUnattachedVolume = 8.0
	estUnassociatedEIP  = 3.6
	estIdleLoadBalancer = 18.0
	estBucketLifecycle  = 5.0
	estLogRetention     = 2.5
)

// Optimizer converts raw resource audit findings into recommendation
// candidates ready for the savings ledger. It holds no state.
type Optimizer struct{}

// NewOptimizer creates a new optimizer.
func NewOptimizer() *Optimizer {
	return &Optimizer{}
}

// Candidates builds one recommendation per finding category that has at
// least one affected resource, ordered by estimated savings descending.
// Candidates carry no ID or timestamps; the ledger assigns those on Add.
func (o *Optimizer) Candidates(findings entity.ResourceFindings) []entity.Recommendation {
	var recs []entity.Recommendation

	if n, detail := countRegionMap(findings.StoppedInstances); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Terminate or resize %d stopped EC2 instance(s)", n),
			Type:                    "EC2_stopped",
			Description:             "Stopped instances still bill for attached EBS storage. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estStoppedInstance,
			RiskLevel:               entity.RiskMedium,
			Effort:                  entity.EffortMedium,
		})
	}

	if n, detail := countRegionMap(findings.UnattachedVolumes); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Delete %d unattached EBS volume(s)", n),
			Type:                    "EBS_unattached",
			Description:             "Volumes detached from any instance bill at full rate. Snapshot before deleting. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estUnattachedVolume,
			RiskLevel:               entity.RiskLow,
			Effort:                  entity.EffortQuickWin,
		})
	}

	if n, detail := countRegionMap(findings.UnassociatedEIPs); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Release %d unassociated Elastic IP(s)", n),
			Type:                    "EIP_unassociated",
			Description:             "Elastic IPs not bound to a running instance incur an hourly charge. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estUnassociatedEIP,
			RiskLevel:               entity.RiskLow,
			Effort:                  entity.EffortQuickWin,
		})
	}

	if n, detail := countRegionMap(findings.IdleLoadBalancers); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Remove %d idle load balancer(s)", n),
			Type:                    "ELB_idle",
			Description:             "Load balancers with no registered targets bill hourly with no traffic to serve. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estIdleLoadBalancer,
			RiskLevel:               entity.RiskMedium,
			Effort:                  entity.EffortMedium,
		})
	}

	if n := len(findings.BucketsNoLifecycle); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Add lifecycle rules to %d S3 bucket(s)", n),
			Type:                    "S3_lifecycle",
			Description:             "Buckets without lifecycle rules keep every object in the standard tier forever. Buckets: " + joinCapped(findings.BucketsNoLifecycle, 5),
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estBucketLifecycle,
			RiskLevel:               entity.RiskLow,
			Effort:                  entity.EffortMedium,
		})
	}

	if n, detail := countRegionMap(findings.LogGroupsNoRetention); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Set retention on %d CloudWatch log group(s)", n),
			Type:                    "logs_retention",
			Description:             "Log groups without a retention policy accumulate storage indefinitely. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: float64(n) * estLogRetention,
			RiskLevel:               entity.RiskLow,
			Effort:                  entity.EffortQuickWin,
		})
	}

	if n, detail := countUntagged(findings.UntaggedResources); n > 0 {
		recs = append(recs, entity.Recommendation{
			Title:                   fmt.Sprintf("Tag %d resource(s) missing cost-allocation tags", n),
			Type:                    "tag_hygiene",
			Description:             "Untagged resources cannot be attributed to a team or project, hiding waste. " + detail,
			AccountID:               findings.AccountID,
			EstimatedMonthlySavings: 0,
			RiskLevel:               entity.RiskLow,
			Effort:                  entity.EffortQuickWin,
		})
	}

	sort.SliceStable(recs, func(i, j int) bool {
		return recs[i].EstimatedMonthlySavings > recs[j].EstimatedMonthlySavings
	})
	return recs
}

// countRegionMap totals the resources in a region-keyed map and renders
// a short per-region summary with stable region order.
func countRegionMap(m map[string][]string) (int, string) {
	if len(m) == 0 {
		return 0, ""
	}
	regions := make([]string, 0, len(m))
	for r := range m {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	total := 0
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		if len(m[r]) == 0 {
			continue
		}
		total += len(m[r])
		parts = append(parts, fmt.Sprintf("%s: %d", r, len(m[r])))
	}
	return total, "Regions: " + strings.Join(parts, ", ")
}

func countUntagged(m map[string]map[string][]string) (int, string) {
	if len(m) == 0 {
		return 0, ""
	}
	regions := make([]string, 0, len(m))
	for r := range m {
		regions = append(regions, r)
	}
	sort.Strings(regions)

	total := 0
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		n := 0
		for _, ids := range m[r] {
			n += len(ids)
		}
		if n == 0 {
			continue
		}
		total += n
		parts = append(parts, fmt.Sprintf("%s: %d", r, n))
	}
	return total, "Regions: " + strings.Join(parts, ", ")
}

func joinCapped(items []string, max int) string {
	if len(items) <= max {
		return strings.Join(items, ", ")
	}
	return strings.Join(items[:max], ", ") + fmt.Sprintf(" and %d more", len(items)-max)
}
