package entity

// ResourceFindings collects the per-region audit results that the
// optimizer turns into recommendation candidates. Map keys are regions,
// values are resource identifiers.
type ResourceFindings struct {
	AccountID            string                         `json:"account_id,omitempty"`
	StoppedInstances     map[string][]string            `json:"stopped_instances,omitempty"`
	UnattachedVolumes    map[string][]string            `json:"unattached_volumes,omitempty"`
	UnassociatedEIPs     map[string][]string            `json:"unassociated_eips,omitempty"`
	UntaggedResources    map[string]map[string][]string `json:"untagged_resources,omitempty"`
	IdleLoadBalancers    map[string][]string            `json:"idle_load_balancers,omitempty"`
	BucketsNoLifecycle   []string                       `json:"buckets_without_lifecycle,omitempty"`
	LogGroupsNoRetention map[string][]string            `json:"log_groups_without_retention,omitempty"`
}

// BudgetInfo is one budget as reported by the cloud provider.
type BudgetInfo struct {
	Name     string  `json:"name"`
	Limit    float64 `json:"limit"`
	Actual   float64 `json:"actual"`
	Forecast float64 `json:"forecast,omitempty"`
}
