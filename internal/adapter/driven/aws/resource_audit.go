package aws

import (
	"context"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2Types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/rds"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/nawuni/aws-cost-copilot-go/internal/domain/entity"
)

// GetResourceFindings scans the given regions (or all accessible ones
// when empty) for idle and untagged resources. Regions are scanned
// concurrently; a region that fails a single check just contributes
// nothing to that category.
func (r *Repository) GetResourceFindings(ctx context.Context, regions []string) (entity.ResourceFindings, error) {
	if len(regions) == 0 {
		var err error
		regions, err = r.GetAccessibleRegions(ctx)
		if err != nil {
			return entity.ResourceFindings{}, err
		}
	}

	findings := entity.ResourceFindings{
		StoppedInstances:     make(map[string][]string),
		UnattachedVolumes:    make(map[string][]string),
		UnassociatedEIPs:     make(map[string][]string),
		UntaggedResources:    make(map[string]map[string][]string),
		IdleLoadBalancers:    make(map[string][]string),
		LogGroupsNoRetention: make(map[string][]string),
	}
	findings.AccountID, _ = r.GetAccountID(ctx)

	var wg sync.WaitGroup
	var mu sync.Mutex

	for _, region := range regions {
		wg.Add(1)
		go func(rgn string) {
			defer wg.Done()

			stopped := r.stoppedInstances(ctx, rgn)
			volumes := r.unattachedVolumes(ctx, rgn)
			eips := r.unassociatedEIPs(ctx, rgn)
			untagged := r.untaggedResources(ctx, rgn)
			idleLBs := r.idleLoadBalancers(ctx, rgn)
			logGroups := r.logGroupsWithoutRetention(ctx, rgn)

			mu.Lock()
			defer mu.Unlock()
			if len(stopped) > 0 {
				findings.StoppedInstances[rgn] = stopped
			}
			if len(volumes) > 0 {
				findings.UnattachedVolumes[rgn] = volumes
			}
			if len(eips) > 0 {
				findings.UnassociatedEIPs[rgn] = eips
			}
			if len(untagged) > 0 {
				findings.UntaggedResources[rgn] = untagged
			}
			if len(idleLBs) > 0 {
				findings.IdleLoadBalancers[rgn] = idleLBs
			}
			if len(logGroups) > 0 {
				findings.LogGroupsNoRetention[rgn] = logGroups
			}
		}(region)
	}

	// Buckets are global; scan them once alongside the regional fan-out.
	wg.Add(1)
	go func() {
		defer wg.Done()
		buckets := r.bucketsWithoutLifecycle(ctx)
		mu.Lock()
		findings.BucketsNoLifecycle = buckets
		mu.Unlock()
	}()

	wg.Wait()
	return findings, nil
}

func (r *Repository) stoppedInstances(ctx context.Context, region string) []string {
	client, err := r.getServiceClient(ctx, region, "ec2")
	if err != nil {
		return nil
	}
	ec2Client := client.(*ec2.Client)

	result, err := ec2Client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		Filters: []ec2Types.Filter{{Name: aws.String("instance-state-name"), Values: []string{"stopped"}}},
	})
	if err != nil {
		return nil
	}

	var ids []string
	for _, res := range result.Reservations {
		for _, inst := range res.Instances {
			ids = append(ids, *inst.InstanceId)
		}
	}
	return ids
}

func (r *Repository) unattachedVolumes(ctx context.Context, region string) []string {
	client, err := r.getServiceClient(ctx, region, "ec2")
	if err != nil {
		return nil
	}
	ec2Client := client.(*ec2.Client)

	result, err := ec2Client.DescribeVolumes(ctx, &ec2.DescribeVolumesInput{
		Filters: []ec2Types.Filter{{Name: aws.String("status"), Values: []string{"available"}}},
	})
	if err != nil {
		return nil
	}

	var ids []string
	for _, vol := range result.Volumes {
		ids = append(ids, *vol.VolumeId)
	}
	return ids
}

func (r *Repository) unassociatedEIPs(ctx context.Context, region string) []string {
	client, err := r.getServiceClient(ctx, region, "ec2")
	if err != nil {
		return nil
	}
	ec2Client := client.(*ec2.Client)

	result, err := ec2Client.DescribeAddresses(ctx, &ec2.DescribeAddressesInput{})
	if err != nil {
		return nil
	}

	var ips []string
	for _, addr := range result.Addresses {
		if addr.AssociationId == nil {
			ips = append(ips, *addr.PublicIp)
		}
	}
	return ips
}

// untaggedResources checks EC2, RDS, and Lambda for resources with no
// tags at all.
func (r *Repository) untaggedResources(ctx context.Context, region string) map[string][]string {
	untagged := make(map[string][]string)

	if client, err := r.getServiceClient(ctx, region, "ec2"); err == nil {
		if insts, err := client.(*ec2.Client).DescribeInstances(ctx, &ec2.DescribeInstancesInput{}); err == nil {
			var ids []string
			for _, res := range insts.Reservations {
				for _, inst := range res.Instances {
					if len(inst.Tags) == 0 {
						ids = append(ids, *inst.InstanceId)
					}
				}
			}
			if len(ids) > 0 {
				untagged["EC2"] = ids
			}
		}
	}

	if client, err := r.getServiceClient(ctx, region, "rds"); err == nil {
		if dbs, err := client.(*rds.Client).DescribeDBInstances(ctx, &rds.DescribeDBInstancesInput{}); err == nil {
			var ids []string
			for _, db := range dbs.DBInstances {
				if len(db.TagList) == 0 {
					ids = append(ids, *db.DBInstanceIdentifier)
				}
			}
			if len(ids) > 0 {
				untagged["RDS"] = ids
			}
		}
	}

	if client, err := r.getServiceClient(ctx, region, "lambda"); err == nil {
		lambdaClient := client.(*lambda.Client)
		if funcs, err := lambdaClient.ListFunctions(ctx, &lambda.ListFunctionsInput{}); err == nil {
			var names []string
			for _, fn := range funcs.Functions {
				if tags, err := lambdaClient.ListTags(ctx, &lambda.ListTagsInput{Resource: fn.FunctionArn}); err == nil && len(tags.Tags) == 0 {
					names = append(names, *fn.FunctionName)
				}
			}
			if len(names) > 0 {
				untagged["Lambda"] = names
			}
		}
	}

	return untagged
}

// idleLoadBalancers returns v2 load balancers with no registered
// targets in any target group.
func (r *Repository) idleLoadBalancers(ctx context.Context, region string) []string {
	client, err := r.getServiceClient(ctx, region, "elbv2")
	if err != nil {
		return nil
	}
	elbv2Client := client.(*elasticloadbalancingv2.Client)

	lbsOutput, err := elbv2Client.DescribeLoadBalancers(ctx, &elasticloadbalancingv2.DescribeLoadBalancersInput{})
	if err != nil {
		return nil
	}

	var idle []string
	for _, lb := range lbsOutput.LoadBalancers {
		tgOutput, err := elbv2Client.DescribeTargetGroups(ctx, &elasticloadbalancingv2.DescribeTargetGroupsInput{
			LoadBalancerArn: lb.LoadBalancerArn,
		})
		if err != nil || len(tgOutput.TargetGroups) == 0 {
			idle = append(idle, *lb.LoadBalancerName)
			continue
		}

		hasTargets := false
		for _, tg := range tgOutput.TargetGroups {
			health, err := elbv2Client.DescribeTargetHealth(ctx, &elasticloadbalancingv2.DescribeTargetHealthInput{
				TargetGroupArn: tg.TargetGroupArn,
			})
			if err != nil {
				continue
			}
			if len(health.TargetHealthDescriptions) > 0 {
				hasTargets = true
				break
			}
		}
		if !hasTargets {
			idle = append(idle, *lb.LoadBalancerName)
		}
	}
	return idle
}

func (r *Repository) bucketsWithoutLifecycle(ctx context.Context) []string {
	client, err := r.getServiceClient(ctx, "us-east-1", "s3")
	if err != nil {
		return nil
	}
	s3Client := client.(*s3.Client)

	buckets, err := s3Client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil
	}

	var missing []string
	for _, bucket := range buckets.Buckets {
		name := aws.ToString(bucket.Name)
		// GetBucketLifecycleConfiguration fails with NoSuchLifecycleConfiguration
		// when no rules exist.
		cfg, err := s3Client.GetBucketLifecycleConfiguration(ctx, &s3.GetBucketLifecycleConfigurationInput{
			Bucket: bucket.Name,
		})
		if err != nil || len(cfg.Rules) == 0 {
			missing = append(missing, name)
		}
	}
	return missing
}

func (r *Repository) logGroupsWithoutRetention(ctx context.Context, region string) []string {
	client, err := r.getServiceClient(ctx, region, "cloudwatchlogs")
	if err != nil {
		return nil
	}
	cwlClient := client.(*cloudwatchlogs.Client)

	var missing []string
	paginator := cloudwatchlogs.NewDescribeLogGroupsPaginator(cwlClient, &cloudwatchlogs.DescribeLogGroupsInput{
		Limit: aws.Int32(50),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return missing
		}
		for _, lg := range page.LogGroups {
			if lg.RetentionInDays == nil {
				missing = append(missing, aws.ToString(lg.LogGroupName))
			}
		}
	}
	return missing
}
