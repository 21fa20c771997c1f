package infra

import (
	"math"
	"strings"
)

// resourceCost maps a Terraform resource type to a rough monthly USD figure.
// Types with size-tiered pricing use the smallest tier as the base.
type resourceCost struct {
	ResourceType string
	MonthlyUSD   float64
}

// costTable is static, ordered, and immutable. The estimate is advisory: it
// never affects policy approval.
var costTable = []resourceCost{
	{"aws_instance", 8},      // t3.micro base
	{"aws_eks_cluster", 73},  // control plane
	{"aws_rds_instance", 13}, // db.t3.micro base
	{"aws_s3_bucket", 2},
	{"aws_elasticache", 25},
}

// Estimate is a rough monthly cost projection for a generated plan.
type Estimate struct {
	EstimatedMonthlyUSD float64  `json:"estimated_monthly_usd"`
	ResourcesDetected   []string `json:"resources_detected"`
	Note                string   `json:"note"`
}

// EstimateCost scans the artifact for known resource-type markers and sums
// the static per-type monthly cost table.
func EstimateCost(artifact string) Estimate {
	lower := strings.ToLower(artifact)
	total := 0.0
	detected := []string{}
	for _, entry := range costTable {
		marker := strings.TrimPrefix(entry.ResourceType, "aws_")
		if strings.Contains(lower, marker) {
			total += entry.MonthlyUSD
			detected = append(detected, entry.ResourceType)
		}
	}
	return Estimate{
		EstimatedMonthlyUSD: math.Round(total*100) / 100,
		ResourcesDetected:   detected,
		Note:                "Rough estimate; use AWS Cost Calculator for accuracy",
	}
}
