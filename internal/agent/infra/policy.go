package infra

import (
	"strings"

	"github.com/opsforge/opsforge-ai/internal/metrics"
)

// Rule is a pure predicate over generated IaC source text. Rules hold no
// state and never mutate the artifact.
type Rule struct {
	Name        string
	Description string
	Severity    string
	// SkipWhenEnv suppresses evaluation entirely (neither pass nor fail) when
	// it matches the target environment.
	SkipWhenEnv string
	// Check returns true when the artifact passes.
	Check func(artifact string) bool
}

// Violation records one failed policy rule.
type Violation struct {
	Policy      string `json:"policy"`
	Description string `json:"description"`
	Severity    string `json:"severity"`
}

// CheckResult is the outcome of evaluating the full policy table.
type CheckResult struct {
	Approved       bool        `json:"approved"`
	Violations     []Violation `json:"violations"`
	RulesEvaluated int         `json:"policies_checked"`
}

// policyRules is the static table, constructed once and immutable. Every
// non-skipped rule is always evaluated; failures are collected without
// short-circuiting.
var policyRules = []Rule{
	{
		Name:        "no_public_s3",
		Description: "S3 buckets must not have public access",
		Severity:    "high",
		Check: func(artifact string) bool {
			lower := strings.ToLower(artifact)
			return !strings.Contains(lower, "public") || strings.Contains(lower, "block_public")
		},
	},
	{
		Name:        "enforce_tagging",
		Description: "All resources must have environment and owner tags",
		Severity:    "high",
		Check: func(artifact string) bool {
			return strings.Contains(strings.ToLower(artifact), "tags")
		},
	},
	{
		Name:        "instance_size_limit",
		Description: "EC2 instances must not exceed xlarge in non-prod",
		Severity:    "high",
		SkipWhenEnv: "production",
		Check: func(artifact string) bool {
			return !strings.Contains(artifact, "2xlarge") && !strings.Contains(artifact, "4xlarge")
		},
	},
	{
		Name:        "encryption_required",
		Description: "Storage resources must have encryption enabled",
		Severity:    "high",
		Check: func(artifact string) bool {
			lower := strings.ToLower(artifact)
			return strings.Contains(lower, "encrypted") || strings.Contains(lower, "kms") || !strings.Contains(lower, "s3")
		},
	},
}

// ValidatePolicies evaluates the artifact against every applicable rule and
// collects all violations. Approved iff the violation list is empty.
func ValidatePolicies(artifact, environment string) CheckResult {
	violations := []Violation{}
	evaluated := 0
	for _, rule := range policyRules {
		if rule.SkipWhenEnv != "" && rule.SkipWhenEnv == environment {
			metrics.PolicyEvaluations.WithLabelValues(rule.Name, "skip").Inc()
			continue
		}
		evaluated++
		if rule.Check(artifact) {
			metrics.PolicyEvaluations.WithLabelValues(rule.Name, "pass").Inc()
			continue
		}
		metrics.PolicyEvaluations.WithLabelValues(rule.Name, "fail").Inc()
		violations = append(violations, Violation{
			Policy:      rule.Name,
			Description: rule.Description,
			Severity:    rule.Severity,
		})
	}
	return CheckResult{
		Approved:       len(violations) == 0,
		Violations:     violations,
		RulesEvaluated: evaluated,
	}
}
