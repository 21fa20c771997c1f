// Package infra converts natural-language provisioning requests into
// Terraform plans, guarded by a deterministic policy table. The agent never
// applies anything: would_apply is advisory only.
package infra

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/llm"
)

const planTemperature = 0.2

// Result is the infrastructure agent's response envelope.
type Result struct {
	Plan         map[string]interface{} `json:"plan"`
	PolicyCheck  CheckResult            `json:"policy_check"`
	CostEstimate Estimate               `json:"cost_estimate"`
	DryRun       bool                   `json:"dry_run"`
	WouldApply   bool                   `json:"would_apply"`
}

// Agent is the infrastructure specialist.
type Agent struct {
	engine llm.Client
	region string
	logger *zap.Logger
}

// NewAgent creates an infrastructure agent targeting the given AWS region.
func NewAgent(engine llm.Client, region string, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{engine: engine, region: region, logger: logger}
}

func (a *Agent) planInstructions(environment string) string {
	return fmt.Sprintf(`You are a senior cloud architect. Generate production-ready Terraform code for AWS region %s, environment: %s.
Requirements:
- Use terraform >= 1.7 syntax
- Include proper tags (environment, owner, managed_by=terraform)
- Enable encryption for all storage
- Use private subnets where possible
- Block public access on S3
- Include security groups with least-privilege rules

Return JSON with:
- terraform_code: the HCL code as a string
- resources: list of resources being created
- explanation: brief description of what's being provisioned`, a.region, environment)
}

// Plan generates a Terraform plan from natural language and validates it
// against the policy table.
func (a *Agent) Plan(ctx context.Context, request, environment string, dryRun bool) (*Result, error) {
	raw, err := a.engine.CompleteJSON(ctx, llm.CompletionRequest{
		Instructions: a.planInstructions(environment),
		Input:        request,
		Temperature:  planTemperature,
	})
	if err != nil {
		return nil, err
	}

	var plan map[string]interface{}
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode plan: %w", err)
	}
	terraformCode, _ := plan["terraform_code"].(string)

	policyCheck := ValidatePolicies(terraformCode, environment)
	costEstimate := EstimateCost(terraformCode)

	if !policyCheck.Approved {
		a.logger.Warn("policy violations in generated plan",
			zap.Int("count", len(policyCheck.Violations)),
			zap.String("environment", environment),
		)
	}

	return &Result{
		Plan:         plan,
		PolicyCheck:  policyCheck,
		CostEstimate: costEstimate,
		DryRun:       dryRun,
		WouldApply:   policyCheck.Approved && !dryRun,
	}, nil
}
