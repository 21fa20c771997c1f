package infra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/opsforge-ai/internal/llm"
)

type fakeEngine struct {
	payload string
	err     error
}

func (f *fakeEngine) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.payload, nil
}

func (f *fakeEngine) CompleteJSON(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	content, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return llm.ParseJSONContent(content)
}

func planPayload(terraformCode string) string {
	encoded, _ := json.Marshal(terraformCode)
	return fmt.Sprintf(`{"terraform_code": %s, "resources": ["aws_s3_bucket"], "explanation": "a bucket"}`, encoded)
}

func TestPlan_ViolationsBlockApproval(t *testing.T) {
	// Artifact lacking any tagging construct in staging.
	engine := &fakeEngine{payload: planPayload(`resource "aws_s3_bucket" "d" { encrypted = true }`)}
	agent := NewAgent(engine, "eu-north-1", nil)

	result, err := agent.Plan(context.Background(), "an s3 bucket", "staging", true)
	require.NoError(t, err)

	assert.False(t, result.PolicyCheck.Approved)
	names := violationNames(result.PolicyCheck)
	assert.Contains(t, names, "enforce_tagging")
	assert.False(t, result.WouldApply)
}

func TestPlan_ProductionSkipsInstanceSizeLimit(t *testing.T) {
	code := `resource "aws_instance" "big" { instance_type = "c5.4xlarge"
  tags = { owner = "x" } encrypted = true }`
	engine := &fakeEngine{payload: planPayload(code)}
	agent := NewAgent(engine, "eu-north-1", nil)

	result, err := agent.Plan(context.Background(), "a big box", "production", true)
	require.NoError(t, err)

	assert.NotContains(t, violationNames(result.PolicyCheck), "instance_size_limit")
	// Approval depends only on the other three rules.
	assert.True(t, result.PolicyCheck.Approved)
	assert.Equal(t, 3, result.PolicyCheck.RulesEvaluated)
}

func TestPlan_WouldApplyRequiresApprovalAndRealRun(t *testing.T) {
	code := `tags = {} encrypted = true`
	engine := &fakeEngine{payload: planPayload(code)}
	agent := NewAgent(engine, "eu-north-1", nil)

	dry, err := agent.Plan(context.Background(), "req", "staging", true)
	require.NoError(t, err)
	require.True(t, dry.PolicyCheck.Approved)
	assert.False(t, dry.WouldApply)

	real, err := agent.Plan(context.Background(), "req", "staging", false)
	require.NoError(t, err)
	assert.True(t, real.WouldApply)
}

func TestPlan_CostEstimateNeverAffectsApproval(t *testing.T) {
	code := `resource "aws_eks_cluster" "main" { tags = {} encrypted = true }
resource "aws_rds_instance" "db" {} resource "aws_elasticache" "c" {}`
	engine := &fakeEngine{payload: planPayload(code)}
	agent := NewAgent(engine, "eu-north-1", nil)

	result, err := agent.Plan(context.Background(), "expensive stack", "staging", true)
	require.NoError(t, err)

	assert.True(t, result.PolicyCheck.Approved)
	assert.Greater(t, result.CostEstimate.EstimatedMonthlyUSD, 100.0)
}

func TestPlan_EngineFailurePropagates(t *testing.T) {
	agent := NewAgent(&fakeEngine{err: errors.New("timeout")}, "eu-north-1", nil)
	_, err := agent.Plan(context.Background(), "req", "staging", true)
	assert.Error(t, err)
}

func TestPlan_MalformedPlanFails(t *testing.T) {
	agent := NewAgent(&fakeEngine{payload: `"just a string"`}, "eu-north-1", nil)
	_, err := agent.Plan(context.Background(), "req", "staging", true)
	assert.Error(t, err)
}
