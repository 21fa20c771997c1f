package pipeline

import (
	"context"
	"encoding/json"
	"errors"
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

func TestOptimize_MergesQuickWinsAndEngineSuggestions(t *testing.T) {
	engine := &fakeEngine{payload: `{"suggestions": [{"category": "speed", "description": "use a faster runner"}]}`}
	agent := NewAgent(engine, nil)

	result, err := agent.Optimize(context.Background(), "org/repo", `
jobs:
  lint:
    steps:
      - run: make lint
  test:
    steps:
      - run: make test
`)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Summary.TotalJobs)
	assert.Len(t, result.AISuggestions, 1)
	assert.NotEmpty(t, result.QuickWins)
	assert.Equal(t, len(result.QuickWins)+len(result.AISuggestions), result.Summary.OptimizationOpportunities)
}

func TestOptimize_NoEngineSuggestions(t *testing.T) {
	agent := NewAgent(&fakeEngine{payload: `{}`}, nil)

	result, err := agent.Optimize(context.Background(), "org/repo", "jobs: {}")
	require.NoError(t, err)
	assert.NotNil(t, result.AISuggestions)
	assert.Empty(t, result.AISuggestions)
}

func TestOptimize_InvalidWorkflowStillAnalyzed(t *testing.T) {
	// A workflow that fails to parse degrades to an error marker; the engine
	// suggestions still flow through.
	agent := NewAgent(&fakeEngine{payload: `{"suggestions": []}`}, nil)

	result, err := agent.Optimize(context.Background(), "org/repo", "jobs: [unclosed")
	require.NoError(t, err)
	assert.NotEmpty(t, result.WorkflowAnalysis.Error)
	assert.Empty(t, result.QuickWins)
}

func TestOptimize_EngineFailurePropagates(t *testing.T) {
	agent := NewAgent(&fakeEngine{err: errors.New("unreachable")}, nil)
	_, err := agent.Optimize(context.Background(), "org/repo", "jobs: {}")
	assert.Error(t, err)
}
