// Package pipeline analyzes CI/CD workflows: a deterministic quick-win
// detector over the parsed job graph, supplemented by reasoning engine
// suggestions.
package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/llm"
)

const suggestionTemperature = 0.3

// Summary aggregates both suggestion sets.
type Summary struct {
	TotalJobs                 int `json:"total_jobs"`
	OptimizationOpportunities int `json:"optimization_opportunities"`
}

// Result is the pipeline agent's response envelope.
type Result struct {
	WorkflowAnalysis WorkflowAnalysis `json:"workflow_analysis"`
	QuickWins        []Suggestion     `json:"quick_wins"`
	AISuggestions    []interface{}    `json:"ai_suggestions"`
	Summary          Summary          `json:"summary"`
}

// Agent is the CI/CD specialist.
type Agent struct {
	engine llm.Client
	logger *zap.Logger
}

// NewAgent creates a pipeline agent.
func NewAgent(engine llm.Client, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{engine: engine, logger: logger}
}

const suggestionInstructions = `You are a CI/CD expert specializing in GitHub Actions optimization. Analyze the workflow and provide concrete improvements.
For each suggestion, include:
- category: caching|parallelization|security|cost|speed
- description: what to change and why
- before: the current YAML snippet (if applicable)
- after: the improved YAML snippet
- estimated_time_saved: rough estimate in minutes
Return JSON with a 'suggestions' array.`

// Optimize parses the workflow, detects quick wins, and merges in reasoning
// engine suggestions.
func (a *Agent) Optimize(ctx context.Context, repo, workflowContent string) (*Result, error) {
	analysis := ParseWorkflow(workflowContent)
	quickWins := DetectQuickWins(analysis)

	raw, err := a.engine.CompleteJSON(ctx, llm.CompletionRequest{
		Instructions: suggestionInstructions,
		Input:        fmt.Sprintf("Repository: %s\n\nWorkflow:\n```yaml\n%s\n```", repo, workflowContent),
		Temperature:  suggestionTemperature,
	})
	if err != nil {
		return nil, err
	}

	var supplementary struct {
		Suggestions []interface{} `json:"suggestions"`
	}
	if err := json.Unmarshal(raw, &supplementary); err != nil {
		return nil, fmt.Errorf("failed to decode suggestions: %w", err)
	}

	aiSuggestions := supplementary.Suggestions
	if aiSuggestions == nil {
		aiSuggestions = []interface{}{}
	}

	return &Result{
		WorkflowAnalysis: analysis,
		QuickWins:        quickWins,
		AISuggestions:    aiSuggestions,
		Summary: Summary{
			TotalJobs:                 analysis.TotalJobs,
			OptimizationOpportunities: len(quickWins) + len(aiSuggestions),
		},
	}, nil
}
