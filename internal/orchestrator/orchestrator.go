// Package orchestrator classifies free-text DevOps requests and routes them
// to the specialist agents. All flow is top-down: agents never call back into
// the orchestrator.
package orchestrator

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/agent/incident"
	"github.com/opsforge/opsforge-ai/internal/agent/infra"
	"github.com/opsforge/opsforge-ai/internal/agent/pipeline"
)

// Defaults applied by Route when the caller supplied only free text.
const (
	defaultSeverity    = incident.SeverityMedium
	defaultNamespace   = "default"
	defaultEnvironment = "staging"
	defaultDryRun      = true
)

// Result is the uniform envelope returned by every dispatch. The orchestrator
// treats the agent output as opaque.
type Result struct {
	Agent  string      `json:"agent"`
	Output interface{} `json:"result"`
}

// RoutingError reports a request that could not be routed because the
// classified intent is outside the supported set. It is a normal outcome,
// carried as data.
type RoutingError struct {
	Intent    string   `json:"intent"`
	Supported []string `json:"supported"`
}

func (e *RoutingError) Error() string {
	return fmt.Sprintf("unknown intent %q (supported: %s)", e.Intent, strings.Join(e.Supported, ", "))
}

// Orchestrator holds one instance of each specialist agent.
type Orchestrator struct {
	classifier *Classifier
	incident   *incident.Agent
	infra      *infra.Agent
	pipeline   *pipeline.Agent
	logger     *zap.Logger
}

// New creates an orchestrator over the given agents.
func New(classifier *Classifier, incidentAgent *incident.Agent, infraAgent *infra.Agent, pipelineAgent *pipeline.Agent, logger *zap.Logger) *Orchestrator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Orchestrator{
		classifier: classifier,
		incident:   incidentAgent,
		infra:      infraAgent,
		pipeline:   pipelineAgent,
		logger:     logger,
	}
}

// HandleIncident dispatches directly to the incident agent.
func (o *Orchestrator) HandleIncident(ctx context.Context, description, severity, namespace string) (*Result, error) {
	o.logger.Info("handling incident",
		zap.String("severity", severity),
		zap.String("namespace", namespace),
	)
	result, err := o.incident.Analyze(ctx, description, severity, namespace)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: "incident", Output: result}, nil
}

// HandleInfrastructure dispatches directly to the infrastructure agent.
func (o *Orchestrator) HandleInfrastructure(ctx context.Context, request, environment string, dryRun bool) (*Result, error) {
	o.logger.Info("handling infrastructure request",
		zap.String("environment", environment),
		zap.Bool("dry_run", dryRun),
	)
	result, err := o.infra.Plan(ctx, request, environment, dryRun)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: "infrastructure", Output: result}, nil
}

// HandlePipeline dispatches directly to the pipeline agent.
func (o *Orchestrator) HandlePipeline(ctx context.Context, repo, workflowContent string) (*Result, error) {
	o.logger.Info("handling pipeline request", zap.String("repo", repo))
	result, err := o.pipeline.Optimize(ctx, repo, workflowContent)
	if err != nil {
		return nil, err
	}
	return &Result{Agent: "pipeline", Output: result}, nil
}

// Route classifies free text and dispatches to the matching agent with
// default parameters. An unrecognized intent yields a RoutingError; no
// fallback agent is ever guessed.
func (o *Orchestrator) Route(ctx context.Context, text string) (*Result, error) {
	intent, err := o.classifier.Classify(ctx, text)
	if err != nil {
		return nil, err
	}

	switch intent {
	case IntentIncident:
		return o.HandleIncident(ctx, text, defaultSeverity, defaultNamespace)
	case IntentInfrastructure:
		return o.HandleInfrastructure(ctx, text, defaultEnvironment, defaultDryRun)
	case IntentPipeline:
		return o.HandlePipeline(ctx, "", text)
	default:
		return nil, &RoutingError{Intent: string(intent), Supported: SupportedIntents}
	}
}
