// Package incident analyzes Kubernetes incidents: it gathers a cluster health
// snapshot, asks the reasoning engine for root cause and remediation, and
// auto-executes allowlisted actions on high-severity incidents.
package incident

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/k8s"
	"github.com/opsforge/opsforge-ai/internal/llm"
	"github.com/opsforge/opsforge-ai/internal/metrics"
)

const (
	// unhealthyRestartThreshold marks a pod unhealthy above this restart count.
	unhealthyRestartThreshold = 3
	// maxLogPods bounds how many unhealthy pods get their logs forwarded to
	// the reasoning engine, capping the payload size.
	maxLogPods = 3
	// logTailLines is how much log history is fetched per pod.
	logTailLines = 50

	analysisTemperature = 0.2
)

// ActionRecord is the outcome of one proposed remediation action.
type ActionRecord struct {
	Action string `json:"action"`
	Result string `json:"result"`
}

// ContextSummary reports the deterministic cluster context the analysis ran on.
type ContextSummary struct {
	TotalPods int    `json:"total_pods"`
	Unhealthy int    `json:"unhealthy"`
	Note      string `json:"note,omitempty"`
}

// Result is the incident agent's response envelope.
type Result struct {
	Analysis       map[string]interface{} `json:"analysis"`
	ClusterContext ContextSummary         `json:"cluster_context"`
	AutoExecuted   []ActionRecord         `json:"auto_executed"`
	Suggestions    []ActionRecord         `json:"suggestions,omitempty"`
}

// Agent is the incident specialist.
type Agent struct {
	engine  llm.Client
	cluster *k8s.Provider
	logger  *zap.Logger
}

// NewAgent creates an incident agent. The cluster provider may be unavailable;
// reads degrade and the analysis still runs.
func NewAgent(engine llm.Client, cluster *k8s.Provider, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{engine: engine, cluster: cluster, logger: logger}
}

const analysisInstructions = `You are a senior SRE analyzing a Kubernetes incident. Given the incident description and cluster state, provide:
1. root_cause: Most likely root cause
2. impact: Blast radius and user impact
3. remediation_steps: Ordered list of actions
4. safe_actions: Actions from this set that can be auto-executed: ["restart_pod", "scale_up_deployment"]
5. prevention: How to prevent recurrence
Respond in JSON format.`

// Analyze runs the full incident pipeline: context gathering, reasoning
// engine analysis, gated remediation.
func (a *Agent) Analyze(ctx context.Context, description, severity, namespace string) (*Result, error) {
	podStatus, unhealthy, note := a.gatherContext(ctx, namespace)

	podLogs := map[string]string{}
	for i, pod := range unhealthy {
		if i >= maxLogPods {
			break
		}
		podLogs[pod.Name] = a.fetchLogs(ctx, pod.Name, namespace)
	}

	clusterState, err := json.Marshal(map[string]interface{}{
		"pod_status":     podStatus,
		"unhealthy_pods": unhealthy,
		"pod_logs":       podLogs,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode cluster state: %w", err)
	}

	raw, err := a.engine.CompleteJSON(ctx, llm.CompletionRequest{
		Instructions: analysisInstructions,
		Input:        fmt.Sprintf("Incident: %s\nSeverity: %s\n\nCluster state:\n%s", description, severity, clusterState),
		Temperature:  analysisTemperature,
	})
	if err != nil {
		return nil, err
	}

	var analysis map[string]interface{}
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("failed to decode analysis: %w", err)
	}

	executed, suggestions, err := a.applyActions(ctx, proposedActions(analysis), severity, namespace, unhealthy)
	if err != nil {
		return nil, err
	}

	return &Result{
		Analysis: analysis,
		ClusterContext: ContextSummary{
			TotalPods: len(podStatus),
			Unhealthy: len(unhealthy),
			Note:      note,
		},
		AutoExecuted: executed,
		Suggestions:  suggestions,
	}, nil
}

// gatherContext snapshots pod health. An unreachable cluster degrades the
// snapshot to a marker instead of failing the analysis.
func (a *Agent) gatherContext(ctx context.Context, namespace string) ([]k8s.PodStatus, []k8s.PodStatus, string) {
	client, ok := a.cluster.Client()
	if !ok {
		a.logger.Warn("cluster backend unavailable, analyzing without cluster context")
		return nil, nil, "cluster backend unavailable"
	}

	podStatus, err := client.ListPodStatus(ctx, namespace)
	if err != nil {
		a.logger.Warn("failed to list pod status", zap.Error(err))
		return nil, nil, "cluster backend unavailable: " + err.Error()
	}

	var unhealthy []k8s.PodStatus
	for _, pod := range podStatus {
		if !pod.Ready || pod.Restarts > unhealthyRestartThreshold {
			unhealthy = append(unhealthy, pod)
		}
	}
	return podStatus, unhealthy, ""
}

func (a *Agent) fetchLogs(ctx context.Context, podName, namespace string) string {
	client, ok := a.cluster.Client()
	if !ok {
		return "cluster backend unavailable: cannot fetch logs"
	}
	logs, err := client.ReadLogs(ctx, podName, namespace, logTailLines)
	if err != nil {
		return "failed to fetch logs: " + err.Error()
	}
	return logs
}

// proposedActions extracts the safe_actions list from the loosely structured
// analysis. Non-string entries are dropped.
func proposedActions(analysis map[string]interface{}) []string {
	raw, ok := analysis["safe_actions"].([]interface{})
	if !ok {
		return nil
	}
	actions := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			actions = append(actions, s)
		}
	}
	return actions
}

// applyActions runs every proposed action through the allowlist gate. Gated
// actions execute against the cluster; everything else is recorded, never
// silently dropped. Write failures abort the request.
func (a *Agent) applyActions(ctx context.Context, actions []string, severity, namespace string, unhealthy []k8s.PodStatus) ([]ActionRecord, []ActionRecord, error) {
	executed := []ActionRecord{}
	var suggestions []ActionRecord

	for _, action := range actions {
		if !MayAutoExecute(action, severity) {
			reason, label := "not allowlisted", "not_allowlisted"
			if Allowlisted(action) {
				reason, label = "severity below auto-execution threshold", "severity"
			}
			metrics.ActionsBlocked.WithLabelValues(action, label).Inc()
			suggestions = append(suggestions, ActionRecord{Action: action, Result: "suggestion only: " + reason})
			continue
		}

		switch action {
		case ActionRestartPod:
			if len(unhealthy) == 0 {
				metrics.ActionsBlocked.WithLabelValues(action, "missing_parameter").Inc()
				executed = append(executed, ActionRecord{Action: action, Result: "skipped: no unhealthy pod to restart"})
				continue
			}
			target := unhealthy[0].Name
			client, ok := a.cluster.Client()
			if !ok {
				return nil, nil, fmt.Errorf("cluster backend unavailable: cannot execute %s: %w", action, a.cluster.Err())
			}
			if err := client.DeletePod(ctx, target, namespace); err != nil {
				return nil, nil, err
			}
			metrics.ActionsExecuted.WithLabelValues(action).Inc()
			a.logger.Info("remediation executed",
				zap.String("action", action),
				zap.String("pod", target),
				zap.String("namespace", namespace),
			)
			executed = append(executed, ActionRecord{
				Action: action,
				Result: fmt.Sprintf("pod %s deleted; controller will recreate it", target),
			})

		case ActionScaleUpDeployment:
			// No deployment name is resolvable from pod context alone.
			metrics.ActionsBlocked.WithLabelValues(action, "missing_parameter").Inc()
			executed = append(executed, ActionRecord{Action: action, Result: "skipped: missing required parameter: deployment name"})

		default:
			// Allowlist and the switch cover the same identifiers; an
			// allowlisted action without an executor is a programming error.
			return nil, nil, fmt.Errorf("allowlisted action %q has no executor", action)
		}
	}

	return executed, suggestions, nil
}
