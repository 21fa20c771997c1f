package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// JobAnalysis is the deterministic structure extracted for one workflow job.
type JobAnalysis struct {
	Steps        int      `json:"steps"`
	RunsOn       string   `json:"runs_on"`
	Needs        []string `json:"needs"`
	HasCache     bool     `json:"has_cache"`
	HasMatrix    bool     `json:"has_matrix"`
	HasArtifacts bool     `json:"has_artifacts"`
	UsesActions  []string `json:"uses_actions"`
}

// WorkflowAnalysis is the parsed job graph of a GitHub Actions workflow.
// A parse failure degrades to an Error marker; it does not abort the request.
type WorkflowAnalysis struct {
	TotalJobs int                    `json:"total_jobs"`
	Jobs      map[string]JobAnalysis `json:"jobs"`
	Triggers  []string               `json:"triggers"`
	Error     string                 `json:"error,omitempty"`
}

// jobNames returns the job names in stable (sorted) order.
func (w *WorkflowAnalysis) jobNames() []string {
	names := make([]string, 0, len(w.Jobs))
	for name := range w.Jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ParseWorkflow extracts the job graph from workflow YAML.
func ParseWorkflow(content string) WorkflowAnalysis {
	var workflow map[string]interface{}
	if err := yaml.Unmarshal([]byte(content), &workflow); err != nil {
		return WorkflowAnalysis{Error: "invalid YAML", Jobs: map[string]JobAnalysis{}}
	}
	if workflow == nil {
		return WorkflowAnalysis{Error: "not a valid workflow", Jobs: map[string]JobAnalysis{}}
	}

	analysis := WorkflowAnalysis{
		Jobs:     map[string]JobAnalysis{},
		Triggers: parseTriggers(workflow["on"]),
	}

	jobs, _ := workflow["jobs"].(map[string]interface{})
	analysis.TotalJobs = len(jobs)
	for name, rawJob := range jobs {
		job, ok := rawJob.(map[string]interface{})
		if !ok {
			continue
		}
		analysis.Jobs[name] = parseJob(job)
	}
	return analysis
}

func parseTriggers(raw interface{}) []string {
	switch on := raw.(type) {
	case map[string]interface{}:
		triggers := make([]string, 0, len(on))
		for key := range on {
			triggers = append(triggers, key)
		}
		sort.Strings(triggers)
		return triggers
	case nil:
		return []string{}
	default:
		return []string{fmt.Sprintf("%v", on)}
	}
}

func parseJob(job map[string]interface{}) JobAnalysis {
	steps, _ := job["steps"].([]interface{})

	hasCache := false
	hasArtifacts := false
	var uses []string
	for _, rawStep := range steps {
		repr := strings.ToLower(fmt.Sprintf("%v", rawStep))
		if strings.Contains(repr, "cache") {
			hasCache = true
		}
		if strings.Contains(repr, "upload-artifact") || strings.Contains(repr, "download-artifact") {
			hasArtifacts = true
		}
		if step, ok := rawStep.(map[string]interface{}); ok {
			if action, ok := step["uses"].(string); ok && action != "" {
				uses = append(uses, strings.SplitN(action, "@", 2)[0])
			}
		}
	}

	hasMatrix := false
	if strategy, ok := job["strategy"].(map[string]interface{}); ok {
		_, hasMatrix = strategy["matrix"]
	}

	runsOn := ""
	if v, ok := job["runs-on"]; ok {
		runsOn = fmt.Sprintf("%v", v)
	} else {
		runsOn = "unknown"
	}

	return JobAnalysis{
		Steps:        len(steps),
		RunsOn:       runsOn,
		Needs:        parseNeeds(job["needs"]),
		HasCache:     hasCache,
		HasMatrix:    hasMatrix,
		HasArtifacts: hasArtifacts,
		UsesActions:  uses,
	}
}

func parseNeeds(raw interface{}) []string {
	switch needs := raw.(type) {
	case string:
		return []string{needs}
	case []interface{}:
		out := make([]string, 0, len(needs))
		for _, n := range needs {
			if s, ok := n.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return []string{}
	}
}
