package pipeline

import (
	"fmt"
	"strings"
)

// Suggestion is a deterministically detected optimization opportunity.
type Suggestion struct {
	Type        string `json:"type"`
	Job         string `json:"job"`
	Impact      string `json:"impact"`
	Description string `json:"description"`
}

// Thresholds for the quick-win detectors.
const (
	maxStepsWithoutMatrix = 8
)

// DetectQuickWins evaluates the static rule set against every job, in stable
// job-name order. Each rule is independent; all matches are reported.
func DetectQuickWins(analysis WorkflowAnalysis) []Suggestion {
	var suggestions []Suggestion

	for _, name := range analysis.jobNames() {
		job := analysis.Jobs[name]

		if !job.HasCache {
			suggestions = append(suggestions, Suggestion{
				Type:        "caching",
				Job:         name,
				Impact:      "high",
				Description: fmt.Sprintf("Job '%s' has no dependency caching: add actions/cache for package managers", name),
			})
		}

		if job.Steps > maxStepsWithoutMatrix && !job.HasMatrix {
			suggestions = append(suggestions, Suggestion{
				Type:        "parallelization",
				Job:         name,
				Impact:      "medium",
				Description: fmt.Sprintf("Job '%s' has %d steps: consider splitting into parallel jobs or using matrix strategy", name, job.Steps),
			})
		}

		if !job.HasArtifacts && analysis.TotalJobs > 1 {
			suggestions = append(suggestions, Suggestion{
				Type:        "artifacts",
				Job:         name,
				Impact:      "low",
				Description: fmt.Sprintf("Job '%s' doesn't use artifacts: consider sharing build outputs between jobs", name),
			})
		}
	}

	// Workflow scope: multiple jobs with no dependencies already run
	// concurrently; worth surfacing as information.
	var independent []string
	for _, name := range analysis.jobNames() {
		if len(analysis.Jobs[name].Needs) == 0 {
			independent = append(independent, name)
		}
	}
	if len(independent) > 1 {
		suggestions = append(suggestions, Suggestion{
			Type:        "parallelization",
			Job:         "workflow",
			Impact:      "info",
			Description: fmt.Sprintf("Jobs [%s] have no dependencies: they already run in parallel", strings.Join(independent, ", ")),
		})
	}

	return suggestions
}
