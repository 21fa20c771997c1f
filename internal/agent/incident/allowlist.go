package incident

// Severity tiers for incoming incidents.
const (
	SeverityLow    = "low"
	SeverityMedium = "medium"
	SeverityHigh   = "high"
)

// Remediation action identifiers the reasoning engine may propose.
const (
	ActionRestartPod        = "restart_pod"
	ActionScaleUpDeployment = "scale_up_deployment"
)

// allowlist is the fixed set of actions eligible for unattended execution.
// Immutable after process start; everything else is suggestion-only.
var allowlist = map[string]struct{}{
	ActionRestartPod:        {},
	ActionScaleUpDeployment: {},
}

// MayAutoExecute decides whether a proposed action may run without human
// approval. A reasoning engine proposal is never sufficient authorization by
// itself: only allowlisted actions on high-severity incidents qualify.
func MayAutoExecute(actionID, severity string) bool {
	if severity != SeverityHigh {
		return false
	}
	_, ok := allowlist[actionID]
	return ok
}

// Allowlisted reports whether the action identifier is in the allowlist,
// independent of severity.
func Allowlisted(actionID string) bool {
	_, ok := allowlist[actionID]
	return ok
}
