package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Platform metrics for production monitoring
var (
	// API metrics
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"endpoint", "status"},
	)

	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opsforge_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10), // 100ms to ~1min
		},
		[]string{"endpoint"},
	)

	// Reasoning engine metrics
	LLMRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_llm_requests_total",
			Help: "Total number of reasoning engine requests",
		},
		[]string{"model", "status"},
	)

	LLMRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "opsforge_llm_request_duration_seconds",
			Help:    "Reasoning engine request duration in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		},
		[]string{"model"},
	)

	// Intent classification metrics
	ClassificationAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_classification_attempts_total",
			Help: "Total number of intent classification attempts",
		},
		[]string{"status"}, // success/failure
	)

	IntentsClassified = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_intents_classified_total",
			Help: "Total number of classified intents by category",
		},
		[]string{"intent"},
	)

	// Safety metrics
	PolicyEvaluations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_policy_evaluations_total",
			Help: "Total number of infrastructure policy rule evaluations",
		},
		[]string{"rule", "result"}, // result: pass/fail/skip
	)

	ActionsExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_actions_executed_total",
			Help: "Total number of auto-executed remediation actions",
		},
		[]string{"action"},
	)

	ActionsBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "opsforge_actions_blocked_total",
			Help: "Total number of remediation actions blocked by the allowlist gate",
		},
		[]string{"action", "reason"}, // reason: severity/not_allowlisted/missing_parameter
	)
)
