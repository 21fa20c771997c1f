// Package rest exposes the platform's HTTP surface: the three direct agent
// endpoints, the auto-routing endpoint, and health/status probes.
package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/api/middleware"
	"github.com/opsforge/opsforge-ai/internal/metrics"
	"github.com/opsforge/opsforge-ai/internal/orchestrator"
)

// Request payloads. Defaults mirror the auto-routing defaults.

type IncidentRequest struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Namespace   string `json:"namespace"`
}

type InfraRequest struct {
	Request     string `json:"request"`
	Environment string `json:"environment"`
	DryRun      *bool  `json:"dry_run"`
}

type PipelineRequest struct {
	Repo            string `json:"repo"`
	WorkflowContent string `json:"workflow_content"`
}

type RouteRequest struct {
	Text string `json:"text"`
}

// AgentResponse is the success envelope for all agent endpoints.
type AgentResponse struct {
	Status string      `json:"status"`
	Agent  string      `json:"agent"`
	Result interface{} `json:"result"`
}

// Handler serves the REST API.
type Handler struct {
	orch      *orchestrator.Orchestrator
	logger    *zap.Logger
	model     string
	namespace string
}

// NewHandler creates the REST handler. Model and namespace feed the status
// endpoints only.
func NewHandler(orch *orchestrator.Orchestrator, model, namespace string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{orch: orch, logger: logger, model: model, namespace: namespace}
}

// HandleIncident analyzes an incident and suggests/executes remediation.
func (h *Handler) HandleIncident(w http.ResponseWriter, r *http.Request) {
	h.instrumented(w, r, "incidents", func() (*orchestrator.Result, error) {
		var req IncidentRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		if req.Severity == "" {
			req.Severity = "medium"
		}
		if req.Namespace == "" {
			req.Namespace = "default"
		}
		return h.orch.HandleIncident(r.Context(), req.Description, req.Severity, req.Namespace)
	})
}

// HandleInfrastructure generates and validates a Terraform plan.
func (h *Handler) HandleInfrastructure(w http.ResponseWriter, r *http.Request) {
	h.instrumented(w, r, "infrastructure", func() (*orchestrator.Result, error) {
		var req InfraRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		if req.Environment == "" {
			req.Environment = "staging"
		}
		dryRun := true
		if req.DryRun != nil {
			dryRun = *req.DryRun
		}
		return h.orch.HandleInfrastructure(r.Context(), req.Request, req.Environment, dryRun)
	})
}

// HandlePipeline analyzes a CI/CD workflow and suggests optimizations.
func (h *Handler) HandlePipeline(w http.ResponseWriter, r *http.Request) {
	h.instrumented(w, r, "pipelines", func() (*orchestrator.Result, error) {
		var req PipelineRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		return h.orch.HandlePipeline(r.Context(), req.Repo, req.WorkflowContent)
	})
}

// HandleRoute classifies free text and dispatches to the matching agent.
func (h *Handler) HandleRoute(w http.ResponseWriter, r *http.Request) {
	h.instrumented(w, r, "route", func() (*orchestrator.Result, error) {
		var req RouteRequest
		if err := decodeBody(r, &req); err != nil {
			return nil, err
		}
		return h.orch.Route(r.Context(), req.Text)
	})
}

// HandleHealth reports liveness.
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"model":  h.model,
	})
}

// HandleStatus reports the operational summary.
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "operational",
		"agents":    orchestrator.SupportedIntents,
		"namespace": h.namespace,
	})
}

// instrumented wraps an agent call with per-endpoint metrics, error mapping,
// and the success envelope.
func (h *Handler) instrumented(w http.ResponseWriter, r *http.Request, endpoint string, fn func() (*orchestrator.Result, error)) {
	start := time.Now()
	result, err := fn()
	metrics.RequestDuration.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())

	requestID := middleware.RequestIDFromContext(r.Context())
	if err != nil {
		metrics.RequestsTotal.WithLabelValues(endpoint, "error").Inc()
		h.logger.Error("request failed",
			zap.String("endpoint", endpoint),
			zap.String("request_id", requestID),
			zap.Error(err),
		)
		respondError(w, requestID, err)
		return
	}

	metrics.RequestsTotal.WithLabelValues(endpoint, "success").Inc()
	respondJSON(w, http.StatusOK, AgentResponse{
		Status: "completed",
		Agent:  result.Agent,
		Result: result.Output,
	})
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return invalidRequest("invalid JSON body: " + err.Error())
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
