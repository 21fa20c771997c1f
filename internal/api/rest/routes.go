package rest

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/api/middleware"
)

// Routes:
//   POST /api/v1/incidents            Analyze an incident, gate remediation
//   POST /api/v1/infrastructure       Generate + policy-check a Terraform plan
//   POST /api/v1/pipelines/optimize   Analyze a CI/CD workflow
//   POST /api/v1/route                Classify free text and dispatch
//   GET  /api/v1/status               Operational summary
//   GET  /health                      Liveness probe
//   GET  /metrics                     Prometheus metrics

// NewRouter builds the HTTP router with the standard middleware chain.
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(logger))

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/incidents", h.HandleIncident).Methods(http.MethodPost)
	api.HandleFunc("/infrastructure", h.HandleInfrastructure).Methods(http.MethodPost)
	api.HandleFunc("/pipelines/optimize", h.HandlePipeline).Methods(http.MethodPost)
	api.HandleFunc("/route", h.HandleRoute).Methods(http.MethodPost)
	api.HandleFunc("/status", h.HandleStatus).Methods(http.MethodGet)

	r.HandleFunc("/health", h.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	return r
}
