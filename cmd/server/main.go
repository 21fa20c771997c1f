// OpsForge AI server: AI-powered DevOps automation for incident response,
// infrastructure planning, and CI/CD optimization.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/opsforge/opsforge-ai/internal/agent/incident"
	"github.com/opsforge/opsforge-ai/internal/agent/infra"
	"github.com/opsforge/opsforge-ai/internal/agent/pipeline"
	"github.com/opsforge/opsforge-ai/internal/api/rest"
	"github.com/opsforge/opsforge-ai/internal/config"
	"github.com/opsforge/opsforge-ai/internal/k8s"
	"github.com/opsforge/opsforge-ai/internal/llm"
	"github.com/opsforge/opsforge-ai/internal/logging"
	"github.com/opsforge/opsforge-ai/internal/orchestrator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(logging.Options{Level: cfg.LogLevel, Path: cfg.LogPath})
	defer logger.Sync()

	engine, err := llm.NewOpenAIClient(cfg.LLMAPIKey, cfg.LLMModel,
		llm.WithBaseURL(cfg.LLMBaseURL),
		llm.WithTimeout(time.Duration(cfg.LLMTimeoutSec)*time.Second),
		llm.WithLogger(logger.Named("llm")),
	)
	if err != nil {
		logger.Fatal("failed to create reasoning engine client", zap.Error(err))
	}

	cluster := connectCluster(cfg, logger)

	incidentAgent := incident.NewAgent(engine, cluster, logger.Named("incident"))
	infraAgent := infra.NewAgent(engine, cfg.AWSRegion, logger.Named("infra"))
	pipelineAgent := pipeline.NewAgent(engine, logger.Named("pipeline"))

	classifier := orchestrator.NewClassifier(engine, logger.Named("classifier"))
	orch := orchestrator.New(classifier, incidentAgent, infraAgent, pipelineAgent, logger.Named("orchestrator"))

	handler := rest.NewHandler(orch, cfg.LLMModel, cfg.Namespace, logger.Named("rest"))
	router := rest.NewRouter(handler, logger.Named("http"))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
	}).Handler(router)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      corsHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 5 * time.Minute, // agent requests wait on the reasoning engine
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("platform started",
			zap.Int("port", cfg.Port),
			zap.String("model", cfg.LLMModel),
			zap.String("namespace", cfg.Namespace),
			zap.Bool("cluster_available", cluster.Available()),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSec)*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", zap.Error(err))
	}
	logger.Info("platform shutdown complete")
}

// connectCluster builds the two-state cluster capability. An unreachable
// cluster is a degraded mode, not a startup failure.
func connectCluster(cfg *config.Config, logger *zap.Logger) *k8s.Provider {
	client, err := k8s.NewClient(cfg.KubeconfigPath, logger.Named("k8s"))
	if err != nil {
		logger.Warn("running without cluster access", zap.Error(err))
		return k8s.Unavailable(err)
	}
	client.SetTimeout(time.Duration(cfg.K8sTimeoutSec) * time.Second)
	if cfg.K8sRateLimitPerSec > 0 {
		burst := cfg.K8sRateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		client.SetLimiter(rate.NewLimiter(rate.Limit(cfg.K8sRateLimitPerSec), burst))
	}
	return k8s.Ready(client)
}
