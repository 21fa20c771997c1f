package orchestrator

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/errdefs"
	"github.com/opsforge/opsforge-ai/internal/llm"
	"github.com/opsforge/opsforge-ai/internal/metrics"
)

// Intent is the classified category of a free-text request.
type Intent string

const (
	IntentIncident       Intent = "incident"
	IntentInfrastructure Intent = "infrastructure"
	IntentPipeline       Intent = "pipeline"
	// IntentUnrecognized means classification succeeded but produced a value
	// outside the known set. It is data, not a failure; the router handles it
	// explicitly.
	IntentUnrecognized Intent = "unrecognized"
)

// SupportedIntents lists the categories a request can be routed to.
var SupportedIntents = []string{
	string(IntentIncident),
	string(IntentInfrastructure),
	string(IntentPipeline),
}

const (
	classifyMaxAttempts = 3
	classifyBaseBackoff = 1 * time.Second
	classifyMaxBackoff  = 10 * time.Second
)

const classifyInstructions = "Classify the DevOps request into exactly one category: " +
	"incident, infrastructure, or pipeline. Respond with only the category name."

// Classifier maps free text to an Intent via the reasoning engine.
//
// Retry is scoped to classification only: any engine failure (transport,
// malformed response, timeout) consumes one of 3 attempts, with exponential
// backoff between them. No other collaborator call in the platform retries.
type Classifier struct {
	engine      llm.Client
	logger      *zap.Logger
	maxAttempts int
	baseBackoff time.Duration
	maxBackoff  time.Duration
}

// NewClassifier creates an intent classifier with the standard retry policy.
func NewClassifier(engine llm.Client, logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{
		engine:      engine,
		logger:      logger,
		maxAttempts: classifyMaxAttempts,
		baseBackoff: classifyBaseBackoff,
		maxBackoff:  classifyMaxBackoff,
	}
}

// Classify returns the intent for the given text. After exhausting all
// attempts it fails with a ClassificationUnavailable-category error.
func (c *Classifier) Classify(ctx context.Context, text string) (Intent, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if attempt > 1 {
			if err := sleepContext(ctx, c.backoff(attempt-1)); err != nil {
				return "", err
			}
		}

		content, err := c.engine.Complete(ctx, llm.CompletionRequest{
			Instructions: classifyInstructions,
			Input:        text,
			Temperature:  0,
			MaxTokens:    20,
		})
		if err != nil {
			lastErr = err
			metrics.ClassificationAttempts.WithLabelValues("failure").Inc()
			c.logger.Warn("classification attempt failed",
				zap.Int("attempt", attempt),
				zap.Error(err),
			)
			continue
		}

		metrics.ClassificationAttempts.WithLabelValues("success").Inc()
		intent := normalizeIntent(content)
		metrics.IntentsClassified.WithLabelValues(string(intent)).Inc()
		c.logger.Info("intent classified",
			zap.String("intent", string(intent)),
			zap.String("text", truncate(text, 80)),
		)
		return intent, nil
	}

	return "", errdefs.Wrap(errdefs.CategoryClassificationUnavailable,
		"intent classification failed after retries", lastErr)
}

// backoff returns the delay before the given retry, doubling from the base
// and capped at the maximum.
func (c *Classifier) backoff(retry int) time.Duration {
	d := c.baseBackoff
	for i := 1; i < retry; i++ {
		d *= 2
		if d >= c.maxBackoff {
			return c.maxBackoff
		}
	}
	if d > c.maxBackoff {
		return c.maxBackoff
	}
	return d
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// normalizeIntent trims and case-folds the engine output, mapping values
// outside the known set to IntentUnrecognized.
func normalizeIntent(content string) Intent {
	switch Intent(strings.ToLower(strings.TrimSpace(content))) {
	case IntentIncident:
		return IntentIncident
	case IntentInfrastructure:
		return IntentInfrastructure
	case IntentPipeline:
		return IntentPipeline
	default:
		return IntentUnrecognized
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
