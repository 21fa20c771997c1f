package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/opsforge/opsforge-ai/internal/errdefs"
	"github.com/opsforge/opsforge-ai/internal/metrics"
)

// Package llm provides the reasoning engine client used by all specialist
// agents. It speaks the OpenAI-compatible chat completions protocol.
//
// Failures are surfaced to the caller, never retried here; the intent
// classifier applies its own bounded retry on top of this client.

const (
	DefaultBaseURL   = "https://api.openai.com/v1"
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 4096
	DefaultTimeout   = 120 * time.Second
)

// CompletionRequest describes a single reasoning engine call.
type CompletionRequest struct {
	Instructions string  // system prompt; must make the result self-contained
	Input        string  // user content
	Temperature  float64 // [0,1]
	MaxTokens    int     // 0 = client default
	JSONResponse bool    // request a JSON object response
}

// Client is the reasoning engine contract consumed by the agents.
type Client interface {
	// Complete returns the raw text content of the completion.
	Complete(ctx context.Context, req CompletionRequest) (string, error)

	// CompleteJSON returns the completion parsed as a JSON object. Output
	// that cannot be parsed (even after repair) fails with a
	// MalformedResponse-category error.
	CompleteJSON(ctx context.Context, req CompletionRequest) (json.RawMessage, error)
}

// OpenAIClient implements Client against an OpenAI-compatible endpoint.
type OpenAIClient struct {
	apiKey     string
	model      string
	maxTokens  int
	baseURL    string
	httpClient *http.Client
	logger     *zap.Logger
}

// OpenAI API structures
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []chatMessage   `json:"messages"`
	MaxTokens      int             `json:"max_tokens"`
	Temperature    float64         `json:"temperature"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Option configures an OpenAIClient.
type Option func(*OpenAIClient)

// WithBaseURL overrides the API base URL (self-hosted or proxy endpoints).
func WithBaseURL(url string) Option {
	return func(c *OpenAIClient) {
		if url != "" {
			c.baseURL = url
		}
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *OpenAIClient) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request-level diagnostics.
func WithLogger(logger *zap.Logger) Option {
	return func(c *OpenAIClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewOpenAIClient creates a reasoning engine client.
func NewOpenAIClient(apiKey, model string, opts ...Option) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("reasoning engine API key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	c := &OpenAIClient{
		apiKey:    apiKey,
		model:     model,
		maxTokens: DefaultMaxTokens,
		baseURL:   DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Complete implements Client.Complete.
func (c *OpenAIClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	if req.Temperature < 0 || req.Temperature > 1 {
		return "", fmt.Errorf("temperature must be in [0,1], got %v", req.Temperature)
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = c.maxTokens
	}

	request := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: req.Instructions},
			{Role: "user", Content: req.Input},
		},
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONResponse {
		request.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	start := time.Now()
	body, err := c.makeRequest(ctx, "/chat/completions", request)
	metrics.LLMRequestDuration.WithLabelValues(c.model).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", errdefs.Wrap(errdefs.CategoryCollaboratorUnavailable, "reasoning engine request failed", err)
	}

	var response chatResponse
	if err := json.Unmarshal(body, &response); err != nil {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", errdefs.Wrap(errdefs.CategoryMalformedResponse, "failed to decode completion response", err)
	}
	if len(response.Choices) == 0 {
		metrics.LLMRequestsTotal.WithLabelValues(c.model, "error").Inc()
		return "", errdefs.New(errdefs.CategoryMalformedResponse, "completion response contained no choices")
	}

	metrics.LLMRequestsTotal.WithLabelValues(c.model, "success").Inc()
	c.logger.Debug("completion finished",
		zap.String("model", response.Model),
		zap.Int("prompt_tokens", response.Usage.PromptTokens),
		zap.Int("completion_tokens", response.Usage.CompletionTokens),
	)
	return response.Choices[0].Message.Content, nil
}

// CompleteJSON implements Client.CompleteJSON. Model output is not
// contractually guaranteed to be valid JSON, so a repair pass is attempted
// before the call is declared malformed.
func (c *OpenAIClient) CompleteJSON(ctx context.Context, req CompletionRequest) (json.RawMessage, error) {
	req.JSONResponse = true
	content, err := c.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return ParseJSONContent(content)
}

// ParseJSONContent validates text as a JSON value, attempting repair of
// near-JSON output (markdown fences, trailing commas, single quotes).
func ParseJSONContent(content string) (json.RawMessage, error) {
	if json.Valid([]byte(content)) {
		return json.RawMessage(content), nil
	}
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return nil, errdefs.Wrap(errdefs.CategoryMalformedResponse, "completion output is not valid JSON", err)
	}
	if !json.Valid([]byte(repaired)) {
		return nil, errdefs.New(errdefs.CategoryMalformedResponse, "completion output is not valid JSON after repair")
	}
	return json.RawMessage(repaired), nil
}

// makeRequest performs a single HTTP POST against the API.
func (c *OpenAIClient) makeRequest(ctx context.Context, endpoint string, payload interface{}) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}
	return body, nil
}
