package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opsforge/opsforge-ai/internal/agent/incident"
	"github.com/opsforge/opsforge-ai/internal/agent/infra"
	"github.com/opsforge/opsforge-ai/internal/agent/pipeline"
	"github.com/opsforge/opsforge-ai/internal/errdefs"
	"github.com/opsforge/opsforge-ai/internal/k8s"
	"github.com/opsforge/opsforge-ai/internal/llm"
	"github.com/opsforge/opsforge-ai/internal/orchestrator"
)

// routerEngine mimics the shared reasoning engine: classification calls get
// the intent, everything else gets the agent payload.
type routerEngine struct {
	intent  string
	payload string
	err     error
}

func (e *routerEngine) Complete(ctx context.Context, req llm.CompletionRequest) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	if strings.Contains(req.Instructions, "Classify") {
		return e.intent, nil
	}
	return e.payload, nil
}

func (e *routerEngine) CompleteJSON(ctx context.Context, req llm.CompletionRequest) (json.RawMessage, error) {
	content, err := e.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	return llm.ParseJSONContent(content)
}

func newTestServer(t *testing.T, engine llm.Client) *httptest.Server {
	t.Helper()
	classifier := orchestrator.NewClassifier(engine, nil)
	orch := orchestrator.New(
		classifier,
		incident.NewAgent(engine, k8s.Unavailable(errors.New("no cluster in tests")), nil),
		infra.NewAgent(engine, "eu-north-1", nil),
		pipeline.NewAgent(engine, nil),
		nil,
	)
	h := NewHandler(orch, "gpt-4o", "devops-ai", nil)
	srv := httptest.NewServer(NewRouter(h, nil))
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, url string, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", bytes.NewBufferString(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func TestHandleIncident_Envelope(t *testing.T) {
	srv := newTestServer(t, &routerEngine{payload: `{"root_cause": "oom", "safe_actions": []}`})

	resp, body := postJSON(t, srv.URL+"/api/v1/incidents", `{"description": "pods crashing", "severity": "high"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "incident", body["agent"])
	result, ok := body["result"].(map[string]interface{})
	require.True(t, ok)
	analysis, ok := result["analysis"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "oom", analysis["root_cause"])
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestHandleInfrastructure_DryRunDefaultsTrue(t *testing.T) {
	srv := newTestServer(t, &routerEngine{
		payload: `{"terraform_code": "tags = {} encrypted", "resources": [], "explanation": "x"}`,
	})

	resp, body := postJSON(t, srv.URL+"/api/v1/infrastructure", `{"request": "an s3 bucket"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := body["result"].(map[string]interface{})
	assert.Equal(t, true, result["dry_run"])
	assert.Equal(t, false, result["would_apply"], "dry run never applies")
}

func TestHandleInfrastructure_ExplicitDryRunFalse(t *testing.T) {
	srv := newTestServer(t, &routerEngine{
		payload: `{"terraform_code": "tags = {} encrypted", "resources": [], "explanation": "x"}`,
	})

	resp, body := postJSON(t, srv.URL+"/api/v1/infrastructure", `{"request": "an s3 bucket", "dry_run": false}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	result := body["result"].(map[string]interface{})
	assert.Equal(t, false, result["dry_run"])
	assert.Equal(t, true, result["would_apply"], "approved plan outside dry run would apply")
}

func TestHandlePipeline_Envelope(t *testing.T) {
	srv := newTestServer(t, &routerEngine{payload: `{"suggestions": []}`})

	resp, body := postJSON(t, srv.URL+"/api/v1/pipelines/optimize", `{"repo": "org/repo", "workflow_content": "jobs: {}"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pipeline", body["agent"])
}

func TestHandleRoute_Dispatches(t *testing.T) {
	srv := newTestServer(t, &routerEngine{
		intent:  "pipeline",
		payload: `{"suggestions": []}`,
	})

	resp, body := postJSON(t, srv.URL+"/api/v1/route", `{"text": "speed up my CI"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pipeline", body["agent"])
}

func TestHandleRoute_UnrecognizedIntent(t *testing.T) {
	srv := newTestServer(t, &routerEngine{intent: "database"})

	resp, body := postJSON(t, srv.URL+"/api/v1/route", `{"text": "tune my postgres"}`)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

	assert.Equal(t, ErrCodeUnrecognizedIntent, body["code"])
	details := body["details"].(map[string]interface{})
	assert.Contains(t, details["supported"], "incident")
	assert.Contains(t, details["supported"], "pipeline")
	assert.NotEmpty(t, body["request_id"])
}

func TestHandleIncident_InvalidBody(t *testing.T) {
	srv := newTestServer(t, &routerEngine{})

	resp, body := postJSON(t, srv.URL+"/api/v1/incidents", `{"description": `)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, ErrCodeInvalidRequest, body["code"])
}

func TestHandleIncident_EngineUnavailable(t *testing.T) {
	srv := newTestServer(t, &routerEngine{
		err: errdefs.New(errdefs.CategoryCollaboratorUnavailable, "connection refused"),
	})

	resp, body := postJSON(t, srv.URL+"/api/v1/incidents", `{"description": "pods crashing"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, ErrCodeCollaboratorUnavailable, body["code"])
}

func TestHandleIncident_MalformedEngineOutput(t *testing.T) {
	srv := newTestServer(t, &routerEngine{payload: ""})

	resp, body := postJSON(t, srv.URL+"/api/v1/incidents", `{"description": "pods crashing"}`)
	require.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, ErrCodeMalformedResponse, body["code"])
}

func TestHandleHealth(t *testing.T) {
	srv := newTestServer(t, &routerEngine{})

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "gpt-4o", body["model"])
}

func TestHandleStatus(t *testing.T) {
	srv := newTestServer(t, &routerEngine{})

	resp, body := getJSON(t, srv.URL+"/api/v1/status")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "operational", body["status"])
	agents := body["agents"].([]interface{})
	assert.Len(t, agents, 3)
	assert.Equal(t, "devops-ai", body["namespace"])
}

func getJSON(t *testing.T, url string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}
