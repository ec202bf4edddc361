package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/cache"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// scriptedGateway answers every agent call with canned content
type scriptedGateway struct {
	completeFn func(req llm.Request) (string, error)
	jsonFn     func(req llm.Request) (map[string]any, error)
}

func (g *scriptedGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	if g.completeFn != nil {
		return g.completeFn(req)
	}
	return "Hello! Tell me about yourself.", nil
}

func (g *scriptedGateway) CompleteJSON(ctx context.Context, req llm.Request) (map[string]any, error) {
	if g.jsonFn != nil {
		return g.jsonFn(req)
	}
	return map[string]any{
		"response_type":          "normal",
		"answered_last_question": true,
		"is_factually_correct":   true,
		"quality":                "good",
	}, nil
}

type staticModels struct {
	models []string
	err    error
}

func (m *staticModels) ListModels(ctx context.Context) ([]string, error) {
	return m.models, m.err
}

func testServer(t *testing.T, gateway *scriptedGateway, models ModelLister) *Server {
	t.Helper()
	cfg := &config.Config{
		LLM:    config.LLMConfig{BaseURL: "http://unused", APIKey: "k", Model: "m"},
		Agents: config.DefaultAgents(),
		Interview: config.InterviewConfig{
			MaxTurns:           20,
			HistoryWindowTurns: 10,
			LogDir:             t.TempDir(),
		},
		HTTP: config.HTTPConfig{Port: 0, ClientCacheMaxAge: 120},
	}
	manager := session.NewManager(cfg, session.Deps{Gateway: gateway, Logger: slog.Default()})
	modelCache := cache.NewModelCache(config.RedisCacheConfig{}, slog.Default())
	return NewServer(manager, models, modelCache, cfg.HTTP, slog.Default())
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func createSession(t *testing.T, router http.Handler) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions",
		map[string]any{"participant_name": "Alice"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	id, _ := body["session_id"].(string)
	require.NotEmpty(t, id)
	return id
}

func TestAPI_Health(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()

	rec := doJSON(t, router, http.MethodGet, "/health", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, float64(0), body["sessions"])
}

func TestAPI_SessionLifecycle(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()

	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "Alice", body["participant_name"])
	assert.Equal(t, true, body["is_active"])

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		map[string]any{"message": "Goroutines are lightweight threads."})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decodeBody(t, rec)
	assert.NotEmpty(t, body["reply"])
	assert.Equal(t, false, body["done"])

	rec = doJSON(t, router, http.MethodDelete, "/api/v1/sessions/"+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/v1/sessions/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_CreateSessionRejectsBadBody(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/sessions",
		bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_PostMessageRequiresMessage(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		map[string]any{})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_UnknownSessionIs404(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()

	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/v1/sessions/nope", nil},
		{http.MethodPost, "/api/v1/sessions/nope/messages", map[string]any{"message": "hi"}},
		{http.MethodPost, "/api/v1/sessions/nope/finish", nil},
		{http.MethodDelete, "/api/v1/sessions/nope", nil},
	} {
		rec := doJSON(t, router, tc.method, tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, rec.Code, "%s %s", tc.method, tc.path)
	}
}

func TestAPI_FinishReturnsFeedbackAndLogPaths(t *testing.T) {
	gateway := &scriptedGateway{
		jsonFn: func(req llm.Request) (map[string]any, error) {
			if req.GenerationName == "final_evaluation" {
				return map[string]any{
					"verdict": map[string]any{
						"assessed_grade":   "Middle",
						"recommendation":   "hire",
						"confidence_score": 80,
					},
					"overall_summary": "Solid fundamentals.",
				}, nil
			}
			return map[string]any{
				"response_type":          "normal",
				"answered_last_question": true,
				"is_factually_correct":   true,
				"quality":                "good",
			}, nil
		},
	}
	router := testServer(t, gateway, &staticModels{}).Router()
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decodeBody(t, rec)
	assert.NotEmpty(t, body["summary_log"])
	assert.NotEmpty(t, body["detailed_log"])
	assert.Contains(t, body["feedback_formatted"], "INTERVIEW FEEDBACK")

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	assert.Equal(t, http.StatusConflict, rec.Code, "double finish conflicts")
}

func TestAPI_MessageAfterFinishConflicts(t *testing.T) {
	router := testServer(t, &scriptedGateway{}, &staticModels{}).Router()
	id := createSession(t, router)

	rec := doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/finish", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/v1/sessions/"+id+"/messages",
		map[string]any{"message": "hello?"})
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestAPI_ListModels(t *testing.T) {
	router := testServer(t, &scriptedGateway{},
		&staticModels{models: []string{"gpt-4o", "gpt-4o-mini"}}).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/models", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, []any{"gpt-4o", "gpt-4o-mini"}, body["models"])
	assert.Equal(t, fmt.Sprintf("public, max-age=%d", 120), rec.Header().Get("Cache-Control"))
}

func TestAPI_ListModelsFailureIs502(t *testing.T) {
	router := testServer(t, &scriptedGateway{},
		&staticModels{err: errors.New("endpoint down")}).Router()

	rec := doJSON(t, router, http.MethodGet, "/api/v1/models", nil)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Empty(t, rec.Header().Get("Cache-Control"), "errors are not cacheable")
}
