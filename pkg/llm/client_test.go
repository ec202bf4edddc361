package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/obs"
)

func testClient(t *testing.T, serverURL string, maxRetries int, opts Options) *Client {
	t.Helper()
	return NewClient(ClientConfig{
		BaseURL:    serverURL,
		APIKey:     "test-key",
		Model:      "test-model",
		Timeout:    5 * time.Second,
		MaxRetries: maxRetries,
	}, opts)
}

func chatReply(t *testing.T, w http.ResponseWriter, content string, usage *usagePayload) {
	t.Helper()
	resp := chatResponse{
		Choices: []chatChoice{{Message: Message{Role: "assistant", Content: content}}},
		Usage:   usage,
	}
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestClient_Complete_Success(t *testing.T) {
	var gotAuth, gotPath string
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		chatReply(t, w, "hello there", nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	out, err := client.Complete(context.Background(), Request{
		Messages:    []Message{{Role: "user", Content: "hi"}},
		Temperature: 0.7,
		MaxTokens:   100,
	})

	require.NoError(t, err)
	assert.Equal(t, "hello there", out)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, chatCompletionsPath, gotPath)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, 100, gotBody.MaxTokens)
	assert.Nil(t, gotBody.ResponseFormat)
}

func TestClient_Complete_TrailingSlashStripped(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, chatCompletionsPath, r.URL.Path)
		chatReply(t, w, "ok", nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL+"/", 0, Options{})
	_, err := client.Complete(context.Background(), Request{})
	require.NoError(t, err)
}

func TestClient_Complete_MissingAPIKey(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "http://localhost", Model: "m"}, Options{})

	_, err := client.Complete(context.Background(), Request{})
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

func TestClient_Complete_RetriesOn500ThenSucceeds(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		chatReply(t, w, "recovered", nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 2, Options{})
	out, err := client.Complete(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "recovered", out)
	assert.Equal(t, 2, attempts)
}

func TestClient_Complete_NonRetryableFailsImmediately(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte("no such route"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 3, Options{})
	_, err := client.Complete(context.Background(), Request{})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusNotFound, gwErr.Status)
	assert.Equal(t, "no such route", gwErr.Body)
	assert.Equal(t, 1, attempts)
}

func TestClient_Complete_ExhaustsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 1, Options{})
	_, err := client.Complete(context.Background(), Request{})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, http.StatusServiceUnavailable, gwErr.Status)
	// max_retries + 1 total attempts
	assert.Equal(t, 2, attempts)
}

func TestClient_Complete_ContextCancelSkipsRetries(t *testing.T) {
	attempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		time.Sleep(200 * time.Millisecond)
		chatReply(t, w, "too late", nil)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := testClient(t, server.URL, 5, Options{})
	_, err := client.Complete(ctx, Request{})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 1, attempts)
}

func TestClient_Complete_BodyTruncatedTo500(t *testing.T) {
	big := make([]byte, 2000)
	for i := range big {
		big[i] = 'e'
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write(big)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	_, err := client.Complete(context.Background(), Request{})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Len(t, gwErr.Body, 500)
}

func TestClient_CompleteJSON_StructuredOutput(t *testing.T) {
	var gotBody chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		chatReply(t, w, `{"response_type": "normal"}`, nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	record, err := client.CompleteJSON(context.Background(), Request{})

	require.NoError(t, err)
	assert.Equal(t, "normal", record["response_type"])
	require.NotNil(t, gotBody.ResponseFormat)
	assert.Equal(t, "json_schema", gotBody.ResponseFormat.Type)
	assert.True(t, client.JSONModeSupported())
}

func TestClient_CompleteJSON_ProbeFlipsOnRejectedFormat(t *testing.T) {
	structuredAttempts := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		if body.ResponseFormat != nil {
			structuredAttempts++
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "response_format is not supported"}}`))
			return
		}
		chatReply(t, w, "<r>{\"ok\": true}</r>", nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})

	record, err := client.CompleteJSON(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, true, record["ok"])
	assert.False(t, client.JSONModeSupported())

	// probe result is permanent for this client
	_, err = client.CompleteJSON(context.Background(), Request{})
	require.NoError(t, err)
	assert.Equal(t, 1, structuredAttempts)
}

func TestClient_CompleteJSON_Plain400IsNotCapability(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte("model not found"))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	_, err := client.CompleteJSON(context.Background(), Request{})

	var gwErr *GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.True(t, client.JSONModeSupported())
}

func TestClient_CompleteJSON_EmptyResponseIsParseError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "", nil)
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	_, err := client.CompleteJSON(context.Background(), Request{})

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestClient_Complete_RecordsMetrics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		chatReply(t, w, "answer", &usagePayload{PromptTokens: 11, CompletionTokens: 7, TotalTokens: 18})
	}))
	defer server.Close()

	metrics := obs.NewSessionMetrics()
	client := testClient(t, server.URL, 0, Options{Metrics: metrics})

	_, err := client.Complete(context.Background(), Request{Agent: "observer"})
	require.NoError(t, err)

	snap := metrics.Snapshot()
	assert.Equal(t, 1, snap["total_calls"])
	assert.Equal(t, 18, snap["total_tokens"])
}

func TestClient_ListModels(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, modelsPath, r.URL.Path)
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": [{"id": "gpt-4o"}, {"id": "gpt-4o-mini"}]}`))
	}))
	defer server.Close()

	client := testClient(t, server.URL, 0, Options{})
	models, err := client.ListModels(context.Background())

	require.NoError(t, err)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, models)
}
