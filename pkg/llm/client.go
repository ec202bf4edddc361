// Package llm is the single entry point for language-model calls: an
// OpenAI-compatible chat client with retry/backoff, a JSON-mode
// capability probe, and a layered parser for structured output.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/obs"
)

const (
	chatCompletionsPath = "/v1/chat/completions"
	modelsPath          = "/v1/models"
	baseBackoff         = 500 * time.Millisecond
	maxBackoff          = 30 * time.Second
)

// ErrMissingAPIKey is returned on the first call when no bearer token
// is configured.
var ErrMissingAPIKey = errors.New("LM API key is not configured")

// retryableStatuses are HTTP statuses worth another attempt
var retryableStatuses = map[int]bool{
	http.StatusTooManyRequests:     true,
	http.StatusInternalServerError: true,
	http.StatusBadGateway:          true,
	http.StatusServiceUnavailable:  true,
	http.StatusGatewayTimeout:      true,
}

// Request is one completion request from an agent
type Request struct {
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// Agent is the role issuing the call, used as the metrics key
	Agent string
	// GenerationName labels the generation on the session trace
	GenerationName string
}

// ClientConfig configures a gateway client
type ClientConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// Client is the LM gateway. Each session owns one client; the
// jsonModeSupported flag is per-client state and is only touched from
// that session's goroutine.
type Client struct {
	cfg        ClientConfig
	httpClient *http.Client
	logger     *slog.Logger
	trace      obs.Trace
	metrics    *obs.SessionMetrics

	jsonModeSupported bool
}

// Options carries the per-session collaborators of a client
type Options struct {
	Trace   obs.Trace
	Metrics *obs.SessionMetrics
	Logger  *slog.Logger
	// HTTPClient overrides the pooled default, mainly for tests
	HTTPClient *http.Client
}

// NewClient creates a gateway client for one session
func NewClient(cfg ClientConfig, opts Options) *Client {
	for len(cfg.BaseURL) > 0 && cfg.BaseURL[len(cfg.BaseURL)-1] == '/' {
		cfg.BaseURL = cfg.BaseURL[:len(cfg.BaseURL)-1]
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	trace := opts.Trace
	if trace == nil {
		trace = obs.NoopTracker{}.StartTrace("", "", nil)
	}
	return &Client{
		cfg:               cfg,
		httpClient:        httpClient,
		logger:            logger,
		trace:             trace,
		metrics:           opts.Metrics,
		jsonModeSupported: true,
	}
}

// Complete sends a chat completion and returns the assistant text.
// Transport failures and retryable statuses are retried with
// exponential backoff capped at 30s; non-retryable statuses fail
// immediately with a GatewayError.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	return c.complete(ctx, req, nil)
}

// CompleteJSON sends a chat completion expected to yield a JSON object.
// While the endpoint is believed to support structured output the
// request carries a response_format; a 400 rejecting it permanently
// flips this client to text mode. The response text goes through
// ExtractJSON either way.
func (c *Client) CompleteJSON(ctx context.Context, req Request) (map[string]any, error) {
	var format *responseFormat
	if c.jsonModeSupported {
		format = &responseFormat{
			Type: "json_schema",
			JSONSchema: &jsonSchema{
				Name:   "structured_response",
				Schema: map[string]any{"type": "object"},
			},
		}
	}

	text, err := c.complete(ctx, req, format)
	if err != nil {
		var gwErr *GatewayError
		if format != nil && errors.As(err, &gwErr) && isUnsupportedResponseFormat(gwErr) {
			c.jsonModeSupported = false
			c.logger.Info("endpoint rejected response_format, switching to text mode",
				"model", c.cfg.Model)
			text, err = c.complete(ctx, req, nil)
		}
		if err != nil {
			return nil, err
		}
	}
	return ExtractJSON(text)
}

// JSONModeSupported reports the current capability-probe state
func (c *Client) JSONModeSupported() bool {
	return c.jsonModeSupported
}

// ListModels returns the model ids the endpoint serves
func (c *Client) ListModels(ctx context.Context) ([]string, error) {
	if c.cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+modelsPath, nil)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &GatewayError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewGatewayError(resp.StatusCode, string(body))
	}

	var list modelList
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, &GatewayError{Err: fmt.Errorf("decoding model list: %w", err)}
	}
	models := make([]string, 0, len(list.Data))
	for _, entry := range list.Data {
		models = append(models, entry.ID)
	}
	return models, nil
}

func (c *Client) complete(ctx context.Context, req Request, format *responseFormat) (string, error) {
	if c.cfg.APIKey == "" {
		return "", ErrMissingAPIKey
	}

	gen := c.trace.StartGeneration(req.GenerationName, c.cfg.Model, req.Messages)

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			if err := c.backoff(ctx, attempt-1); err != nil {
				lastErr = &GatewayError{Err: err}
				break
			}
			c.logger.Debug("retrying LM call",
				"generation", req.GenerationName, "attempt", attempt)
		}

		text, usage, err := c.doRequest(ctx, req, format)
		if err == nil {
			if usage != nil && c.metrics != nil {
				c.metrics.RecordCall(req.Agent, *usage)
			}
			gen.End(text, usage, "DEFAULT", "")
			return text, nil
		}

		lastErr = err
		if !isRetryable(err) || ctx.Err() != nil {
			break
		}
	}

	gen.End("", nil, "ERROR", lastErr.Error())
	return "", lastErr
}

func (c *Client) doRequest(ctx context.Context, req Request, format *responseFormat) (string, *obs.TokenUsage, error) {
	payload, err := json.Marshal(chatRequest{
		Model:          c.cfg.Model,
		Messages:       req.Messages,
		Temperature:    req.Temperature,
		MaxTokens:      req.MaxTokens,
		ResponseFormat: format,
	})
	if err != nil {
		return "", nil, &GatewayError{Err: fmt.Errorf("encoding request: %w", err)}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+chatCompletionsPath, bytes.NewReader(payload))
	if err != nil {
		return "", nil, &GatewayError{Err: err}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", nil, &GatewayError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, &GatewayError{Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", nil, NewGatewayError(resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", nil, &GatewayError{Err: fmt.Errorf("decoding response: %w", err)}
	}
	if parsed.Error != nil {
		return "", nil, NewGatewayError(resp.StatusCode, parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", nil, NewGatewayError(resp.StatusCode, "response contained no choices")
	}

	var usage *obs.TokenUsage
	if parsed.Usage != nil {
		usage = &obs.TokenUsage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
			TotalTokens:      parsed.Usage.TotalTokens,
		}
	}
	return parsed.Choices[0].Message.Content, usage, nil
}

// backoff sleeps min(0.5 * 2^k, 30)s before attempt k+1, aborting
// early when the context is cancelled.
func (c *Client) backoff(ctx context.Context, k int) error {
	delay := baseBackoff << k
	if delay > maxBackoff || delay <= 0 {
		delay = maxBackoff
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func isRetryable(err error) bool {
	var gwErr *GatewayError
	if !errors.As(err, &gwErr) {
		return false
	}
	if gwErr.Err != nil {
		// transport failure: timeout, connection refused, reset
		return true
	}
	return retryableStatuses[gwErr.Status]
}

// isUnsupportedResponseFormat detects the one 400 that means the
// endpoint cannot do structured output rather than a bad request.
func isUnsupportedResponseFormat(err *GatewayError) bool {
	if err.Status != http.StatusBadRequest {
		return false
	}
	body := bytes.ToLower([]byte(err.Body))
	return bytes.Contains(body, []byte("response_format")) || bytes.Contains(body, []byte("json_object"))
}
