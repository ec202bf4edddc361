package obs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	ingestionPath = "/api/public/ingestion"
	maxBatchSize  = 50
)

// LangfuseConfig configures the Langfuse-compatible exporter
type LangfuseConfig struct {
	Enabled   bool
	PublicKey string
	SecretKey string
	Host      string
}

// LangfuseTracker exports traces to a Langfuse-compatible ingestion
// endpoint in batches. Safe for concurrent submission from any session.
type LangfuseTracker struct {
	cfg    LangfuseConfig
	client *http.Client
	logger *slog.Logger

	mu     sync.Mutex
	events []ingestionEvent
}

type ingestionEvent struct {
	ID        string         `json:"id"`
	Type      string         `json:"type"`
	Timestamp string         `json:"timestamp"`
	Body      map[string]any `json:"body"`
}

// NewTracker returns a tracker for the given config. When tracing is
// disabled or keys are missing it returns a NoopTracker, so callers
// instrument unconditionally.
func NewTracker(cfg LangfuseConfig, logger *slog.Logger) Tracker {
	if !cfg.Enabled || cfg.PublicKey == "" || cfg.SecretKey == "" || cfg.Host == "" {
		return NoopTracker{}
	}
	return &LangfuseTracker{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		logger: logger,
	}
}

// StartTrace opens a trace for one session
func (t *LangfuseTracker) StartTrace(name, sessionID string, metadata map[string]any) Trace {
	traceID := uuid.New().String()
	t.enqueue("trace-create", map[string]any{
		"id":        traceID,
		"name":      name,
		"sessionId": sessionID,
		"metadata":  metadata,
	})
	return &langfuseTrace{tracker: t, id: traceID}
}

// Flush posts all buffered events to the ingestion endpoint
func (t *LangfuseTracker) Flush(ctx context.Context) error {
	t.mu.Lock()
	batch := t.events
	t.events = nil
	t.mu.Unlock()

	return t.post(ctx, batch)
}

func (t *LangfuseTracker) enqueue(eventType string, body map[string]any) {
	t.mu.Lock()
	t.events = append(t.events, ingestionEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Body:      body,
	})
	var overflow []ingestionEvent
	if len(t.events) >= maxBatchSize {
		overflow = t.events
		t.events = nil
	}
	t.mu.Unlock()

	if overflow != nil {
		// Delivery failures are logged and dropped; observability must
		// never break a session.
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.post(ctx, overflow); err != nil {
			t.logger.Warn("trace batch delivery failed", "error", err, "events", len(overflow))
		}
	}
}

func (t *LangfuseTracker) post(ctx context.Context, batch []ingestionEvent) error {
	if len(batch) == 0 {
		return nil
	}
	payload, err := json.Marshal(map[string]any{"batch": batch})
	if err != nil {
		return fmt.Errorf("encoding ingestion batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.Host+ingestionPath, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building ingestion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(t.cfg.PublicKey, t.cfg.SecretKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("posting ingestion batch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		return fmt.Errorf("ingestion endpoint returned %d: %s", resp.StatusCode, body)
	}
	return nil
}

type langfuseTrace struct {
	tracker *LangfuseTracker
	id      string
}

func (tr *langfuseTrace) ID() string { return tr.id }

func (tr *langfuseTrace) StartGeneration(name, model string, input any) Generation {
	genID := uuid.New().String()
	tr.tracker.enqueue("generation-create", map[string]any{
		"id":        genID,
		"traceId":   tr.id,
		"name":      name,
		"model":     model,
		"input":     input,
		"startTime": time.Now().UTC().Format(time.RFC3339Nano),
	})
	return &langfuseGeneration{tracker: tr.tracker, id: genID}
}

func (tr *langfuseTrace) Span(name string, input, output any) {
	now := time.Now().UTC().Format(time.RFC3339Nano)
	tr.tracker.enqueue("span-create", map[string]any{
		"id":        uuid.New().String(),
		"traceId":   tr.id,
		"name":      name,
		"input":     input,
		"output":    output,
		"startTime": now,
		"endTime":   now,
	})
}

func (tr *langfuseTrace) Score(name string, value float64, comment string) {
	tr.tracker.enqueue("score-create", map[string]any{
		"id":      uuid.New().String(),
		"traceId": tr.id,
		"name":    name,
		"value":   value,
		"comment": comment,
	})
}

type langfuseGeneration struct {
	tracker *LangfuseTracker
	id      string
}

func (g *langfuseGeneration) End(output string, usage *TokenUsage, level, statusMessage string) {
	body := map[string]any{
		"id":      g.id,
		"output":  output,
		"endTime": time.Now().UTC().Format(time.RFC3339Nano),
	}
	if usage != nil {
		body["usage"] = map[string]any{
			"input":  usage.PromptTokens,
			"output": usage.CompletionTokens,
			"total":  usage.TotalTokens,
		}
	}
	if level != "" {
		body["level"] = level
	}
	if statusMessage != "" {
		body["statusMessage"] = statusMessage
	}
	g.tracker.enqueue("generation-update", body)
}
