package agent

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
)

// fakeGateway scripts gateway responses for agent tests
type fakeGateway struct {
	completeFn    func(req llm.Request) (string, error)
	jsonFn        func(req llm.Request) (map[string]any, error)
	completeCalls int
	jsonCalls     int
	lastRequest   llm.Request
}

func (f *fakeGateway) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.completeCalls++
	f.lastRequest = req
	return f.completeFn(req)
}

func (f *fakeGateway) CompleteJSON(ctx context.Context, req llm.Request) (map[string]any, error) {
	f.jsonCalls++
	f.lastRequest = req
	return f.jsonFn(req)
}

func observerSettings() config.AgentSettings {
	return config.AgentSettings{Temperature: 0.3, MaxTokens: 1500, GenerationRetries: 2}
}

func TestObserver_Analyze_DecodesResponse(t *testing.T) {
	gateway := &fakeGateway{
		jsonFn: func(req llm.Request) (map[string]any, error) {
			return map[string]any{
				"response_type":          "excellent",
				"quality":                "excellent",
				"is_factually_correct":   true,
				"answered_last_question": true,
				"detected_topics":        []any{"SQL"},
			}, nil
		},
	}
	observer := NewObserver(gateway, observerSettings(), slog.Default())

	state := models.NewInterviewState("Alice", "")
	a, err := observer.Analyze(context.Background(), state, "indexes speed up lookups", "Explain indexes.")

	require.NoError(t, err)
	assert.Equal(t, models.ResponseExcellent, a.ResponseType)
	assert.Equal(t, []string{"SQL"}, a.DetectedTopics)
	assert.Equal(t, 1, gateway.jsonCalls)
	assert.Equal(t, "observer_analysis", gateway.lastRequest.GenerationName)
}

func TestObserver_Analyze_RetriesParseFailures(t *testing.T) {
	calls := 0
	gateway := &fakeGateway{
		jsonFn: func(req llm.Request) (map[string]any, error) {
			calls++
			if calls < 3 {
				return nil, llm.NewParseError("no JSON object found", "garbled")
			}
			return map[string]any{"response_type": "normal"}, nil
		},
	}
	observer := NewObserver(gateway, observerSettings(), slog.Default())

	a, err := observer.Analyze(context.Background(), models.NewInterviewState("Alice", ""), "answer", "question")

	require.NoError(t, err)
	assert.Equal(t, models.ResponseNormal, a.ResponseType)
	assert.Equal(t, 3, calls)
}

func TestObserver_Analyze_GatewayErrorBubblesUp(t *testing.T) {
	gateway := &fakeGateway{
		jsonFn: func(req llm.Request) (map[string]any, error) {
			return nil, llm.NewGatewayError(503, "overloaded")
		},
	}
	observer := NewObserver(gateway, observerSettings(), slog.Default())

	_, err := observer.Analyze(context.Background(), models.NewInterviewState("Alice", ""), "answer", "question")

	var gwErr *llm.GatewayError
	require.ErrorAs(t, err, &gwErr)
	assert.Equal(t, 1, gateway.jsonCalls, "gateway errors must not be retried at the agent level")
}

func TestObserver_Analyze_HeuristicFallback(t *testing.T) {
	newFailingObserver := func() *Observer {
		gateway := &fakeGateway{
			jsonFn: func(req llm.Request) (map[string]any, error) {
				return nil, llm.NewParseError("no JSON object found", "still garbled")
			},
		}
		return NewObserver(gateway, observerSettings(), slog.Default())
	}

	tests := []struct {
		name         string
		userMessage  string
		wantType     models.ResponseType
		wantAnswered bool
	}{
		{"stop in english", "I want to stop the interview", models.ResponseStopCommand, false},
		{"stop in russian", "Давайте закончить", models.ResponseStopCommand, false},
		{"question mark", "What stack do you use?", models.ResponseQuestion, false},
		{"plain answer", "An index is a lookup structure", models.ResponseNormal, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := newFailingObserver().Analyze(context.Background(),
				models.NewInterviewState("Alice", ""), tt.userMessage, "question")

			require.NoError(t, err)
			assert.Equal(t, tt.wantType, a.ResponseType)
			assert.Equal(t, tt.wantAnswered, a.AnsweredLastQuestion)
			assert.Equal(t, models.QualityAcceptable, a.Quality)
		})
	}
}
