package agent

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
)

// stopTokens are substrings that mark a stop request in the heuristic
// fallback. The interview runs in English or Russian, so both sets are
// checked.
var stopTokens = []string{
	"stop", "finish", "quit", "exit", "end the interview",
	"стоп", "закончить", "завершить", "хватит",
}

// Observer classifies candidate replies into typed analyses
type Observer struct {
	gateway  Gateway
	settings config.AgentSettings
	logger   *slog.Logger
}

// NewObserver creates an observer
func NewObserver(gateway Gateway, settings config.AgentSettings, logger *slog.Logger) *Observer {
	return &Observer{gateway: gateway, settings: settings, logger: logger}
}

// Analyze classifies the candidate reply against the active question.
// Parse failures are retried up to generation_retries times without
// backoff and fall back to a heuristic analysis on exhaustion; gateway
// errors bubble up unchanged.
func (o *Observer) Analyze(ctx context.Context, state *models.InterviewState, userMessage, lastAgentMessage string) (*models.Analysis, error) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: observerSystemPrompt},
			{Role: "user", Content: o.buildInput(state, userMessage, lastAgentMessage)},
		},
		Temperature:    o.settings.Temperature,
		MaxTokens:      o.settings.MaxTokens,
		Agent:          metricsObserver,
		GenerationName: "observer_analysis",
	}

	var lastErr error
	for attempt := 0; attempt <= o.settings.GenerationRetries; attempt++ {
		raw, err := o.gateway.CompleteJSON(ctx, req)
		if err != nil {
			var parseErr *llm.ParseError
			if errors.As(err, &parseErr) {
				lastErr = err
				o.logger.Warn("observer output failed to parse",
					"attempt", attempt+1, "error", err)
				continue
			}
			return nil, err
		}
		return models.DecodeAnalysis(raw), nil
	}

	o.logger.Warn("observer retries exhausted, using heuristic analysis", "error", lastErr)
	return o.heuristicAnalysis(userMessage), nil
}

func (o *Observer) buildInput(state *models.InterviewState, userMessage, lastAgentMessage string) string {
	return fmt.Sprintf(`What is known about the candidate:
%s
The interviewer's last message (the active question):
%q

The candidate's reply:
%q

Analyze the reply.`, candidateContext(state), lastAgentMessage, userMessage)
}

// heuristicAnalysis classifies without the LM: stop tokens by
// substring, a question mark as role reversal, anything else as a
// normal acceptable answer.
func (o *Observer) heuristicAnalysis(userMessage string) *models.Analysis {
	lower := strings.ToLower(userMessage)

	a := &models.Analysis{
		ResponseType:       models.ResponseNormal,
		Quality:            models.QualityAcceptable,
		IsFactuallyCorrect: true,
		Thought:            "Heuristic analysis: the observer model output could not be parsed.",
	}
	for _, token := range stopTokens {
		if strings.Contains(lower, token) {
			a.ResponseType = models.ResponseStopCommand
			break
		}
	}
	if a.ResponseType == models.ResponseNormal && strings.Contains(userMessage, "?") {
		a.ResponseType = models.ResponseQuestion
	}
	a.Normalize()
	return a
}
