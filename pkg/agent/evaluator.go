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

// Evaluator writes the final structured report from the transcript
type Evaluator struct {
	gateway  Gateway
	settings config.AgentSettings
	logger   *slog.Logger
}

// NewEvaluator creates an evaluator
func NewEvaluator(gateway Gateway, settings config.AgentSettings, logger *slog.Logger) *Evaluator {
	return &Evaluator{gateway: gateway, settings: settings, logger: logger}
}

// Evaluate produces the final feedback from the full transcript and
// the recorded skill summary. Parse failures are retried up to
// generation_retries times; on exhaustion the error is returned and
// the caller decides how to degrade.
func (e *Evaluator) Evaluate(ctx context.Context, state *models.InterviewState) (*models.Feedback, error) {
	req := llm.Request{
		Messages: []llm.Message{
			{Role: "system", Content: evaluatorSystemPrompt},
			{Role: "user", Content: e.buildInput(state)},
		},
		Temperature:    e.settings.Temperature,
		MaxTokens:      e.settings.MaxTokens,
		Agent:          metricsEvaluator,
		GenerationName: "final_evaluation",
	}

	var lastErr error
	for attempt := 0; attempt <= e.settings.GenerationRetries; attempt++ {
		raw, err := e.gateway.CompleteJSON(ctx, req)
		if err != nil {
			lastErr = err
			var parseErr *llm.ParseError
			if errors.As(err, &parseErr) {
				e.logger.Warn("evaluator output failed to parse",
					"attempt", attempt+1, "error", err)
				continue
			}
			return nil, err
		}
		return models.DecodeFeedback(raw), nil
	}
	return nil, lastErr
}

func (e *Evaluator) buildInput(state *models.InterviewState) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Candidate:\n%s\n", candidateContext(state))

	if len(state.ConfirmedSkills) > 0 {
		fmt.Fprintf(&b, "Confirmed skills: %s\n", strings.Join(state.ConfirmedSkills, ", "))
	}
	if len(state.KnowledgeGaps) > 0 {
		b.WriteString("Recorded knowledge gaps:\n")
		for _, gap := range state.KnowledgeGaps {
			fmt.Fprintf(&b, "- %s: answered %q", gap.Topic, gap.UserAnswer)
			if gap.CorrectAnswer != "" {
				fmt.Fprintf(&b, " (correct: %s)", gap.CorrectAnswer)
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\nFull transcript:\n")
	for _, turn := range state.Turns {
		fmt.Fprintf(&b, "[%d] Interviewer: %s\n", turn.TurnID, turn.AgentMessage)
		if turn.UserMessage != "" {
			fmt.Fprintf(&b, "[%d] Candidate: %s\n", turn.TurnID, turn.UserMessage)
		}
	}

	b.WriteString("\nWrite the final report.")
	return b.String()
}
