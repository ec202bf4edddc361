// Package agent implements the three interview roles: the observer
// that classifies each candidate reply, the interviewer that produces
// the next utterance, and the evaluator that writes the final report.
// Agents hold no interview state; they read it and return results, and
// the session orchestrator decides what to commit.
package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
)

// Agent role names, used as metrics keys and thought attribution
const (
	NameObserver    = "Observer"
	NameInterviewer = "Interviewer"
	NameEvaluator   = "Evaluator"

	metricsObserver    = "observer"
	metricsInterviewer = "interviewer"
	metricsEvaluator   = "evaluator"
)

// Gateway is the LM surface the agents call through. Each session owns
// one gateway; *llm.Client implements it.
type Gateway interface {
	Complete(ctx context.Context, req llm.Request) (string, error)
	CompleteJSON(ctx context.Context, req llm.Request) (map[string]any, error)
}

// candidateContext renders what is known about the candidate for
// inclusion in agent prompts.
func candidateContext(state *models.InterviewState) string {
	var b strings.Builder
	c := state.Candidate

	if c.Name != "" {
		fmt.Fprintf(&b, "Name: %s\n", c.Name)
	}
	if c.Position != "" {
		fmt.Fprintf(&b, "Position: %s\n", c.Position)
	}
	if c.TargetGrade != "" {
		fmt.Fprintf(&b, "Target grade: %s\n", c.TargetGrade)
	}
	if c.Experience != "" {
		fmt.Fprintf(&b, "Experience: %s\n", c.Experience)
	}
	if len(c.Technologies) > 0 {
		fmt.Fprintf(&b, "Technologies: %s\n", strings.Join(c.Technologies, ", "))
	}
	fmt.Fprintf(&b, "Current difficulty: %s\n", state.CurrentDifficulty)
	if len(state.CoveredTopics) > 0 {
		fmt.Fprintf(&b, "Covered topics: %s\n", strings.Join(state.CoveredTopics, ", "))
	}
	if b.Len() == 0 {
		return "Nothing is known about the candidate yet.\n"
	}
	return b.String()
}
