package session

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
)

// InterviewLogger persists the two per-session artifacts: a compact
// summary log and a detailed log with the full structured state.
type InterviewLogger struct {
	dir string
}

// NewInterviewLogger creates a logger writing into dir. The directory
// is created on first write.
func NewInterviewLogger(dir string) *InterviewLogger {
	return &InterviewLogger{dir: dir}
}

type summaryTurn struct {
	TurnID              int    `json:"turn_id"`
	AgentVisibleMessage string `json:"agent_visible_message"`
	UserMessage         string `json:"user_message,omitempty"`
	InternalThoughts    string `json:"internal_thoughts,omitempty"`
}

type summaryLog struct {
	ParticipantName string        `json:"participant_name"`
	Turns           []summaryTurn `json:"turns"`
	FinalFeedback   *string       `json:"final_feedback"`
}

type detailedLog struct {
	ParticipantName string                `json:"participant_name"`
	Candidate       models.CandidateInfo  `json:"candidate"`
	StartedAt       time.Time             `json:"started_at"`
	FinishedAt      time.Time             `json:"finished_at"`
	Stats           map[string]any        `json:"stats"`
	Turns           []*models.Turn        `json:"turns"`
	KnowledgeGaps   []models.KnowledgeGap `json:"knowledge_gaps"`
	FinalFeedback   *models.Feedback      `json:"final_feedback"`
	TokenMetrics    map[string]any        `json:"token_metrics,omitempty"`
}

// Write persists both logs and returns their paths
func (l *InterviewLogger) Write(state *models.InterviewState, feedback *models.Feedback, tokenMetrics map[string]any) (string, string, error) {
	if err := os.MkdirAll(l.dir, 0o755); err != nil {
		return "", "", fmt.Errorf("creating log directory: %w", err)
	}

	stamp := time.Now().Format("20060102_150405")
	summaryPath := filepath.Join(l.dir, fmt.Sprintf("interview_log_%s.json", stamp))
	detailedPath := filepath.Join(l.dir, fmt.Sprintf("interview_detailed_%s.json", stamp))

	if err := writeJSON(summaryPath, l.buildSummary(state, feedback)); err != nil {
		return "", "", err
	}
	if err := writeJSON(detailedPath, l.buildDetailed(state, feedback, tokenMetrics)); err != nil {
		return "", "", err
	}
	return summaryPath, detailedPath, nil
}

func (l *InterviewLogger) buildSummary(state *models.InterviewState, feedback *models.Feedback) summaryLog {
	out := summaryLog{ParticipantName: state.ParticipantName}
	for _, turn := range state.Turns {
		out.Turns = append(out.Turns, summaryTurn{
			TurnID:              turn.TurnID,
			AgentVisibleMessage: turn.AgentMessage,
			UserMessage:         turn.UserMessage,
			InternalThoughts:    flattenThoughts(turn.InternalThoughts),
		})
	}
	if feedback != nil {
		formatted := feedback.FormatString()
		out.FinalFeedback = &formatted
	}
	return out
}

func (l *InterviewLogger) buildDetailed(state *models.InterviewState, feedback *models.Feedback, tokenMetrics map[string]any) detailedLog {
	return detailedLog{
		ParticipantName: state.ParticipantName,
		Candidate:       state.Candidate,
		StartedAt:       state.StartedAt,
		FinishedAt:      time.Now(),
		Stats: map[string]any{
			"turns":            state.CurrentTurn,
			"final_difficulty": state.CurrentDifficulty.String(),
			"covered_topics":   state.CoveredTopics,
			"confirmed_skills": state.ConfirmedSkills,
			"knowledge_gaps":   len(state.KnowledgeGaps),
		},
		Turns:         state.Turns,
		KnowledgeGaps: state.KnowledgeGaps,
		FinalFeedback: feedback,
		TokenMetrics:  tokenMetrics,
	}
}

// flattenThoughts renders thoughts as "[Agent]: content" strings joined
// with spaces, the compact form the summary log uses.
func flattenThoughts(thoughts []models.InternalThought) string {
	if len(thoughts) == 0 {
		return ""
	}
	parts := make([]string, 0, len(thoughts))
	for _, thought := range thoughts {
		parts = append(parts, fmt.Sprintf("[%s]: %s", thought.FromAgent, thought.Content))
	}
	return strings.Join(parts, " ")
}

func writeJSON(path string, payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
