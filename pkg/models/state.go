package models

import (
	"strings"
	"time"
)

// KnowledgeGap records one factually wrong answer the candidate gave
type KnowledgeGap struct {
	Topic         string `json:"topic"`
	UserAnswer    string `json:"user_answer"`
	CorrectAnswer string `json:"correct_answer,omitempty"`
}

// HistoryMessage is one entry of the bounded chat history handed to
// the interviewer, with OpenAI-style roles.
type HistoryMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// InterviewState is the aggregate the orchestrator mutates across a
// session. Turns are append-only and CurrentTurn always equals
// len(Turns); only the orchestrator writes here.
type InterviewState struct {
	ParticipantName        string         `json:"participant_name"`
	Candidate              CandidateInfo  `json:"candidate"`
	JobDescription         string         `json:"job_description,omitempty"`
	Turns                  []*Turn        `json:"turns"`
	CurrentTurn            int            `json:"current_turn"`
	CurrentDifficulty      Difficulty     `json:"current_difficulty"`
	CoveredTopics          []string       `json:"covered_topics"`
	ConfirmedSkills        []string       `json:"confirmed_skills"`
	KnowledgeGaps          []KnowledgeGap `json:"knowledge_gaps"`
	IsActive               bool           `json:"is_active"`
	ConsecutiveGoodAnswers int            `json:"consecutive_good_answers"`
	ConsecutiveBadAnswers  int            `json:"consecutive_bad_answers"`
	StartedAt              time.Time      `json:"started_at"`
}

// NewInterviewState creates the state for a fresh session
func NewInterviewState(participantName, jobDescription string) *InterviewState {
	return &InterviewState{
		ParticipantName:   participantName,
		JobDescription:    jobDescription,
		CurrentDifficulty: DifficultyBasic,
		IsActive:          true,
		StartedAt:         time.Now(),
	}
}

// AddTurn appends a new turn carrying the agent utterance and returns it
func (s *InterviewState) AddTurn(agentMessage string) *Turn {
	t := &Turn{
		TurnID:       len(s.Turns) + 1,
		AgentMessage: agentMessage,
		CreatedAt:    time.Now(),
	}
	s.Turns = append(s.Turns, t)
	s.CurrentTurn = len(s.Turns)
	return t
}

// Tail returns the most recent turn, or nil before the greeting
func (s *InterviewState) Tail() *Turn {
	if len(s.Turns) == 0 {
		return nil
	}
	return s.Turns[len(s.Turns)-1]
}

// LastAgentMessage returns the active question anchor: the agent
// utterance of the most recent turn. The anchor is always derived from
// the transcript, never stored separately.
func (s *InterviewState) LastAgentMessage() string {
	if t := s.Tail(); t != nil {
		return t.AgentMessage
	}
	return ""
}

// HistoryWindow returns the trailing maxTurns turns as alternating
// assistant/user messages. Turns without a user reply contribute only
// the assistant message.
func (s *InterviewState) HistoryWindow(maxTurns int) []HistoryMessage {
	turns := s.Turns
	if maxTurns > 0 && len(turns) > maxTurns {
		turns = turns[len(turns)-maxTurns:]
	}
	history := make([]HistoryMessage, 0, len(turns)*2)
	for _, t := range turns {
		history = append(history, HistoryMessage{Role: "assistant", Content: t.AgentMessage})
		if t.UserMessage != "" {
			history = append(history, HistoryMessage{Role: "user", Content: t.UserMessage})
		}
	}
	return history
}

// DifficultySnapshot captures the difficulty state so a failed turn can
// be rolled back without committing a partial adjustment.
type DifficultySnapshot struct {
	Difficulty Difficulty
	Good       int
	Bad        int
}

// SnapshotDifficulty captures the current difficulty state
func (s *InterviewState) SnapshotDifficulty() DifficultySnapshot {
	return DifficultySnapshot{
		Difficulty: s.CurrentDifficulty,
		Good:       s.ConsecutiveGoodAnswers,
		Bad:        s.ConsecutiveBadAnswers,
	}
}

// RestoreDifficulty rolls the difficulty state back to a snapshot
func (s *InterviewState) RestoreDifficulty(snap DifficultySnapshot) {
	s.CurrentDifficulty = snap.Difficulty
	s.ConsecutiveGoodAnswers = snap.Good
	s.ConsecutiveBadAnswers = snap.Bad
}

// AdjustDifficulty applies the streak rules for one analysis: two
// consecutive signals in the same direction move difficulty one step
// and reset the streak; any neutral analysis resets both counters.
// When the analysis requests both directions the increase wins.
// Returns true when the level changed.
func (s *InterviewState) AdjustDifficulty(a *Analysis) bool {
	switch {
	case a.ShouldIncreaseDifficulty:
		s.ConsecutiveGoodAnswers++
		s.ConsecutiveBadAnswers = 0
		if s.ConsecutiveGoodAnswers >= 2 && s.CurrentDifficulty < DifficultyExpert {
			s.CurrentDifficulty++
			s.ConsecutiveGoodAnswers = 0
			return true
		}
	case a.ShouldSimplify:
		s.ConsecutiveBadAnswers++
		s.ConsecutiveGoodAnswers = 0
		if s.ConsecutiveBadAnswers >= 2 && s.CurrentDifficulty > DifficultyBasic {
			s.CurrentDifficulty--
			s.ConsecutiveBadAnswers = 0
			return true
		}
	default:
		s.ConsecutiveGoodAnswers = 0
		s.ConsecutiveBadAnswers = 0
	}
	return false
}

// AddCoveredTopics unions detected topics into the covered set
func (s *InterviewState) AddCoveredTopics(topics []string) {
	s.CoveredTopics = unionInto(s.CoveredTopics, topics)
}

// ConfirmSkills unions topics into the confirmed-skill set
func (s *InterviewState) ConfirmSkills(topics []string) {
	s.ConfirmedSkills = unionInto(s.ConfirmedSkills, topics)
}

// AddKnowledgeGap appends a gap for a factually wrong attempted answer.
// The topic is the joined detected topics, or "General" when none were
// detected; the candidate answer is truncated to 200 characters.
func (s *InterviewState) AddKnowledgeGap(topics []string, userAnswer, correctAnswer string) {
	topic := strings.Join(topics, ", ")
	if topic == "" {
		topic = "General"
	}
	if len(userAnswer) > 200 {
		userAnswer = userAnswer[:200]
	}
	s.KnowledgeGaps = append(s.KnowledgeGaps, KnowledgeGap{
		Topic:         topic,
		UserAnswer:    userAnswer,
		CorrectAnswer: correctAnswer,
	})
}

func unionInto(dst, src []string) []string {
	for _, item := range src {
		if item == "" {
			continue
		}
		found := false
		for _, existing := range dst {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			dst = append(dst, item)
		}
	}
	return dst
}
