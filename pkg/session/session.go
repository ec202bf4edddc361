// Package session drives the interview turn lifecycle. The orchestrator
// sequences the observer, difficulty adjustment and interviewer per
// turn, and guarantees that a failed turn never leaves the state
// half-mutated: non-idempotent writes happen only after the
// interviewer call succeeds.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/agent"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/obs"
)

var (
	// ErrNotStarted indicates an operation before Start
	ErrNotStarted = errors.New("session not started")
	// ErrAlreadyStarted indicates a second Start
	ErrAlreadyStarted = errors.New("session already started")
	// ErrFinished indicates an operation on a finished session
	ErrFinished = errors.New("session is finished")
)

// User-visible failure messages. Always generic: internal errors and
// prompt contents never leak to the candidate.
const (
	observerFailureMessage    = "Sorry, I had trouble processing your reply. Could you send it again?"
	interviewerFailureMessage = "Sorry, something went wrong on my side. Could you repeat your last message?"
	stopAcknowledgement       = "Understood, we are wrapping up here. Thank you for your time!"
	maxTurnsNotice            = "\n\nThat brings us to the end of our time. Thank you for the interview!"
)

// Deps are the collaborators a session receives. Gateway overrides the
// real LM client, mainly for tests; Tracker defaults to a no-op.
type Deps struct {
	Tracker obs.Tracker
	Logger  *slog.Logger
	Gateway agent.Gateway
}

// Session is one interview. All turn processing runs under an internal
// mutex, so the state machine itself is single-threaded even when the
// HTTP shell calls in concurrently.
type Session struct {
	mu sync.Mutex

	id      string
	cfg     *config.Config
	logger  *slog.Logger
	tracker obs.Tracker

	state       *models.InterviewState
	observer    *agent.Observer
	interviewer *agent.Interviewer
	evaluator   *agent.Evaluator
	trace       obs.Trace
	metrics     *obs.SessionMetrics
	fileLogger  *InterviewLogger

	participantName string
	gatewayOverride agent.Gateway
	started         bool
	finished        bool
}

// New creates a session for one candidate
func New(cfg *config.Config, participantName string, deps Deps) *Session {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	tracker := deps.Tracker
	if tracker == nil {
		tracker = obs.NoopTracker{}
	}
	return &Session{
		id:              uuid.New().String(),
		cfg:             cfg,
		logger:          logger,
		tracker:         tracker,
		participantName: participantName,
		gatewayOverride: deps.Gateway,
		fileLogger:      NewInterviewLogger(cfg.Interview.LogDir),
	}
}

// ID returns the session identifier
func (s *Session) ID() string {
	return s.id
}

// State exposes the interview state for read-only inspection
func (s *Session) State() *models.InterviewState {
	return s.state
}

// Metrics exposes the session token metrics
func (s *Session) Metrics() *obs.SessionMetrics {
	return s.metrics
}

// Start initializes the state, registers the session trace, builds the
// per-session gateway and agents, and produces the greeting turn.
func (s *Session) Start(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return "", ErrAlreadyStarted
	}

	s.logger = s.logger.With("session_id", s.id)
	s.state = models.NewInterviewState(s.participantName, s.cfg.Interview.JobDescription)
	s.metrics = obs.NewSessionMetrics()
	s.trace = s.tracker.StartTrace("interview", s.id, map[string]any{
		"participant": s.participantName,
	})

	gateway := s.gatewayOverride
	if gateway == nil {
		gateway = llm.NewClient(llm.ClientConfig{
			BaseURL:    s.cfg.LLM.BaseURL,
			APIKey:     s.cfg.LLM.APIKey,
			Model:      s.cfg.LLM.Model,
			Timeout:    s.cfg.LLM.Timeout,
			MaxRetries: s.cfg.LLM.MaxRetries,
		}, llm.Options{
			Trace:   s.trace,
			Metrics: s.metrics,
			Logger:  s.logger,
		})
	}

	s.observer = agent.NewObserver(gateway, s.cfg.Agents.Observer, s.logger)
	s.interviewer = agent.NewInterviewer(gateway, s.cfg.Agents,
		s.cfg.Interview.HistoryWindowTurns, s.cfg.Interview.JobDescription, s.logger)
	s.evaluator = agent.NewEvaluator(gateway, s.cfg.Agents.Evaluator, s.logger)

	greeting := s.interviewer.Greet(ctx, s.state)
	s.state.AddTurn(greeting)
	s.started = true

	s.logger.Info("interview started", "participant", s.participantName)
	return greeting, nil
}

// Process runs one turn of the interview pipeline. The returned done
// flag signals that the interview is over and Finish should be called.
//
// Mutation protocol: attaching the user message is the only write that
// survives a failed turn. Difficulty is adjusted against a snapshot and
// rolled back when the interviewer fails; the transcript, topic sets
// and gap list are written only after the interviewer succeeds.
func (s *Session) Process(ctx context.Context, userMessage string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return "", false, ErrNotStarted
	}
	if s.finished || !s.state.IsActive {
		return "", false, ErrFinished
	}

	s.trace.Span("user_message", userMessage, nil)

	// 1. attach the reply to the open turn; monotone and safe to keep
	tail := s.state.Tail()
	tail.AttachUserMessage(userMessage)

	// 2. observer
	anchor := s.state.LastAgentMessage()
	analysis, err := s.observer.Analyze(ctx, s.state, userMessage, anchor)
	if err != nil {
		s.logger.Error("observer failed", "error", err)
		return observerFailureMessage, false, nil
	}
	s.trace.Span("observer_analysis", userMessage, map[string]any{
		"response_type":          analysis.ResponseType,
		"quality":                analysis.Quality,
		"answered_last_question": analysis.AnsweredLastQuestion,
		"is_gibberish":           analysis.IsGibberish,
	})

	// 3. idempotent candidate-info accretion. Learning the target grade
	// seeds the starting difficulty once; later answers move it.
	gradeKnown := s.state.Candidate.TargetGrade != ""
	s.state.Candidate.Merge(analysis.ExtractedInfo)
	if s.state.ParticipantName == "" && s.state.Candidate.Name != "" {
		s.state.ParticipantName = s.state.Candidate.Name
	}
	if !gradeKnown && s.state.Candidate.TargetGrade != "" {
		s.state.CurrentDifficulty = models.InitialDifficultyFor(s.state.Candidate.TargetGrade)
		s.logger.Info("difficulty seeded from declared grade",
			"grade", s.state.Candidate.TargetGrade,
			"difficulty", s.state.CurrentDifficulty.String())
	}

	// 4. stop command short-circuits before any difficulty mutation
	if analysis.ResponseType == models.ResponseStopCommand {
		s.recordThoughts(tail, analysis, nil)
		s.state.IsActive = false
		s.logger.Info("interview stopped by candidate", "turn", s.state.CurrentTurn)
		return stopAcknowledgement, true, nil
	}

	// 5-6. difficulty under snapshot; only a closed anchor moves it
	snapshot := s.state.SnapshotDifficulty()
	difficultyChanged := false
	if analysis.AnsweredLastQuestion {
		difficultyChanged = s.state.AdjustDifficulty(analysis)
	}

	// 7. interviewer; rollback on failure
	utterance, instruction, err := s.interviewer.PlanAndSpeak(ctx, s.state, analysis)
	if err != nil {
		s.state.RestoreDifficulty(snapshot)
		s.logger.Error("interviewer failed, turn rolled back", "error", err)
		return interviewerFailureMessage, false, nil
	}

	// 8. commit
	if difficultyChanged {
		s.trace.Span("difficulty_change", snapshot.Difficulty.String(), s.state.CurrentDifficulty.String())
	}
	s.recordThoughts(tail, analysis, &instruction)
	s.commitKnowledge(analysis, userMessage)

	done := false
	if s.state.CurrentTurn+1 >= s.cfg.Interview.MaxTurns {
		utterance += maxTurnsNotice
		done = true
	}
	s.state.AddTurn(utterance)
	s.metrics.RecordTurn()
	s.trace.Span("interviewer_response", string(instruction.Category), utterance)

	// 9. termination
	if done {
		s.state.IsActive = false
		s.logger.Info("interview reached max turns", "turns", s.state.CurrentTurn)
	}
	return utterance, done, nil
}

// Finish produces the final feedback, writes both session logs, and
// flushes the trace. A failed evaluator degrades to a report assembled
// from the recorded state.
func (s *Session) Finish(ctx context.Context) (*models.Feedback, string, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil, "", "", ErrNotStarted
	}
	if s.finished {
		return nil, "", "", ErrFinished
	}

	s.state.IsActive = false

	feedback, err := s.evaluator.Evaluate(ctx, s.state)
	if err != nil {
		s.logger.Warn("evaluator failed, using fallback feedback", "error", err)
		feedback = models.FallbackFeedback(s.state)
	}

	s.trace.Span("final_feedback", nil, map[string]any{
		"assessed_grade": feedback.Verdict.AssessedGrade,
		"recommendation": feedback.Verdict.Recommendation,
	})
	s.trace.Score("interview_confidence", float64(feedback.Verdict.ConfidenceScore),
		string(feedback.Verdict.Recommendation))

	summaryPath, detailedPath, err := s.fileLogger.Write(s.state, feedback, s.metrics.Snapshot())
	if err != nil {
		s.logger.Error("writing session logs failed", "error", err)
	}

	flushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := s.tracker.Flush(flushCtx); err != nil {
		s.logger.Warn("trace flush failed", "error", err)
	}

	s.finished = true
	s.logger.Info("interview finished",
		"turns", s.state.CurrentTurn,
		"assessed_grade", feedback.Verdict.AssessedGrade,
		"recommendation", feedback.Verdict.Recommendation)
	return feedback, summaryPath, detailedPath, nil
}

// Close deactivates the session and flushes any buffered trace events.
// Safe to call at any point and more than once.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != nil {
		s.state.IsActive = false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracker.Flush(ctx); err != nil {
		s.logger.Warn("trace flush on close failed", "error", err)
	}
}

func (s *Session) recordThoughts(tail *models.Turn, analysis *models.Analysis, instruction *agent.Instruction) {
	thought := analysis.Thought
	if thought == "" {
		thought = analysis.Recommendation
	}
	if thought != "" {
		tail.AddThought(agent.NameObserver, agent.NameInterviewer, thought)
	}
	if instruction != nil {
		tail.AddThought(agent.NameInterviewer, agent.NameObserver,
			"acting on instruction: "+string(instruction.Category))
	}
}

// commitKnowledge applies the topic/skill/gap accounting rules. Gaps
// are recorded only for attempted answers that were factually wrong;
// gibberish, off-topic and role reversal never create gaps.
func (s *Session) commitKnowledge(analysis *models.Analysis, userMessage string) {
	s.state.AddCoveredTopics(analysis.DetectedTopics)

	if !analysis.AnsweredLastQuestion {
		return
	}
	goodQuality := analysis.Quality == models.QualityExcellent || analysis.Quality == models.QualityGood
	if analysis.IsFactuallyCorrect && goodQuality {
		s.state.ConfirmSkills(analysis.DetectedTopics)
	}
	if !analysis.IsFactuallyCorrect || analysis.Quality == models.QualityWrong {
		s.state.AddKnowledgeGap(analysis.DetectedTopics, userMessage, analysis.CorrectAnswer)
	}
}
