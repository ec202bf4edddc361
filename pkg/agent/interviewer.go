package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/config"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/llm"
	"github.com/RomiconEZ/Multi-Agent-Interview-Coach/pkg/models"
)

// InstructionCategory names the action the interviewer is told to take
type InstructionCategory string

const (
	// InstructionGibberish acknowledges unreadable input and repeats the anchor
	InstructionGibberish InstructionCategory = "gibberish"
	// InstructionIntroduction thanks the candidate and opens the technical part
	InstructionIntroduction InstructionCategory = "introduction"
	// InstructionCorrectAndAdvance corrects a hallucination and moves on
	InstructionCorrectAndAdvance InstructionCategory = "correct_and_advance"
	// InstructionCorrectAndRepeat corrects a hallucination and repeats the anchor
	InstructionCorrectAndRepeat InstructionCategory = "correct_and_repeat"
	// InstructionRedirect steers an off-topic reply back to the anchor
	InstructionRedirect InstructionCategory = "redirect"
	// InstructionAnswerAndRepeat answers a role-reversal question briefly and repeats the anchor
	InstructionAnswerAndRepeat InstructionCategory = "answer_and_repeat"
	// InstructionHint asks for elaboration on an incomplete answer
	InstructionHint InstructionCategory = "hint"
	// InstructionRepeatAnchor repeats the active question verbatim
	InstructionRepeatAnchor InstructionCategory = "repeat_anchor"
	// InstructionPraiseAndRaise praises an excellent answer and asks a harder question
	InstructionPraiseAndRaise InstructionCategory = "praise_and_raise"
	// InstructionContinue continues with the next question at the current difficulty
	InstructionContinue InstructionCategory = "continue"
)

// ackPhrases are the two allowed acknowledgements of a role reversal
var ackPhrases = [2]string{"Good question!", "That's a fair question."}

// Instruction is the per-turn directive handed to the interviewer LM
type Instruction struct {
	Category InstructionCategory
	Text     string
}

// DeriveInstruction maps the observer's analysis onto the action the
// interviewer must take this turn. Pure function; the conditions are
// checked in a fixed order and the first match wins. The anchor (the
// last agent message) is embedded verbatim so the model can repeat it
// without drift.
func DeriveInstruction(analysis *models.Analysis, state *models.InterviewState) Instruction {
	anchor := state.LastAgentMessage()

	switch {
	case analysis.IsGibberish:
		return Instruction{InstructionGibberish, fmt.Sprintf(
			"The reply was unreadable. Briefly note that you could not make out the answer, then repeat your question word for word: %q", anchor)}

	case analysis.ResponseType == models.ResponseIntroduction:
		return Instruction{InstructionIntroduction, fmt.Sprintf(
			"The candidate introduced themselves. Thank them briefly, then ask the first technical question at %s difficulty, chosen from the technologies they named.", state.CurrentDifficulty)}

	case analysis.ResponseType == models.ResponseHallucination && analysis.AnsweredLastQuestion:
		return Instruction{InstructionCorrectAndAdvance, fmt.Sprintf(
			"The answer contained a factual error. Politely correct it (%s), then ask a new question on a different aspect.", correctionText(analysis))}

	case analysis.ResponseType == models.ResponseHallucination:
		return Instruction{InstructionCorrectAndRepeat, fmt.Sprintf(
			"The reply contained a factual error and did not answer your question. Politely correct it (%s), then repeat your question word for word: %q", correctionText(analysis), anchor)}

	case analysis.ResponseType == models.ResponseOffTopic:
		return Instruction{InstructionRedirect, fmt.Sprintf(
			"The reply was off topic. Gently steer the conversation back, then repeat your question word for word: %q", anchor)}

	case analysis.ResponseType == models.ResponseQuestion:
		ack := ackPhrases[state.CurrentTurn%2]
		return Instruction{InstructionAnswerAndRepeat, fmt.Sprintf(
			"The candidate asked you a question instead of answering. Start with exactly this phrase: %q. Give a neutral answer in at most three sentences, without introducing new examples or technical material. Then repeat your question word for word: %q", ack, anchor)}

	case analysis.ResponseType == models.ResponseIncomplete && analysis.AnsweredLastQuestion:
		return Instruction{InstructionHint, "The answer was on the right track but incomplete. Ask the candidate to elaborate, or give a small hint toward the missing part. Do not move to a new question."}

	case analysis.ResponseType == models.ResponseIncomplete:
		return Instruction{InstructionRepeatAnchor, fmt.Sprintf(
			"The candidate did not really answer. Repeat your question word for word: %q", anchor)}

	case !analysis.AnsweredLastQuestion:
		return Instruction{InstructionRepeatAnchor, fmt.Sprintf(
			"The candidate did not answer your question. Repeat it word for word: %q", anchor)}

	case analysis.ResponseType == models.ResponseExcellent:
		return Instruction{InstructionPraiseAndRaise, fmt.Sprintf(
			"The answer was excellent. Praise it in one short sentence, then ask a harder question at %s difficulty within the candidate's technologies.", state.CurrentDifficulty)}

	default:
		return Instruction{InstructionContinue, fmt.Sprintf(
			"Acknowledge the answer briefly and continue with the next question at %s difficulty.", state.CurrentDifficulty)}
	}
}

func correctionText(analysis *models.Analysis) string {
	if analysis.CorrectAnswer != "" {
		return "the correct fact is: " + analysis.CorrectAnswer
	}
	return "state the correct fact"
}

// Interviewer produces the utterances the candidate sees
type Interviewer struct {
	gateway           Gateway
	settings          config.AgentSettings
	greetingMaxTokens int
	historyWindow     int
	jobDescription    string
	logger            *slog.Logger
}

// NewInterviewer creates an interviewer
func NewInterviewer(gateway Gateway, agents config.AgentsConfig, historyWindow int, jobDescription string, logger *slog.Logger) *Interviewer {
	return &Interviewer{
		gateway:           gateway,
		settings:          agents.Interviewer,
		greetingMaxTokens: agents.GreetingMaxTokens,
		historyWindow:     historyWindow,
		jobDescription:    jobDescription,
		logger:            logger,
	}
}

// Greet produces the opening message of the interview. A failed LM
// call degrades to a canned greeting so the session can still start.
func (iv *Interviewer) Greet(ctx context.Context, state *models.InterviewState) string {
	instruction := "Open the interview. Greet the candidate"
	if state.ParticipantName != "" {
		instruction += fmt.Sprintf(" by name (%s)", state.ParticipantName)
	}
	instruction += " and ask them to introduce themselves: name, position, experience, and technologies."

	out, err := iv.gateway.Complete(ctx, llm.Request{
		Messages: append(iv.systemMessages(),
			llm.Message{Role: "user", Content: "INSTRUCTION:\n" + instruction}),
		Temperature:    iv.settings.Temperature,
		MaxTokens:      iv.greetingMaxTokens,
		Agent:          metricsInterviewer,
		GenerationName: "interviewer_greeting",
	})
	if err != nil || out == "" {
		iv.logger.Warn("greeting generation failed, using fallback", "error", err)
		return fallbackGreeting
	}
	return out
}

// PlanAndSpeak derives the instruction for this turn and produces the
// next utterance. Errors propagate so the orchestrator can roll back.
func (iv *Interviewer) PlanAndSpeak(ctx context.Context, state *models.InterviewState, analysis *models.Analysis) (string, Instruction, error) {
	instruction := DeriveInstruction(analysis, state)

	messages := iv.systemMessages()
	for _, h := range state.HistoryWindow(iv.historyWindow) {
		messages = append(messages, llm.Message{Role: h.Role, Content: h.Content})
	}
	messages = append(messages, llm.Message{
		Role: "user",
		Content: fmt.Sprintf("Candidate profile:\n%s\nINSTRUCTION:\n%s\n\nWrite your next message to the candidate.",
			candidateContext(state), instruction.Text),
	})

	out, err := iv.gateway.Complete(ctx, llm.Request{
		Messages:       messages,
		Temperature:    iv.settings.Temperature,
		MaxTokens:      iv.settings.MaxTokens,
		Agent:          metricsInterviewer,
		GenerationName: "interviewer_response",
	})
	if err != nil {
		return "", instruction, err
	}
	return out, instruction, nil
}

func (iv *Interviewer) systemMessages() []llm.Message {
	system := interviewerSystemPrompt
	if iv.jobDescription != "" {
		system += "\n\nThe position being interviewed for:\n" + iv.jobDescription
	}
	return []llm.Message{{Role: "system", Content: system}}
}
