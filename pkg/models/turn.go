package models

import "time"

// InternalThought is one agent-to-agent note recorded on a turn
type InternalThought struct {
	FromAgent string    `json:"from_agent"`
	ToAgent   string    `json:"to_agent"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// Turn is one interview round: the agent's utterance, the candidate's
// reply (attached retroactively when the next input arrives), and the
// internal thoughts produced while handling that reply.
type Turn struct {
	TurnID           int               `json:"turn_id"`
	AgentMessage     string            `json:"agent_message"`
	UserMessage      string            `json:"user_message,omitempty"`
	InternalThoughts []InternalThought `json:"internal_thoughts,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
}

// AttachUserMessage sets the candidate reply on the turn. The first
// write wins; a turn never carries more than one user message.
func (t *Turn) AttachUserMessage(msg string) bool {
	if t.UserMessage != "" {
		return false
	}
	t.UserMessage = msg
	return true
}

// AddThought appends an internal thought to the turn
func (t *Turn) AddThought(from, to, content string) {
	t.InternalThoughts = append(t.InternalThoughts, InternalThought{
		FromAgent: from,
		ToAgent:   to,
		Content:   content,
		Timestamp: time.Now(),
	})
}
