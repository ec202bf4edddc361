package obs

import "sync"

// TokenUsage is the token accounting of a single generation
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Add accumulates another usage record into this one
func (u *TokenUsage) Add(other TokenUsage) {
	u.PromptTokens += other.PromptTokens
	u.CompletionTokens += other.CompletionTokens
	u.TotalTokens += other.TotalTokens
}

// AgentUsage is the accumulated usage of one agent role
type AgentUsage struct {
	Calls int        `json:"calls"`
	Usage TokenUsage `json:"usage"`
}

// SessionMetrics accumulates per-agent LM usage over one session.
// Safe for concurrent recording; the gateway writes here on every call.
type SessionMetrics struct {
	mu     sync.Mutex
	agents map[string]*AgentUsage
	turns  int
}

// NewSessionMetrics creates an empty metrics accumulator
func NewSessionMetrics() *SessionMetrics {
	return &SessionMetrics{agents: make(map[string]*AgentUsage)}
}

// RecordCall adds one LM call with its usage under the given agent role
func (m *SessionMetrics) RecordCall(agent string, usage TokenUsage) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.agents[agent]
	if !ok {
		entry = &AgentUsage{}
		m.agents[agent] = entry
	}
	entry.Calls++
	entry.Usage.Add(usage)
}

// RecordTurn counts one completed interview turn
func (m *SessionMetrics) RecordTurn() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.turns++
}

// Snapshot returns the metrics in the shape persisted under
// token_metrics in the detailed session log.
func (m *SessionMetrics) Snapshot() map[string]any {
	m.mu.Lock()
	defer m.mu.Unlock()

	perAgent := make(map[string]any, len(m.agents))
	total := TokenUsage{}
	calls := 0
	for name, entry := range m.agents {
		perAgent[name] = map[string]any{
			"calls":             entry.Calls,
			"prompt_tokens":     entry.Usage.PromptTokens,
			"completion_tokens": entry.Usage.CompletionTokens,
			"total_tokens":      entry.Usage.TotalTokens,
		}
		total.Add(entry.Usage)
		calls += entry.Calls
	}

	snapshot := map[string]any{
		"agents":       perAgent,
		"total_calls":  calls,
		"total_tokens": total.TotalTokens,
		"turns":        m.turns,
	}
	if m.turns > 0 {
		snapshot["avg_tokens_per_turn"] = total.TotalTokens / m.turns
	}
	return snapshot
}
