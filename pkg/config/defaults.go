package config

import "time"

// Default values applied before environment and file overrides.
const (
	DefaultTimeout    = 60 * time.Second
	DefaultMaxRetries = 2

	DefaultMaxTurns           = 20
	DefaultHistoryWindowTurns = 10
	DefaultLogDir             = "interview_logs"

	DefaultHTTPPort          = 8080
	DefaultClientCacheMaxAge = 3600

	DefaultRedisPort     = 6379
	DefaultRedisCacheTTL = time.Hour

	DefaultGreetingMaxTokens = 300
)

// DefaultAgents returns the default per-agent generation settings.
// The observer and evaluator run cool and retry parse failures; the
// interviewer runs warmer and never retries, a failed turn rolls back.
func DefaultAgents() AgentsConfig {
	return AgentsConfig{
		Observer: AgentSettings{
			Temperature:       0.3,
			MaxTokens:         1500,
			GenerationRetries: 2,
		},
		Interviewer: AgentSettings{
			Temperature:       0.7,
			MaxTokens:         800,
			GenerationRetries: 0,
		},
		Evaluator: AgentSettings{
			Temperature:       0.3,
			MaxTokens:         3000,
			GenerationRetries: 2,
		},
		GreetingMaxTokens: DefaultGreetingMaxTokens,
	}
}
