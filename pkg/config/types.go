package config

import "time"

// LLMConfig configures the LM endpoint
type LLMConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// AgentSettings is the per-agent generation tuning
type AgentSettings struct {
	Temperature       float64 `yaml:"temperature"`
	MaxTokens         int     `yaml:"max_tokens"`
	GenerationRetries int     `yaml:"generation_retries"`
}

// AgentsConfig holds the settings of each agent role
type AgentsConfig struct {
	Observer    AgentSettings `yaml:"observer"`
	Interviewer AgentSettings `yaml:"interviewer"`
	Evaluator   AgentSettings `yaml:"evaluator"`
	// GreetingMaxTokens bounds the opening greeting separately
	GreetingMaxTokens int `yaml:"greeting_max_tokens"`
}

// InterviewConfig configures session behavior
type InterviewConfig struct {
	MaxTurns           int
	HistoryWindowTurns int
	LogDir             string
	JobDescription     string
}

// HTTPConfig configures the API server
type HTTPConfig struct {
	Port              int
	ClientCacheMaxAge int
}

// RedisCacheConfig configures the model-list cache.
// An empty host disables caching.
type RedisCacheConfig struct {
	Host string
	Port int
	TTL  time.Duration
}

// LangfuseConfig configures trace export
type LangfuseConfig struct {
	Enabled   bool
	PublicKey string
	SecretKey string
	Host      string
}

// Config is the complete application configuration
type Config struct {
	LLM        LLMConfig
	Agents     AgentsConfig
	Interview  InterviewConfig
	HTTP       HTTPConfig
	RedisCache RedisCacheConfig
	Langfuse   LangfuseConfig
}
