// Package config loads and validates the application configuration
// from the environment plus an optional YAML file with per-agent
// generation settings. Validation is fail-fast: an out-of-bounds value
// stops startup instead of surfacing mid-interview.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Load reads the configuration from the environment and validates it.
// When AGENT_SETTINGS_FILE is set, per-agent settings are read from
// that YAML file on top of the defaults.
func Load() (*Config, error) {
	cfg := &Config{
		LLM: LLMConfig{
			BaseURL:    strings.TrimRight(getEnv("LITELLM_BASE_URL", ""), "/"),
			APIKey:     getEnv("LITELLM_API_KEY", ""),
			Model:      getEnv("LITELLM_MODEL", ""),
			Timeout:    time.Duration(getEnvInt("LITELLM_TIMEOUT", int(DefaultTimeout/time.Second))) * time.Second,
			MaxRetries: getEnvInt("LITELLM_MAX_RETRIES", DefaultMaxRetries),
		},
		Agents: DefaultAgents(),
		Interview: InterviewConfig{
			MaxTurns:           getEnvInt("MAX_TURNS", DefaultMaxTurns),
			HistoryWindowTurns: getEnvInt("HISTORY_WINDOW_TURNS", DefaultHistoryWindowTurns),
			LogDir:             getEnv("INTERVIEW_LOG_DIR", DefaultLogDir),
			JobDescription:     getEnv("JOB_DESCRIPTION", ""),
		},
		HTTP: HTTPConfig{
			Port:              getEnvInt("HTTP_PORT", DefaultHTTPPort),
			ClientCacheMaxAge: getEnvInt("CLIENT_CACHE_MAX_AGE", DefaultClientCacheMaxAge),
		},
		RedisCache: RedisCacheConfig{
			Host: getEnv("REDIS_CACHE_HOST", ""),
			Port: getEnvInt("REDIS_CACHE_PORT", DefaultRedisPort),
			TTL:  time.Duration(getEnvInt("REDIS_CACHE_TTL", int(DefaultRedisCacheTTL/time.Second))) * time.Second,
		},
		Langfuse: LangfuseConfig{
			Enabled:   getEnvBool("LANGFUSE_ENABLED", false),
			PublicKey: getEnv("LANGFUSE_PUBLIC_KEY", ""),
			SecretKey: getEnv("LANGFUSE_SECRET_KEY", ""),
			Host:      strings.TrimRight(getEnv("LANGFUSE_HOST", ""), "/"),
		},
	}

	if file := getEnv("AGENT_SETTINGS_FILE", ""); file != "" {
		if err := loadAgentSettings(file, &cfg.Agents); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadAgentSettings overrides agent settings from a YAML file
func loadAgentSettings(file string, agents *AgentsConfig) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return NewLoadError(file, err)
	}
	if err := yaml.Unmarshal(data, agents); err != nil {
		return NewLoadError(file, err)
	}
	return nil
}

// Validate checks all configured values against their bounds
func (c *Config) Validate() error {
	if c.LLM.Timeout < time.Second {
		return NewValidationError("llm", "LITELLM_TIMEOUT",
			fmt.Errorf("%w: must be at least 1 second", ErrInvalidValue))
	}
	if c.LLM.MaxRetries < 0 {
		return NewValidationError("llm", "LITELLM_MAX_RETRIES",
			fmt.Errorf("%w: must be non-negative", ErrInvalidValue))
	}
	if c.Interview.MaxTurns < 1 {
		return NewValidationError("interview", "MAX_TURNS",
			fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	if c.Interview.HistoryWindowTurns < 1 {
		return NewValidationError("interview", "HISTORY_WINDOW_TURNS",
			fmt.Errorf("%w: must be at least 1", ErrInvalidValue))
	}
	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		return NewValidationError("http", "HTTP_PORT",
			fmt.Errorf("%w: must be a valid port", ErrInvalidValue))
	}

	for _, agent := range []struct {
		name     string
		settings AgentSettings
	}{
		{"observer", c.Agents.Observer},
		{"interviewer", c.Agents.Interviewer},
		{"evaluator", c.Agents.Evaluator},
	} {
		if err := validateAgent(agent.name, agent.settings); err != nil {
			return err
		}
	}
	if c.Agents.GreetingMaxTokens < 64 || c.Agents.GreetingMaxTokens > 8192 {
		return NewValidationError("agent", "greeting_max_tokens",
			fmt.Errorf("%w: must be in [64, 8192]", ErrInvalidValue))
	}
	return nil
}

func validateAgent(name string, s AgentSettings) error {
	if s.Temperature < 0 || s.Temperature > 2 {
		return NewValidationError(name, "temperature",
			fmt.Errorf("%w: must be in [0, 2]", ErrInvalidValue))
	}
	if s.MaxTokens < 64 || s.MaxTokens > 8192 {
		return NewValidationError(name, "max_tokens",
			fmt.Errorf("%w: must be in [64, 8192]", ErrInvalidValue))
	}
	if s.GenerationRetries < 0 || s.GenerationRetries > 10 {
		return NewValidationError(name, "generation_retries",
			fmt.Errorf("%w: must be in [0, 10]", ErrInvalidValue))
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
