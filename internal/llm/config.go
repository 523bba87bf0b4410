package llm

import (
	"fmt"
	"os"
	"time"
)

// Config selects and configures a provider.
type Config struct {
	// Provider is one of "anthropic", "openai", "gemini", "openrouter", "mock".
	Provider string

	Anthropic  AnthropicConfig
	OpenAI     OpenAIConfig
	Gemini     GeminiConfig
	OpenRouter OpenRouterConfig
	Retry      RetryConfig

	// Timeout bounds one Generate call including retries.
	Timeout time.Duration
}

type AnthropicConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

type GeminiConfig struct {
	APIKey string
	Model  string
}

type OpenRouterConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// RetryConfig configures exponential backoff for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns the defaults used when nothing is configured.
func DefaultConfig() Config {
	return Config{
		Provider:   "anthropic",
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-exp"},
		Retry: RetryConfig{
			MaxAttempts: 3,
			InitialWait: time.Second,
			MaxWait:     10 * time.Second,
			Multiplier:  2.0,
		},
		Timeout: 30 * time.Second,
	}
}

// ConfigFromEnv reads PRACTEST_LLM_* and provider key variables. It
// reports false when no provider was explicitly selected and no standard
// API key (GEMINI_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY,
// OPENROUTER_API_KEY) is present.
func ConfigFromEnv() (Config, bool) {
	cfg := DefaultConfig()

	explicit := os.Getenv("PRACTEST_LLM_PROVIDER")
	if explicit == "" && !discover(&cfg) {
		return Config{}, false
	}
	if explicit != "" {
		cfg.Provider = explicit
	}

	setenv(&cfg.Anthropic.APIKey, "PRACTEST_ANTHROPIC_API_KEY")
	setenv(&cfg.Anthropic.Model, "PRACTEST_ANTHROPIC_MODEL")
	setenv(&cfg.OpenAI.APIKey, "PRACTEST_OPENAI_API_KEY")
	setenv(&cfg.OpenAI.Model, "PRACTEST_OPENAI_MODEL")
	setenv(&cfg.OpenAI.BaseURL, "PRACTEST_OPENAI_BASE_URL")
	setenv(&cfg.Gemini.APIKey, "PRACTEST_GEMINI_API_KEY")
	setenv(&cfg.Gemini.Model, "PRACTEST_GEMINI_MODEL")
	setenv(&cfg.OpenRouter.APIKey, "PRACTEST_OPENROUTER_API_KEY")
	setenv(&cfg.OpenRouter.Model, "PRACTEST_OPENROUTER_MODEL")

	if v := os.Getenv("PRACTEST_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}
	return cfg, true
}

// discover picks the first provider with a standard API key set, in the
// order Gemini, OpenAI, Anthropic, OpenRouter.
func discover(cfg *Config) bool {
	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider, cfg.Gemini.APIKey = "gemini", os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider, cfg.OpenAI.APIKey = "openai", os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider, cfg.Anthropic.APIKey = "anthropic", os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider, cfg.OpenRouter.APIKey = "openrouter", os.Getenv("OPENROUTER_API_KEY")
	default:
		return false
	}
	return true
}

func setenv(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

// Validate checks that the selected provider has an API key.
func (c Config) Validate() error {
	var key string
	switch c.Provider {
	case "anthropic":
		key = c.Anthropic.APIKey
	case "openai":
		key = c.OpenAI.APIKey
	case "gemini":
		key = c.Gemini.APIKey
	case "openrouter":
		key = c.OpenRouter.APIKey
	case "mock":
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("an API key is required for the %s provider", c.Provider)
	}
	return nil
}
