package llm

import (
	"fmt"
	"os"
	"time"
)

// Provider names accepted in Config.Provider.
const (
	ProviderAnthropic  = "anthropic"
	ProviderOpenAI     = "openai"
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderMock       = "mock"
)

// Config selects and configures the phrase model.
type Config struct {
	// Provider is one of the Provider* names. Empty disables the model.
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
	APIKey string
	Model  string
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

// RetryConfig is the backoff policy for transient failures.
type RetryConfig struct {
	MaxAttempts int
	InitialWait time.Duration
	MaxWait     time.Duration
	Multiplier  float64
}

// DefaultConfig returns small, cheap models and a short retry budget: a
// filler phrase that arrives late is useless.
func DefaultConfig() Config {
	return Config{
		Provider:   ProviderGemini,
		Anthropic:  AnthropicConfig{Model: "claude-haiku"},
		OpenAI:     OpenAIConfig{Model: "gpt-4o-mini"},
		Gemini:     GeminiConfig{Model: "gemini-flash"},
		OpenRouter: OpenRouterConfig{Model: "google/gemini-2.0-flash-001"},
		Retry: RetryConfig{
			MaxAttempts: 2,
			InitialWait: 200 * time.Millisecond,
			MaxWait:     time.Second,
			Multiplier:  2.0,
		},
		Timeout: 5 * time.Second,
	}
}

// ConfigFromEnv overlays TYPEBOT_* environment variables on the defaults.
func ConfigFromEnv() Config {
	cfg := DefaultConfig()

	for name, dst := range map[string]*string{
		"TYPEBOT_LLM_PROVIDER":       &cfg.Provider,
		"TYPEBOT_ANTHROPIC_API_KEY":  &cfg.Anthropic.APIKey,
		"TYPEBOT_ANTHROPIC_MODEL":    &cfg.Anthropic.Model,
		"TYPEBOT_OPENAI_API_KEY":     &cfg.OpenAI.APIKey,
		"TYPEBOT_OPENAI_MODEL":       &cfg.OpenAI.Model,
		"TYPEBOT_OPENAI_BASE_URL":    &cfg.OpenAI.BaseURL,
		"TYPEBOT_GEMINI_API_KEY":     &cfg.Gemini.APIKey,
		"TYPEBOT_GEMINI_MODEL":       &cfg.Gemini.Model,
		"TYPEBOT_OPENROUTER_API_KEY": &cfg.OpenRouter.APIKey,
		"TYPEBOT_OPENROUTER_MODEL":   &cfg.OpenRouter.Model,
	} {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}

	if v := os.Getenv("TYPEBOT_LLM_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Timeout = d
		}
	}

	return cfg
}

// DiscoverConfig picks the first provider whose conventional API key
// variable is set, trying Gemini, OpenAI, Anthropic then OpenRouter.
func DiscoverConfig() (Config, bool) {
	cfg := DefaultConfig()

	switch {
	case os.Getenv("GEMINI_API_KEY") != "":
		cfg.Provider = ProviderGemini
		cfg.Gemini.APIKey = os.Getenv("GEMINI_API_KEY")
	case os.Getenv("OPENAI_API_KEY") != "":
		cfg.Provider = ProviderOpenAI
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	case os.Getenv("ANTHROPIC_API_KEY") != "":
		cfg.Provider = ProviderAnthropic
		cfg.Anthropic.APIKey = os.Getenv("ANTHROPIC_API_KEY")
	case os.Getenv("OPENROUTER_API_KEY") != "":
		cfg.Provider = ProviderOpenRouter
		cfg.OpenRouter.APIKey = os.Getenv("OPENROUTER_API_KEY")
	default:
		return Config{}, false
	}
	return cfg, true
}

// HasKey reports whether the selected provider has credentials.
func (c Config) HasKey() bool {
	return c.Validate() == nil
}

// Validate checks that the selected provider has its API key.
func (c Config) Validate() error {
	var key, env string
	switch c.Provider {
	case ProviderAnthropic:
		key, env = c.Anthropic.APIKey, "TYPEBOT_ANTHROPIC_API_KEY"
	case ProviderOpenAI:
		key, env = c.OpenAI.APIKey, "TYPEBOT_OPENAI_API_KEY"
	case ProviderGemini:
		key, env = c.Gemini.APIKey, "TYPEBOT_GEMINI_API_KEY"
	case ProviderOpenRouter:
		key, env = c.OpenRouter.APIKey, "TYPEBOT_OPENROUTER_API_KEY"
	case ProviderMock:
		return nil
	default:
		return fmt.Errorf("unknown LLM provider: %q", c.Provider)
	}
	if key == "" {
		return fmt.Errorf("%s is required for the %s provider", env, c.Provider)
	}
	return nil
}
