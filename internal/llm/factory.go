package llm

import (
	"context"
	"fmt"

	"github.com/shirooni/typebot/internal/store"
)

// NewProvider builds the configured provider wrapped as
// retry -> logging -> provider, so every attempt is recorded.
func NewProvider(ctx context.Context, cfg Config, events store.EventRepo) (Provider, error) {
	var (
		base Provider
		err  error
	)

	switch cfg.Provider {
	case ProviderAnthropic:
		base, err = NewAnthropicProvider(cfg.Anthropic)
	case ProviderOpenAI:
		base, err = NewOpenAIProvider(cfg.OpenAI)
	case ProviderGemini:
		base, err = NewGeminiProvider(ctx, cfg.Gemini)
	case ProviderOpenRouter:
		base, err = NewOpenRouterProvider(cfg.OpenRouter)
	case ProviderMock:
		base = NewMockProvider()
	default:
		return nil, fmt.Errorf("unknown LLM provider: %q", cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("initializing %s provider: %w", cfg.Provider, err)
	}

	return WithRetry(WithLogging(base, events), cfg.Retry), nil
}
