package llm

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/shirooni/typebot/internal/store"
)

func TestMockProvider_ReplaysInOrder(t *testing.T) {
	mock := NewMockProvider(MockPhrase("Le chat dort"), MockResponse{Content: json.RawMessage(`{"phrase":"Il pleut"}`)})

	resp, err := mock.Generate(context.Background(), UserPrompt("", "un"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"phrase":"Le chat dort"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 28 || resp.StopReason != "end" {
		t.Fatalf("unexpected response %+v", resp)
	}

	resp, err = mock.Generate(context.Background(), UserPrompt("", "deux"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"phrase":"Il pleut"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}

	_, err = mock.Generate(context.Background(), Request{})
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable once drained, got %v", err)
	}
	if mock.CallCount() != 3 || mock.Calls[1].Messages[0].Content != "deux" {
		t.Fatalf("calls not recorded: %+v", mock.Calls)
	}
}

func TestMockProvider_Repeat(t *testing.T) {
	mock := NewMockProvider(MockPhrase("a"), MockPhrase("b"))
	mock.Repeat = true

	for i, want := range []string{"a", "b", "b", "b"} {
		resp, err := mock.Generate(context.Background(), Request{})
		if err != nil {
			t.Fatalf("call %d: %v", i, err)
		}
		if !strings.Contains(string(resp.Content), want) {
			t.Fatalf("call %d: got %s, want %q", i, resp.Content, want)
		}
	}
}

func TestMockProvider_CancelledContext(t *testing.T) {
	mock := NewMockProvider(MockPhrase("a"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := mock.Generate(ctx, Request{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestPurposeContext(t *testing.T) {
	ctx := context.Background()
	if p := PurposeFrom(ctx); p != "unknown" {
		t.Fatalf("expected 'unknown', got %q", p)
	}
	if p := PurposeFrom(WithPurpose(ctx, "phrase")); p != "phrase" {
		t.Fatalf("expected 'phrase', got %q", p)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"anthropic without key", Config{Provider: ProviderAnthropic}, true},
		{"anthropic with key", Config{Provider: ProviderAnthropic, Anthropic: AnthropicConfig{APIKey: "k"}}, false},
		{"openai without key", Config{Provider: ProviderOpenAI}, true},
		{"gemini with key", Config{Provider: ProviderGemini, Gemini: GeminiConfig{APIKey: "k"}}, false},
		{"openrouter without key", Config{Provider: ProviderOpenRouter}, true},
		{"mock", Config{Provider: ProviderMock}, false},
		{"unknown", Config{Provider: "bard"}, true},
		{"empty", Config{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.cfg.HasKey() == tt.wantErr {
				t.Fatalf("HasKey() disagrees with Validate()")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("TYPEBOT_LLM_PROVIDER", "openrouter")
	t.Setenv("TYPEBOT_OPENROUTER_API_KEY", "sk-or")
	t.Setenv("TYPEBOT_OPENROUTER_MODEL", "mistralai/mistral-small")
	t.Setenv("TYPEBOT_LLM_TIMEOUT", "2s")

	cfg := ConfigFromEnv()
	if cfg.Provider != ProviderOpenRouter || cfg.OpenRouter.APIKey != "sk-or" {
		t.Fatalf("unexpected config %+v", cfg)
	}
	if cfg.OpenRouter.Model != "mistralai/mistral-small" {
		t.Fatalf("model not overridden: %q", cfg.OpenRouter.Model)
	}
	if cfg.Timeout.Seconds() != 2 {
		t.Fatalf("timeout not parsed: %s", cfg.Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("expected valid config, got %v", err)
	}
}

func TestDiscoverConfig(t *testing.T) {
	for _, k := range []string{"GEMINI_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "OPENROUTER_API_KEY"} {
		t.Setenv(k, "")
	}
	if _, ok := DiscoverConfig(); ok {
		t.Fatal("expected no provider without keys")
	}

	t.Setenv("ANTHROPIC_API_KEY", "a")
	t.Setenv("OPENAI_API_KEY", "o")
	cfg, ok := DiscoverConfig()
	if !ok || cfg.Provider != ProviderOpenAI || cfg.OpenAI.APIKey != "o" {
		t.Fatalf("expected openai to win over anthropic, got %+v", cfg)
	}
}

type recordingEvents struct {
	llm []store.LLMRequestEventData
	err error
}

func (r *recordingEvents) AppendLLMRequest(_ context.Context, d store.LLMRequestEventData) error {
	r.llm = append(r.llm, d)
	return r.err
}

func (r *recordingEvents) AppendTestFinished(context.Context, store.TestFinishedEventData) error {
	return nil
}

func TestLoggingProvider_RecordsEvents(t *testing.T) {
	events := &recordingEvents{}
	mock := NewMockProvider(MockPhrase("Bonne nuit"), MockResponse{Err: errors.New("boom")})
	p := WithLogging(mock, events)

	ctx := WithPurpose(context.Background(), "phrase")
	req := UserPrompt("Réponds en français.", "Donner une expression courte")
	req.Schema = phraseTestSchema()

	if _, err := p.Generate(ctx, req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := p.Generate(ctx, req); err == nil {
		t.Fatal("expected error")
	}

	if len(events.llm) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events.llm))
	}
	ok, failed := events.llm[0], events.llm[1]
	if !ok.Success || ok.Purpose != "phrase" || ok.InputTokens != 20 || !strings.Contains(ok.ResponseBody, "Bonne nuit") {
		t.Fatalf("unexpected success event %+v", ok)
	}
	for _, want := range []string{"[system]", "[user]\nDonner une expression courte", "[schema: test-phrase]"} {
		if !strings.Contains(ok.RequestBody, want) {
			t.Fatalf("request body missing %q:\n%s", want, ok.RequestBody)
		}
	}
	if failed.Success || failed.ErrorMessage != "boom" {
		t.Fatalf("unexpected failure event %+v", failed)
	}
}

func TestLoggingProvider_ToleratesRepoErrors(t *testing.T) {
	p := WithLogging(NewMockProvider(MockPhrase("x")), &recordingEvents{err: errors.New("disk full")})
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("event log failure must not fail the request: %v", err)
	}

	p = WithLogging(NewMockProvider(MockPhrase("x")), nil)
	if _, err := p.Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("nil repo must be accepted: %v", err)
	}
}

func TestNewProvider(t *testing.T) {
	p, err := NewProvider(context.Background(), Config{Provider: ProviderMock}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.ModelID() != "mock" {
		t.Fatalf("expected mock model, got %q", p.ModelID())
	}

	if _, err := NewProvider(context.Background(), Config{Provider: ProviderOpenAI}, nil); err == nil {
		t.Fatal("expected error without API key")
	}
	if _, err := NewProvider(context.Background(), Config{Provider: "nope"}, nil); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestLookupCost(t *testing.T) {
	c := LookupCost("gpt-4o-mini")
	if c == nil {
		t.Fatal("expected pricing for gpt-4o-mini")
	}
	if got := c.Cost(1_000_000, 1_000_000); math.Abs(got-0.75) > 1e-9 {
		t.Fatalf("expected 0.75, got %v", got)
	}
	if LookupCost("unknown-model") != nil {
		t.Fatal("expected nil for unknown model")
	}
}
