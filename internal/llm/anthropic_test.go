package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

func newTestAnthropicProvider(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client := anthropic.NewClient(
		option.WithAPIKey("test-key"),
		option.WithBaseURL(server.URL),
		option.WithMaxRetries(0),
	)
	return &AnthropicProvider{client: &client, model: "claude-haiku-4-5-20251001"}
}

func anthropicError(status int, kind string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(map[string]any{
			"type":  "error",
			"error": map[string]any{"type": kind, "message": kind},
		})
	}
}

func TestAnthropicProvider_Phrase(t *testing.T) {
	var gotBody map[string]any
	p := newTestAnthropicProvider(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&gotBody)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"content":     []map[string]any{{"type": "text", "text": `{"phrase":"Qui vivra verra"}`}},
			"model":       "claude-haiku-4-5-20251001",
			"stop_reason": "end_turn",
			"usage":       map[string]any{"input_tokens": 30, "output_tokens": 9},
		})
	})

	req := UserPrompt("Réponds en français.", "Donner un proverbe au hasard")
	req.Schema = phraseTestSchema()
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Content) != `{"phrase":"Qui vivra verra"}` {
		t.Fatalf("unexpected content %s", resp.Content)
	}
	if resp.Usage.TotalTokens != 39 || resp.StopReason != "end" {
		t.Fatalf("unexpected response %+v", resp)
	}
	if gotBody["max_tokens"] != float64(defaultMaxTokens) {
		t.Fatalf("expected default max_tokens, got %v", gotBody["max_tokens"])
	}
}

func TestAnthropicProvider_Errors(t *testing.T) {
	p := newTestAnthropicProvider(t, anthropicError(http.StatusTooManyRequests, "rate_limit_error"))
	_, err := p.Generate(context.Background(), UserPrompt("", "x"))
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}

	p = newTestAnthropicProvider(t, anthropicError(http.StatusInternalServerError, "api_error"))
	_, err = p.Generate(context.Background(), UserPrompt("", "x"))
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T (%v)", err, err)
	}
}

func TestResolveModel(t *testing.T) {
	tests := []struct {
		models map[string]string
		in     string
		want   string
	}{
		{anthropicModels, "claude-haiku", "claude-haiku-4-5-20251001"},
		{anthropicModels, "claude-3-5-haiku-latest", "claude-3-5-haiku-latest"},
		{openaiModels, "gpt-4o-mini", "gpt-4o-mini"},
		{geminiModels, "gemini-flash", "gemini-2.5-flash"},
		{geminiModels, "gemini-2.0-flash", "gemini-2.0-flash"},
	}
	for _, tt := range tests {
		if got := resolveModel(tt.in, tt.models); got != tt.want {
			t.Errorf("resolveModel(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
