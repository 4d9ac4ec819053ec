package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"
)

func newTestOpenAIProvider(t *testing.T, handler http.HandlerFunc) *OpenAIProvider {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	config := openai.DefaultConfig("test-key")
	config.BaseURL = server.URL + "/v1"
	return &OpenAIProvider{client: openai.NewClientWithConfig(config), model: "gpt-4o-mini"}
}

func openAICompletion(content, finish string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-test",
			"object":  "chat.completion",
			"created": 1234567890,
			"model":   "gpt-4o-mini",
			"choices": []map[string]any{{
				"index":         0,
				"message":       map[string]any{"role": "assistant", "content": content},
				"finish_reason": finish,
			}},
			"usage": map[string]any{"prompt_tokens": 40, "completion_tokens": 10, "total_tokens": 50},
		})
	}
}

func TestOpenAIProvider_Phrase(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion(`{"phrase":"Le temps est beau"}`, "stop"))

	req := UserPrompt("Réponds en français.", "Générer une phrase simple")
	req.Schema = phraseTestSchema()
	resp, err := p.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Usage.InputTokens != 40 || resp.Usage.OutputTokens != 10 || resp.StopReason != "end" {
		t.Fatalf("unexpected response %+v", resp)
	}
}

func TestOpenAIProvider_SchemaMismatch(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion(`{"texte":"oups"}`, "stop"))

	req := UserPrompt("", "x")
	req.Schema = phraseTestSchema()
	_, err := p.Generate(context.Background(), req)
	var inv *ErrInvalidResponse
	if !errors.As(err, &inv) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestOpenAIProvider_Truncated(t *testing.T) {
	p := newTestOpenAIProvider(t, openAICompletion(`{"phrase":"Il était`, "length"))

	req := UserPrompt("", "x")
	req.Schema = phraseTestSchema()
	_, err := p.Generate(context.Background(), req)
	var maxTok *ErrMaxTokensExceeded
	if !errors.As(err, &maxTok) {
		t.Fatalf("expected ErrMaxTokensExceeded, got %v", err)
	}
}

func TestOpenAIProvider_Errors(t *testing.T) {
	status := func(code int) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(code)
			json.NewEncoder(w).Encode(map[string]any{"error": map[string]any{"type": "x", "message": "x"}})
		}
	}

	_, err := newTestOpenAIProvider(t, status(http.StatusTooManyRequests)).Generate(context.Background(), UserPrompt("", "x"))
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T (%v)", err, err)
	}

	_, err = newTestOpenAIProvider(t, status(http.StatusBadGateway)).Generate(context.Background(), UserPrompt("", "x"))
	var unavail *ErrProviderUnavailable
	if !errors.As(err, &unavail) {
		t.Fatalf("expected ErrProviderUnavailable, got %T (%v)", err, err)
	}
}
