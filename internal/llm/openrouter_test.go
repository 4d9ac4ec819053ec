package llm

import "testing"

func TestNewOpenRouterProvider(t *testing.T) {
	if _, err := NewOpenRouterProvider(OpenRouterConfig{Model: "x"}); err == nil {
		t.Fatal("expected error for empty API key")
	}

	for _, model := range []string{"google/gemini-2.0-flash-001", "gpt-4o-mini", "mistralai/mistral-small"} {
		p, err := NewOpenRouterProvider(OpenRouterConfig{APIKey: "sk-or", Model: model})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.ModelID() != model {
			t.Errorf("ModelID() = %q, want %q untouched", p.ModelID(), model)
		}
	}
}
