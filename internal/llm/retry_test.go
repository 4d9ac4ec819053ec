package llm

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	return RetryConfig{
		MaxAttempts: 3,
		InitialWait: time.Millisecond,
		MaxWait:     5 * time.Millisecond,
		Multiplier:  2.0,
	}
}

func down() MockResponse {
	return MockResponse{Err: &ErrProviderUnavailable{Err: errors.New("down")}}
}

func TestRetry(t *testing.T) {
	invalid := MockResponse{Err: &ErrInvalidResponse{Content: json.RawMessage(`{}`), Err: errors.New("bad")}}

	tests := []struct {
		name      string
		responses []MockResponse
		wantErr   bool
		wantCalls int
	}{
		{"first attempt", []MockResponse{MockPhrase("ok")}, false, 1},
		{"transient then success", []MockResponse{down(), MockPhrase("ok")}, false, 2},
		{"all attempts fail", []MockResponse{down(), down(), down(), MockPhrase("late")}, true, 3},
		{"max tokens not retried", []MockResponse{{Err: &ErrMaxTokensExceeded{}}, MockPhrase("ok")}, true, 1},
		{"invalid retried once", []MockResponse{invalid, invalid, MockPhrase("ok")}, true, 2},
		{"invalid then success", []MockResponse{invalid, MockPhrase("ok")}, false, 2},
		{"rate limit honours retry-after", []MockResponse{{Err: &ErrRateLimit{RetryAfter: time.Millisecond}}, MockPhrase("ok")}, false, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := NewMockProvider(tt.responses...)
			_, err := WithRetry(mock, fastRetry()).Generate(context.Background(), Request{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("Generate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if mock.CallCount() != tt.wantCalls {
				t.Fatalf("expected %d calls, got %d", tt.wantCalls, mock.CallCount())
			}
		})
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	mock := NewMockProvider(down(), MockPhrase("ok"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := WithRetry(mock, fastRetry()).Generate(ctx, Request{})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if mock.CallCount() != 1 {
		t.Fatalf("expected a single call, got %d", mock.CallCount())
	}
}

func TestRetry_ZeroAttemptsStillCalls(t *testing.T) {
	mock := NewMockProvider(MockPhrase("ok"))
	if _, err := WithRetry(mock, RetryConfig{}).Generate(context.Background(), Request{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if WithRetry(mock, RetryConfig{}).ModelID() != "mock" {
		t.Fatal("ModelID should delegate")
	}
}

func TestRetry_BackoffCapped(t *testing.T) {
	r := &RetryProvider{config: RetryConfig{InitialWait: time.Second, MaxWait: 2 * time.Second, Multiplier: 10}}
	for attempt := range 4 {
		if d := r.backoff(attempt, errors.New("x")); d > 2400*time.Millisecond {
			t.Fatalf("attempt %d: backoff %s exceeds cap plus jitter", attempt, d)
		}
	}
}
