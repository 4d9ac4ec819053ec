package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestLog(t *testing.T) *EventLog {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "events.db"))
	if err != nil {
		t.Fatalf("open test log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestPragmasApplied(t *testing.T) {
	l := openTestLog(t)

	tests := []struct {
		pragma string
		want   string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL = 1
		{"busy_timeout", "5000"},
	}

	for _, tt := range tests {
		var got string
		if err := l.DB().QueryRow("PRAGMA " + tt.pragma).Scan(&got); err != nil {
			t.Errorf("PRAGMA %s: %v", tt.pragma, err)
			continue
		}
		if got != tt.want {
			t.Errorf("PRAGMA %s = %q, want %q", tt.pragma, got, tt.want)
		}
	}
}

func TestLLMEvents_AppendQueryGet(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for i, purpose := range []string{"phrase", "phrase", "preview"} {
		errMsg := ""
		if i == 1 {
			errMsg = "boom"
		}
		err := l.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider:     "gemini",
			Model:        "gemini-2.0-flash",
			Purpose:      purpose,
			InputTokens:  10 + i,
			OutputTokens: 5,
			LatencyMs:    100,
			Success:      i != 1,
			ErrorMessage: errMsg,
			RequestBody:  "[user]\nGénérer une phrase simple",
		})
		if err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	events, err := l.QueryLLMEvents(ctx, QueryOpts{Limit: 2})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	if events[0].Purpose != "preview" {
		t.Errorf("newest purpose = %q, want preview", events[0].Purpose)
	}
	if events[1].Success {
		t.Errorf("second newest should be a failure")
	}
	if events[1].ErrorMessage != "boom" {
		t.Errorf("error message = %q", events[1].ErrorMessage)
	}

	e, err := l.GetLLMEvent(ctx, events[0].ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if e == nil || e.RequestBody == "" {
		t.Fatalf("expected request body to round-trip, got %+v", e)
	}

	missing, err := l.GetLLMEvent(ctx, 9999)
	if err != nil || missing != nil {
		t.Fatalf("missing event: got %v, %v", missing, err)
	}
}

func TestLLMUsageBy(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	for _, ok := range []bool{true, false, true} {
		if err := l.AppendLLMRequest(ctx, LLMRequestEventData{
			Provider: "mock", Model: "mock", Purpose: "phrase",
			InputTokens: 3, OutputTokens: 2, LatencyMs: 30, Success: ok,
		}); err != nil {
			t.Fatalf("append: %v", err)
		}
	}

	usage, err := l.LLMUsageBy(ctx, "purpose")
	if err != nil {
		t.Fatalf("usage: %v", err)
	}
	if len(usage) != 1 {
		t.Fatalf("got %d groups, want 1", len(usage))
	}
	u := usage[0]
	if u.Key != "phrase" || u.Calls != 3 || u.Failures != 1 || u.InputTokens != 9 || u.OutputTokens != 6 || u.AvgLatencyMs != 30 {
		t.Errorf("unexpected usage %+v", u)
	}

	if _, err := l.LLMUsageBy(ctx, "request_body"); err == nil {
		t.Error("expected error for unsupported grouping")
	}
}

func TestTestEvents_RoundTrip(t *testing.T) {
	l := openTestLog(t)
	ctx := context.Background()

	data := TestFinishedEventData{
		UserID: 42, DisplayName: "Gun", Kind: KindSpeedTraining,
		Prompts: 10, Answered: 9, SuccessCount: 7,
		AvgWPM: 55.5, AvgAccuracy: 91, BestWPM: 70, BestAccuracy: 100, Rank: "A-",
	}
	if err := l.AppendTestFinished(ctx, data); err != nil {
		t.Fatalf("append: %v", err)
	}
	if err := l.AppendTestFinished(ctx, TestFinishedEventData{UserID: 7, Kind: KindPrecision}); err != nil {
		t.Fatalf("append: %v", err)
	}

	events, err := l.QueryTestEvents(ctx, QueryOpts{UserID: 42, From: time.Now().Add(-time.Minute)})
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1", len(events))
	}
	if events[0].TestFinishedEventData != data {
		t.Errorf("payload mismatch:\n got %+v\nwant %+v", events[0].TestFinishedEventData, data)
	}
}
