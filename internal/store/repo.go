package store

import (
	"context"
	"errors"
	"time"

	"github.com/shirooni/typebot/internal/prompt"
)

var (
	// ErrTestInProgress is returned when starting a test while a
	// non-terminal one exists for the same user.
	ErrTestInProgress = errors.New("a test is already in progress")

	// ErrNoActiveTest is returned when no test exists for the user.
	ErrNoActiveTest = errors.New("no active test")

	// ErrCustomTextNotFound is returned for unknown custom text ids.
	ErrCustomTextNotFound = errors.New("custom text not found")

	// ErrTextTooShort is returned when submitted custom text is below
	// MinCustomTextLen characters.
	ErrTextTooShort = errors.New("custom text too short")

	// ErrNameTooLong is returned when a custom text name exceeds
	// MaxCustomNameLen characters.
	ErrNameTooLong = errors.New("custom text name too long")

	// ErrNoSentences is returned when custom text yields no prompt
	// elements.
	ErrNoSentences = errors.New("custom text has no usable sentence")

	// ErrNameEmpty is returned for blank custom text names.
	ErrNameEmpty = errors.New("custom text name empty")
)

// UserRepo manages user profiles and their stats.
type UserRepo interface {
	// Upsert merges patch into the profile for id, creating it if needed.
	// A non-nil display name always overwrites the stored one.
	Upsert(id int64, patch UserPatch) UserProfile

	// Get returns the profile for id.
	Get(id int64) (UserProfile, bool)

	// List returns every known profile.
	List() []UserProfile

	// SaveStats stores the aggregate of a finished test under the kind's
	// stats key. Best fields keep their running maximum.
	SaveStats(id int64, displayName string, kind Kind, stats ModeStats) UserProfile

	// Leaderboard ranks users by their best speed, highest first.
	Leaderboard() []LeaderboardEntry
}

// SessionRepo manages per-user sessions.
type SessionRepo interface {
	// Session returns the session for id, creating it lazily, and marks
	// it active.
	Session(id int64) *Session

	// SweepSessions removes sessions idle for longer than ttl that have
	// no active test. It returns how many were removed.
	SweepSessions(ttl time.Duration) int
}

// TestOption customizes a test at creation.
type TestOption func(*ActiveTest)

// WithChat records the chat the test is played in.
func WithChat(chatID int64) TestOption {
	return func(t *ActiveTest) { t.ChatID = chatID }
}

// WithCustomText links the test to a custom text.
func WithCustomText(id string) TestOption {
	return func(t *ActiveTest) { t.CustomTextID = id }
}

// TestRepo holds at most one active test per user.
type TestRepo interface {
	// StartTest installs a new test for id and records displayName on the
	// profile. It fails with ErrTestInProgress when a non-terminal test
	// exists; a terminal leftover is replaced.
	StartTest(id int64, kind Kind, prompts []prompt.Element, displayName string, opts ...TestOption) (*ActiveTest, error)

	// ActiveTest returns the live test for id.
	ActiveTest(id int64) (*ActiveTest, bool)

	// UpdateTestResult appends r and bumps the success count.
	UpdateTestResult(id int64, r Result) error

	// EndTest stops any countdown and removes the test only if it is
	// terminal. The test is returned either way.
	EndTest(id int64) (*ActiveTest, bool)

	// RemoveTest stops any countdown and removes the test unconditionally.
	RemoveTest(id int64) (*ActiveTest, bool)
}

// CustomTextRepo manages user-submitted texts and their rankings.
type CustomTextRepo interface {
	SaveCustomText(ownerID int64, name, raw string) (string, error)
	CustomText(id string) (CustomText, bool)
	ListCustomTexts() []CustomText
	ListUserCustomTexts(ownerID int64) []CustomText
	SaveCustomTextStat(stat CustomTextStat)
	CustomTextStats(textID string) []CustomTextStat
}

// Repos bundles every in-memory repository.
type Repos interface {
	UserRepo
	SessionRepo
	TestRepo
	CustomTextRepo
}

// LLMRequestEventData captures the data for a single LLM request event.
type LLMRequestEventData struct {
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
	RequestBody  string
	ResponseBody string
}

// TestFinishedEventData is appended when a test is finalized.
type TestFinishedEventData struct {
	UserID       int64   `json:"user_id"`
	DisplayName  string  `json:"display_name"`
	Kind         Kind    `json:"kind"`
	Prompts      int     `json:"prompts"`
	Answered     int     `json:"answered"`
	SuccessCount int     `json:"success_count"`
	AvgWPM       float64 `json:"avg_wpm"`
	AvgAccuracy  float64 `json:"avg_accuracy"`
	BestWPM      int     `json:"best_wpm"`
	BestAccuracy int     `json:"best_accuracy"`
	Rank         string  `json:"rank"`
	CustomTextID string  `json:"custom_text_id,omitempty"`
}

// EventRepo provides append access to logged events.
type EventRepo interface {
	// AppendLLMRequest records an LLM API call event.
	AppendLLMRequest(ctx context.Context, data LLMRequestEventData) error

	// AppendTestFinished records a finalized test.
	AppendTestFinished(ctx context.Context, data TestFinishedEventData) error
}

// QueryOpts configures event queries with filtering and pagination.
type QueryOpts struct {
	Limit  int       // max results (0 = unlimited)
	After  int64     // id > After
	From   time.Time // timestamp >= From
	To     time.Time // timestamp <= To
	UserID int64     // 0 = all users
}
