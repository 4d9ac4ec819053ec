package store

import (
	"strings"
	"time"

	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/scoring"
)

// Kind identifies the flavor of a test.
type Kind string

const (
	KindPrecision         Kind = "precision"
	KindSpeed             Kind = "speed"
	KindPrecisionTraining Kind = "precision_training"
	KindSpeedTraining     Kind = "speed_training"
	KindCustom            Kind = "custom"
)

const trainingSuffix = "_training"

// Training reports whether the kind is rank-calibrated training.
func (k Kind) Training() bool {
	return strings.HasSuffix(string(k), trainingSuffix)
}

// Speed reports whether the kind belongs to the speed family.
func (k Kind) Speed() bool {
	return strings.Contains(string(k), "speed")
}

// Mode returns the rank ladder used to classify this kind.
func (k Kind) Mode() scoring.Mode {
	if k.Speed() {
		return scoring.ModeSpeed
	}
	return scoring.ModePrecision
}

// StatsKey is the kind with any training suffix removed.
func (k Kind) StatsKey() string {
	return strings.TrimSuffix(string(k), trainingSuffix)
}

// ModeStats is the aggregate of the last finished test in a mode, plus
// running bests.
type ModeStats struct {
	WPM          int
	Accuracy     int
	BestWPM      int
	BestAccuracy int
	Rank         scoring.Rank
	SuccessCount int
	Total        int
	UpdatedAt    time.Time
}

// UserProfile is everything known about a user.
type UserProfile struct {
	ID           int64
	DisplayName  string
	SelectedRank scoring.Rank
	Stats        map[string]ModeStats
	CreatedAt    time.Time
}

// HasStats reports whether any test has been finished.
func (u UserProfile) HasStats() bool {
	return len(u.Stats) > 0
}

// UserPatch holds the fields to merge into a profile. Nil fields are left
// untouched.
type UserPatch struct {
	DisplayName  *string
	SelectedRank *scoring.Rank
}

// Result is the outcome of a single answered prompt.
type Result struct {
	Prompt      string
	Response    string
	Elapsed     time.Duration
	Accuracy    int
	WPM         int
	Success     bool
	ElementType prompt.Type
}

// Timer is a running countdown attached to a test.
type Timer interface {
	Stop()
}

// ActiveTest is the live state of a test in progress. Its fields are only
// mutated while the lock of ChatID is held, whichever chat the event came
// from.
type ActiveTest struct {
	ID           string
	UserID       int64
	ChatID       int64
	Kind         Kind
	Prompts      []prompt.Element
	CurrentIndex int
	StartedAt    time.Time

	// PromptStart is when the current prompt was sent; response time is
	// measured from here.
	PromptStart time.Time

	// QuestionAt is non-zero while a prompt is outstanding.
	QuestionAt time.Time

	Results      []Result
	SuccessCount int
	DisplayName  string
	TimeAllowed  time.Duration
	CustomTextID string

	// Countdown is non-nil only while a training countdown runs.
	Countdown Timer
}

// Terminal reports whether every prompt has been consumed.
func (t *ActiveTest) Terminal() bool {
	return t.CurrentIndex >= len(t.Prompts)
}

// Outstanding reports whether a prompt awaits an answer.
func (t *ActiveTest) Outstanding() bool {
	return !t.QuestionAt.IsZero()
}

// Current returns the element at the current index.
func (t *ActiveTest) Current() (prompt.Element, bool) {
	if t.Terminal() {
		return prompt.Element{}, false
	}
	return t.Prompts[t.CurrentIndex], true
}

// StopCountdown stops and clears any running countdown.
func (t *ActiveTest) StopCountdown() {
	if t.Countdown != nil {
		t.Countdown.Stop()
		t.Countdown = nil
	}
}

// CustomText is user-submitted training material.
type CustomText struct {
	ID        string
	Name      string
	OwnerID   int64
	CreatedAt time.Time
	Raw       string
	Elements  []prompt.Element
}

// CustomTextStat is a user's last recorded result on a custom text.
type CustomTextStat struct {
	TextID      string
	UserID      int64
	DisplayName string
	WPM         int
	Accuracy    int
	RecordedAt  time.Time
}

// LeaderboardEntry is one row of the global ranking.
type LeaderboardEntry struct {
	UserID       int64
	DisplayName  string
	BestWPM      int
	BestAccuracy int
}
