// Package session runs typing tests: it reveals prompts, scores answers,
// drives training countdowns and finalizes results. Every mutation of a
// test happens while the owning chat's outbound lock is held.
package session

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/outbox"
	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/store"
)

var (
	// ErrBusy is returned when another handler holds the chat lock. The
	// event is dropped.
	ErrBusy = errors.New("chat is busy")

	// ErrNoActiveTest is returned when the user has no test.
	ErrNoActiveTest = store.ErrNoActiveTest

	// ErrTestInProgress is returned when starting over a live test.
	ErrTestInProgress = store.ErrTestInProgress

	// ErrNoQuestion is returned for an answer with no prompt outstanding.
	ErrNoQuestion = errors.New("no outstanding question")

	// ErrStale is returned for an answer that arrives too late.
	ErrStale = errors.New("question expired")

	// ErrNoResults is returned when a test ends without a scored answer.
	ErrNoResults = errors.New("test finished without results")
)

// nextWords are the accepted spellings of "next", including common
// autocorrect artifacts.
var nextWords = []string{"next", "nex", "newt", "nexr", "nxt", "n'est", "n'est'", "'est"}

// IsNext reports whether text asks for the next prompt.
func IsNext(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	t = strings.NewReplacer("’", "'", "‘", "'").Replace(t)
	return slices.Contains(nextWords, t)
}

// Filler chooses the text of a placeholder slot.
type Filler interface {
	Fill(ctx context.Context) (string, prompt.Type)
}

// Config tunes test sizes and timing.
type Config struct {
	PrecisionPrompts int
	SpeedPrompts     int
	CustomPrompts    int

	// StaleAfter is how long an answer is accepted after its prompt.
	StaleAfter time.Duration

	// Tick is the countdown refresh interval.
	Tick time.Duration
}

// DefaultConfig returns ten prompts per test, a 30s answer window and a
// one second countdown.
func DefaultConfig() Config {
	return Config{
		PrecisionPrompts: 10,
		SpeedPrompts:     10,
		CustomPrompts:    10,
		StaleAfter:       30 * time.Second,
		Tick:             time.Second,
	}
}

// Engine is the test state machine.
type Engine struct {
	repos  store.Repos
	out    chat.Transport
	locks  *outbox.Locks
	filler Filler
	words  *prompt.Generator
	events store.EventRepo
	cfg    Config
	now    func() time.Time
}

// Option customizes an Engine.
type Option func(*Engine)

// WithEvents records finished tests in repo.
func WithEvents(repo store.EventRepo) Option {
	return func(e *Engine) { e.events = repo }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithConfig replaces DefaultConfig.
func WithConfig(cfg Config) Option {
	return func(e *Engine) { e.cfg = cfg }
}

// New returns an Engine. words draws precision prompts and filler resolves
// speed slots.
func New(repos store.Repos, out chat.Transport, locks *outbox.Locks, words *prompt.Generator, filler Filler, opts ...Option) *Engine {
	e := &Engine{
		repos:  repos,
		out:    out,
		locks:  locks,
		filler: filler,
		words:  words,
		cfg:    DefaultConfig(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle routes free text from a user: a "next" variant reveals the next
// prompt, anything else is an answer.
func (e *Engine) Handle(ctx context.Context, chatID, userID int64, text string) error {
	if IsNext(text) {
		return e.Next(ctx, chatID, userID)
	}
	return e.Respond(ctx, chatID, userID, text)
}

func (e *Engine) send(ctx context.Context, chatID int64, text string) (int, error) {
	id, err := e.out.Send(ctx, chatID, chat.Text(text))
	if err != nil {
		logSendError(err, chatID)
	}
	return id, err
}
