// Package bot routes inbound chat events to menus, commands and the test
// engine.
package bot

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/outbox"
	"github.com/shirooni/typebot/internal/session"
	"github.com/shirooni/typebot/internal/store"
)

// Config holds the router settings.
type Config struct {
	// AdminIDs may use /user and open other users' stats.
	AdminIDs []int64

	// MenuPhoto, when set, is sent with the main menu as its caption.
	MenuPhoto string

	// LoadStep is the delay between two frames of the /start animation.
	LoadStep time.Duration
}

// Bot is the event router.
type Bot struct {
	engine   *session.Engine
	repos    store.Repos
	out      chat.Transport
	queue    *outbox.Queue
	cooldown *outbox.Cooldown
	cfg      Config
	sleep    func(ctx context.Context, d time.Duration) error
}

// Option customizes a Bot.
type Option func(*Bot)

// WithQueue routes informational messages through q instead of sending
// them directly.
func WithQueue(q *outbox.Queue) Option {
	return func(b *Bot) { b.queue = q }
}

// WithCooldown rejects repeated button presses within the cooldown window.
func WithCooldown(c *outbox.Cooldown) Option {
	return func(b *Bot) { b.cooldown = c }
}

// WithSleep replaces the wait used by the /start animation.
func WithSleep(sleep func(ctx context.Context, d time.Duration) error) Option {
	return func(b *Bot) { b.sleep = sleep }
}

// New returns a Bot.
func New(engine *session.Engine, repos store.Repos, out chat.Transport, cfg Config, opts ...Option) *Bot {
	if cfg.LoadStep <= 0 {
		cfg.LoadStep = 500 * time.Millisecond
	}
	b := &Bot{
		engine: engine,
		repos:  repos,
		out:    out,
		cfg:    cfg,
		sleep:  sleepCtx,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Handle processes one inbound event. Panics are recovered and logged so
// a single bad update never stops the bot.
func (b *Bot) Handle(ctx context.Context, ev chat.Event) {
	defer func() {
		if r := recover(); r != nil {
			metrics.Panics.Inc()
			log.Error().
				Interface("panic", r).
				Int64("chat_id", ev.ChatID).
				Str("stack", string(debug.Stack())).
				Msg("recovered from panic while handling update")
		}
	}()

	// Touch the session so idle sweeping sees the activity.
	b.repos.Session(ev.UserID)

	var err error
	switch ev.Kind {
	case chat.EventCommand:
		err = b.handleCommand(ctx, ev)
	case chat.EventCallback:
		err = b.handleCallback(ctx, ev)
	case chat.EventText:
		err = b.handleText(ctx, ev)
	}
	logOutcome(ev, err)
}

func (b *Bot) handleText(ctx context.Context, ev chat.Event) error {
	if b.repos.Session(ev.UserID).Entry() != store.EntryIdle {
		return b.handleEntry(ctx, ev)
	}
	return b.engine.Handle(ctx, ev.ChatID, ev.UserID, ev.Text)
}

// ignorable errors are expected while users type freely and are only
// logged at debug.
var ignorable = []error{
	session.ErrBusy,
	session.ErrNoActiveTest,
	session.ErrNoQuestion,
	session.ErrStale,
	session.ErrTestInProgress,
	errCooldown,
}

func logOutcome(ev chat.Event, err error) {
	if err == nil {
		return
	}
	level := zerolog.WarnLevel
	if slices.ContainsFunc(ignorable, func(target error) bool { return errors.Is(err, target) }) {
		level = zerolog.DebugLevel
	}
	log.WithLevel(level).Err(err).
		Int64("chat_id", ev.ChatID).
		Int64("user_id", ev.UserID).
		Str("kind", eventKindName(ev.Kind)).
		Msg("update not handled")
}

func eventKindName(k chat.EventKind) string {
	switch k {
	case chat.EventCommand:
		return "command"
	case chat.EventCallback:
		return "callback"
	default:
		return "text"
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return slices.Contains(b.cfg.AdminIDs, userID)
}

// player builds the test owner for ev, asking the transport for a name
// when the event carries none.
func (b *Bot) player(ctx context.Context, ev chat.Event) session.Player {
	name := ev.DisplayName
	if name == "" {
		if info, err := b.out.ChatInfo(ctx, ev.ChatID); err == nil {
			name = info.DisplayName
			if name == "" {
				name = info.Username
			}
		}
	}
	if name == "" {
		name = fmt.Sprintf("User_%d", ev.UserID)
	}
	return session.Player{ChatID: ev.ChatID, UserID: ev.UserID, DisplayName: name}
}

// send delivers msg now. Failures are logged and returned.
func (b *Bot) send(ctx context.Context, chatID int64, msg chat.Message) error {
	if _, err := b.out.Send(ctx, chatID, msg); err != nil {
		log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
		return err
	}
	return nil
}

// post delivers an informational message through the queue when one is
// configured. A message identical to one already waiting is dropped.
func (b *Bot) post(ctx context.Context, chatID int64, msg chat.Message) error {
	if b.queue == nil {
		return b.send(ctx, chatID, msg)
	}
	if err := b.queue.Push(chatID, msg); err != nil && !errors.Is(err, outbox.ErrDuplicate) {
		return err
	}
	return nil
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
