package telegram

import (
	"context"
	"errors"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
)

// Handler consumes inbound events.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event)
}

// PollConfig tunes the long-polling loop.
type PollConfig struct {
	// Timeout is the long-poll wait in seconds.
	Timeout int

	// Backoff is the first wait after a failed poll. It doubles on each
	// consecutive failure up to MaxBackoff.
	Backoff    time.Duration
	MaxBackoff time.Duration
}

// DefaultPollConfig returns a 30 second long poll with a 1s to 30s
// backoff.
func DefaultPollConfig() PollConfig {
	return PollConfig{
		Timeout:    30,
		Backoff:    time.Second,
		MaxBackoff: 30 * time.Second,
	}
}

// Poll fetches updates until ctx is done and hands them to h. Updates of
// one chat are handled in arrival order; different chats run concurrently.
// A conflict with another poller of the same token backs off and retries;
// it is not fatal.
func Poll(ctx context.Context, client Client, h Handler, cfg PollConfig) error {
	d := newDispatcher(ctx, h)
	defer d.wait()

	offset := 0
	failures := 0
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		u := tgbotapi.NewUpdate(offset)
		u.Timeout = cfg.Timeout
		updates, err := client.GetUpdates(u)
		if err != nil {
			failures++
			wait := backoff(cfg, failures, err)
			logPollError(err, wait)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
			continue
		}
		failures = 0

		for _, upd := range updates {
			if upd.UpdateID >= offset {
				offset = upd.UpdateID + 1
			}
			ev, ok := Convert(upd)
			if !ok {
				continue
			}
			d.dispatch(ev)
		}
	}
}

// dispatcher runs at most one handler per chat. Events queue behind the
// one being handled and a chat's worker exits once its queue is empty.
type dispatcher struct {
	ctx context.Context
	h   Handler
	wg  sync.WaitGroup

	mu     sync.Mutex
	queues map[int64][]chat.Event
}

func newDispatcher(ctx context.Context, h Handler) *dispatcher {
	return &dispatcher{ctx: ctx, h: h, queues: make(map[int64][]chat.Event)}
}

func (d *dispatcher) dispatch(ev chat.Event) {
	d.mu.Lock()
	q, running := d.queues[ev.ChatID]
	d.queues[ev.ChatID] = append(q, ev)
	d.mu.Unlock()
	if running {
		return
	}

	d.wg.Add(1)
	go d.drain(ev.ChatID)
}

func (d *dispatcher) drain(chatID int64) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		q := d.queues[chatID]
		if len(q) == 0 {
			delete(d.queues, chatID)
			d.mu.Unlock()
			return
		}
		ev := q[0]
		d.queues[chatID] = q[1:]
		d.mu.Unlock()

		d.h.Handle(d.ctx, ev)
	}
}

func (d *dispatcher) wait() { d.wg.Wait() }

// backoff doubles the base wait per failure with up to 20% jitter. A
// rate limit with a retry hint waits at least that long.
func backoff(cfg PollConfig, failures int, err error) time.Duration {
	wait := cfg.Backoff
	for i := 1; i < failures && wait < cfg.MaxBackoff; i++ {
		wait *= 2
	}
	wait = min(wait, cfg.MaxBackoff)
	if wait > 0 {
		wait += time.Duration(rand.Int64N(int64(wait)/5 + 1))
	}

	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		wait = max(wait, time.Duration(apiErr.RetryAfter)*time.Second)
	}
	return wait
}

func isConflict(err error) bool {
	var apiErr *tgbotapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusConflict
}

func logPollError(err error, wait time.Duration) {
	if isConflict(err) {
		log.Warn().Err(err).Dur("backoff", wait).Msg("another instance is polling this bot token")
		return
	}
	log.Warn().Err(err).Dur("backoff", wait).Msg("get updates failed")
}

// Convert maps an update to a chat event. Updates the bot does not react
// to report false.
func Convert(upd tgbotapi.Update) (chat.Event, bool) {
	switch {
	case upd.CallbackQuery != nil:
		q := upd.CallbackQuery
		if q.Message == nil || q.Message.Chat == nil || q.From == nil {
			return chat.Event{}, false
		}
		return chat.Event{
			Kind:        chat.EventCallback,
			ChatID:      q.Message.Chat.ID,
			UserID:      q.From.ID,
			DisplayName: displayName(q.From),
			CallbackID:  q.ID,
			Data:        q.Data,
			MessageID:   q.Message.MessageID,
		}, true

	case upd.Message != nil:
		m := upd.Message
		if m.Chat == nil || m.From == nil || m.Text == "" {
			return chat.Event{}, false
		}
		ev := chat.Event{
			Kind:        chat.EventText,
			ChatID:      m.Chat.ID,
			UserID:      m.From.ID,
			DisplayName: displayName(m.From),
			Text:        m.Text,
			MessageID:   m.MessageID,
		}
		if m.IsCommand() {
			ev.Kind = chat.EventCommand
			ev.Command = m.Command()
			ev.Args = m.CommandArguments()
		}
		return ev, true
	}
	return chat.Event{}, false
}

func displayName(u *tgbotapi.User) string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.UserName
}
