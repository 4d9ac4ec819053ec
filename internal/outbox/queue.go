package outbox

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/metrics"
)

// ErrDuplicate is returned when an identical message is already queued for
// the chat.
var ErrDuplicate = errors.New("message already queued")

// Sender delivers a message to a chat.
type Sender interface {
	Send(ctx context.Context, chatID int64, msg chat.Message) (int, error)
}

// QueueConfig tunes the drain loop.
type QueueConfig struct {
	// MaxPerChat bounds each chat's queue; the oldest entry is evicted.
	MaxPerChat int

	// Interval is the drain tick.
	Interval time.Duration

	// Dwell is how long a message waits before it may be sent, so that
	// bursts are batched.
	Dwell time.Duration

	// MaxAge is how long a failing message keeps being retried.
	MaxAge time.Duration
}

// DefaultQueueConfig returns the standard tuning.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxPerChat: 10,
		Interval:   500 * time.Millisecond,
		Dwell:      100 * time.Millisecond,
		MaxAge:     3 * time.Second,
	}
}

type item struct {
	msg      chat.Message
	queuedAt time.Time
}

// Queue is a per-chat FIFO of outbound messages drained in the background.
// A chat's head is only sent while that chat's lock is free, so queued
// messages never interleave with a live handler.
type Queue struct {
	mu      sync.Mutex
	pending map[int64][]*item
	locks   *Locks
	sender  Sender
	cfg     QueueConfig
	now     func() time.Time
}

// NewQueue returns a Queue sending through sender and honoring locks.
func NewQueue(sender Sender, locks *Locks, cfg QueueConfig) *Queue {
	return &Queue{
		pending: make(map[int64][]*item),
		locks:   locks,
		sender:  sender,
		cfg:     cfg,
		now:     time.Now,
	}
}

// Push enqueues msg for chatID.
func (q *Queue) Push(chatID int64, msg chat.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	items := q.pending[chatID]
	for _, it := range items {
		if it.msg.Equal(msg) {
			metrics.OutboxMessages.WithLabelValues("duplicate").Inc()
			return ErrDuplicate
		}
	}
	items = append(items, &item{msg: msg, queuedAt: q.now()})
	if over := len(items) - q.cfg.MaxPerChat; q.cfg.MaxPerChat > 0 && over > 0 {
		metrics.OutboxMessages.WithLabelValues("evicted").Add(float64(over))
		items = items[over:]
	}
	q.pending[chatID] = items
	return nil
}

// Len returns the number of messages queued for chatID.
func (q *Queue) Len(chatID int64) int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending[chatID])
}

// Drain makes one pass over every chat, sending at most one message each.
func (q *Queue) Drain(ctx context.Context) {
	q.mu.Lock()
	heads := make(map[int64]*item, len(q.pending))
	for chatID, items := range q.pending {
		if len(items) > 0 {
			heads[chatID] = items[0]
		}
	}
	q.mu.Unlock()

	for chatID, head := range heads {
		if q.now().Sub(head.queuedAt) < q.cfg.Dwell {
			continue
		}
		if !q.locks.TryAcquire(chatID) {
			continue
		}
		_, err := q.sender.Send(ctx, chatID, head.msg)
		q.locks.Release(chatID)

		switch {
		case err == nil:
			metrics.OutboxMessages.WithLabelValues("sent").Inc()
			q.remove(chatID, head)
		case q.now().Sub(head.queuedAt) > q.cfg.MaxAge:
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("dropping queued message")
			metrics.OutboxMessages.WithLabelValues("dropped").Inc()
			q.remove(chatID, head)
		default:
			log.Debug().Err(err).Int64("chat_id", chatID).Msg("queued message send failed, will retry")
		}
	}
}

func (q *Queue) remove(chatID int64, target *item) {
	q.mu.Lock()
	defer q.mu.Unlock()
	items := q.pending[chatID]
	for i, it := range items {
		if it == target {
			items = append(items[:i], items[i+1:]...)
			break
		}
	}
	if len(items) == 0 {
		delete(q.pending, chatID)
		return
	}
	q.pending[chatID] = items
}

// Run drains the queue every Interval until ctx is done.
func (q *Queue) Run(ctx context.Context) {
	ticker := time.NewTicker(q.cfg.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			q.Drain(ctx)
		}
	}
}
