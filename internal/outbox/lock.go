// Package outbox coordinates outbound traffic per chat: a mutual-exclusion
// lock, a de-duplicating send queue and per-action cooldowns.
package outbox

import (
	"context"
	"sync"
)

// Locks is a set of per-chat locks. At most one holder per chat id exists
// at any instant.
type Locks struct {
	mu    sync.Mutex
	slots map[int64]*slot
}

// slot is the lock of one chat. waiters counts Acquire calls blocked on
// ch; a slot is only pruned when it is free and nobody waits on it.
type slot struct {
	ch      chan struct{}
	waiters int
}

// NewLocks returns an empty lock set.
func NewLocks() *Locks {
	return &Locks{slots: make(map[int64]*slot)}
}

// slotLocked returns the slot for chatID, creating it. l.mu must be held.
func (l *Locks) slotLocked(chatID int64) *slot {
	s, ok := l.slots[chatID]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		l.slots[chatID] = s
	}
	return s
}

// TryAcquire takes the lock for chatID if it is free.
func (l *Locks) TryAcquire(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	select {
	case l.slotLocked(chatID).ch <- struct{}{}:
		return true
	default:
		return false
	}
}

// Acquire waits for the lock for chatID or for ctx to end.
func (l *Locks) Acquire(ctx context.Context, chatID int64) error {
	l.mu.Lock()
	s := l.slotLocked(chatID)
	s.waiters++
	l.mu.Unlock()

	defer func() {
		l.mu.Lock()
		s.waiters--
		l.mu.Unlock()
	}()

	select {
	case s.ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the lock for chatID. Releasing a free lock is a no-op.
func (l *Locks) Release(chatID int64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[chatID]
	if !ok {
		return
	}
	select {
	case <-s.ch:
	default:
	}
}

// Held reports whether the lock for chatID is currently taken.
func (l *Locks) Held(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	s, ok := l.slots[chatID]
	return ok && len(s.ch) > 0
}

// Prune forgets the locks of chats that are free and awaited by nobody.
// It returns how many were removed.
func (l *Locks) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	removed := 0
	for id, s := range l.slots {
		if len(s.ch) == 0 && s.waiters == 0 {
			delete(l.slots, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of chats with a lock slot.
func (l *Locks) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.slots)
}

// TryDo runs fn while holding the lock for chatID. It returns false
// without running fn when the lock is taken. The lock is released even if
// fn panics.
func (l *Locks) TryDo(chatID int64, fn func()) bool {
	if !l.TryAcquire(chatID) {
		return false
	}
	defer l.Release(chatID)
	fn()
	return true
}

// Do waits for the lock for chatID and runs fn while holding it.
func (l *Locks) Do(ctx context.Context, chatID int64, fn func()) error {
	if err := l.Acquire(ctx, chatID); err != nil {
		return err
	}
	defer l.Release(chatID)
	fn()
	return nil
}
