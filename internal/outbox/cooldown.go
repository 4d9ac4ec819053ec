package outbox

import (
	"fmt"
	"sync"
	"time"
)

// DefaultCooldown is the minimum spacing between identical actions.
const DefaultCooldown = time.Second

// Cooldown rejects an action repeated for the same chat within a window.
type Cooldown struct {
	mu     sync.Mutex
	window time.Duration
	last   map[string]time.Time
	now    func() time.Time
}

// NewCooldown returns a Cooldown with the given window.
func NewCooldown(window time.Duration) *Cooldown {
	return &Cooldown{window: window, last: make(map[string]time.Time), now: time.Now}
}

// Allow records the action and reports whether it may proceed.
func (c *Cooldown) Allow(chatID int64, kind string) bool {
	key := fmt.Sprintf("%d_%s", chatID, kind)

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	if last, ok := c.last[key]; ok && now.Sub(last) < c.window {
		return false
	}
	c.last[key] = now
	return true
}

// Prune forgets actions older than the window.
func (c *Cooldown) Prune() {
	c.mu.Lock()
	defer c.mu.Unlock()
	cutoff := c.now().Add(-c.window)
	for k, t := range c.last {
		if t.Before(cutoff) {
			delete(c.last, k)
		}
	}
}
