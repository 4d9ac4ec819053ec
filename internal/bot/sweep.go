package bot

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/outbox"
	"github.com/shirooni/typebot/internal/store"
)

// Sweep removes idle sessions, stale cooldown entries and unused chat
// locks every interval until ctx is done. Sessions owning an active test
// are kept.
func Sweep(ctx context.Context, repos store.SessionRepo, cooldown *outbox.Cooldown, locks *outbox.Locks, interval, ttl time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := repos.SweepSessions(ttl); n > 0 {
				log.Debug().Int("removed", n).Msg("idle sessions swept")
			}
			if cooldown != nil {
				cooldown.Prune()
			}
			if locks != nil {
				if n := locks.Prune(); n > 0 {
					log.Debug().Int("removed", n).Msg("idle chat locks pruned")
				}
			}
		}
	}
}
