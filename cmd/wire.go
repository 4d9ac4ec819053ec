package cmd

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/bot"
	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/llm"
	"github.com/shirooni/typebot/internal/outbox"
	"github.com/shirooni/typebot/internal/phrase"
	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/session"
	"github.com/shirooni/typebot/internal/store"
)

// core is the transport-independent part of the bot.
type core struct {
	bot      *bot.Bot
	repos    *store.Memory
	queue    *outbox.Queue
	cooldown *outbox.Cooldown
	locks    *outbox.Locks
}

func newCore(ctx context.Context, events store.EventRepo, out chat.Transport) *core {
	words := prompt.NewGenerator()
	repos := store.NewMemory(words)
	locks := outbox.NewLocks()

	filler := &phrase.Filler{
		Random:      words,
		Probability: cfg.LLMProbability,
		Timeout:     cfg.PhraseTimeout,
	}
	if p := newLLMProvider(ctx, events); p != nil {
		filler.Source = phrase.NewGenerator(p, words.IntN)
	}

	sc := session.DefaultConfig()
	sc.PrecisionPrompts = cfg.PrecisionPrompts
	sc.SpeedPrompts = cfg.SpeedPrompts
	engine := session.New(repos, out, locks, words, filler,
		session.WithEvents(events),
		session.WithConfig(sc),
	)

	queue := outbox.NewQueue(out, locks, outbox.DefaultQueueConfig())
	cooldown := outbox.NewCooldown(outbox.DefaultCooldown)

	b := bot.New(engine, repos, out,
		bot.Config{AdminIDs: cfg.AdminIDs, MenuPhoto: cfg.MenuPhoto},
		bot.WithQueue(queue),
		bot.WithCooldown(cooldown),
	)
	return &core{bot: b, repos: repos, queue: queue, cooldown: cooldown, locks: locks}
}

// start runs the outbox drain loop and the idle-session sweeper until ctx
// is done.
func (c *core) start(ctx context.Context) {
	go c.queue.Run(ctx)
	go bot.Sweep(ctx, c.repos, c.cooldown, c.locks, time.Minute, cfg.SessionTTL)
}

// newLLMProvider returns the configured model, or nil when none is set up.
// TYPEBOT_* variables win; otherwise the conventional API key variables
// are tried.
func newLLMProvider(ctx context.Context, events store.EventRepo) llm.Provider {
	llmCfg := llm.ConfigFromEnv()
	if !llmCfg.HasKey() {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			log.Info().Msg("no LLM provider configured, speed slots use random names")
			return nil
		}
		llmCfg = discovered
	}

	p, err := llm.NewProvider(ctx, llmCfg, events)
	if err != nil {
		log.Warn().Err(err).Msg("LLM provider unavailable, speed slots use random names")
		return nil
	}
	log.Info().Str("provider", llmCfg.Provider).Str("model", p.ModelID()).Msg("LLM provider ready")
	return p
}
