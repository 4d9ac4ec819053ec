package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/scoring"
	"github.com/shirooni/typebot/internal/store"
)

// Player identifies who starts a test and where.
type Player struct {
	ChatID      int64
	UserID      int64
	DisplayName string
}

// StartPrecision starts a precision test over random words.
func (e *Engine) StartPrecision(ctx context.Context, p Player) (*store.ActiveTest, error) {
	return e.start(ctx, p, store.KindPrecision, e.words.Words(e.cfg.PrecisionPrompts), precisionInstructions)
}

// StartSpeed starts a speed test whose slots are drawn as they are shown.
func (e *Engine) StartSpeed(ctx context.Context, p Player) (*store.ActiveTest, error) {
	return e.start(ctx, p, store.KindSpeed, e.words.Placeholders(e.cfg.SpeedPrompts), speedInstructions)
}

// StartTraining records rank as the user's level and starts a training
// test calibrated to it.
func (e *Engine) StartTraining(ctx context.Context, p Player, mode scoring.Mode, rank scoring.Rank) (*store.ActiveTest, error) {
	kind, prompts := store.KindPrecisionTraining, e.words.Words(e.cfg.PrecisionPrompts)
	if mode == scoring.ModeSpeed {
		kind, prompts = store.KindSpeedTraining, e.words.Placeholders(e.cfg.SpeedPrompts)
	}

	t, err := e.start(ctx, p, kind, prompts, trainingIntro(mode, rank))
	if err != nil {
		return nil, err
	}
	e.repos.Upsert(p.UserID, store.UserPatch{SelectedRank: &rank})
	return t, nil
}

// StartCustom starts a test over up to CustomPrompts elements of a custom
// text.
func (e *Engine) StartCustom(ctx context.Context, p Player, textID string) (*store.ActiveTest, error) {
	text, ok := e.repos.CustomText(textID)
	if !ok {
		e.send(ctx, p.ChatID, msgTextNotFound)
		return nil, fmt.Errorf("start custom test %s: %w", textID, store.ErrCustomTextNotFound)
	}

	prompts := e.words.Pick(text.Elements, e.cfg.CustomPrompts)
	return e.start(ctx, p, store.KindCustom, prompts, customInstructions(text.Name, len(prompts)),
		store.WithCustomText(text.ID))
}

func (e *Engine) start(ctx context.Context, p Player, kind store.Kind, prompts []prompt.Element, intro string, opts ...store.TestOption) (*store.ActiveTest, error) {
	opts = append([]store.TestOption{store.WithChat(p.ChatID)}, opts...)

	e.finalizeLeftover(ctx, p.UserID)

	t, err := e.repos.StartTest(p.UserID, kind, prompts, p.DisplayName, opts...)
	if errors.Is(err, store.ErrTestInProgress) {
		log.Debug().Int64("user_id", p.UserID).Str("kind", string(kind)).Msg("test already in progress")
		e.send(ctx, p.ChatID, msgInProgress)
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("start %s test: %w", kind, err)
	}

	metrics.TestsStarted.WithLabelValues(string(kind)).Inc()
	log.Info().Int64("user_id", p.UserID).Str("kind", string(kind)).Int("prompts", len(prompts)).Msg("test started")

	e.send(ctx, p.ChatID, intro)
	return t, nil
}

// finalizeLeftover reports a test whose last prompt timed out before the
// user asked for the results, so its answers still count.
func (e *Engine) finalizeLeftover(ctx context.Context, userID int64) {
	t, ok := e.repos.ActiveTest(userID)
	if !ok {
		return
	}
	if err := e.locks.Acquire(ctx, t.ChatID); err != nil {
		return
	}
	defer e.locks.Release(t.ChatID)

	cur, ok := e.repos.ActiveTest(userID)
	if !ok || cur != t || !t.Terminal() {
		return
	}
	if err := e.finalize(ctx, t); err != nil && !errors.Is(err, ErrNoResults) {
		log.Warn().Err(err).Int64("user_id", userID).Msg("failed to finalize previous test")
	}
}

// Cancel removes the user's test regardless of progress.
func (e *Engine) Cancel(ctx context.Context, chatID, userID int64) error {
	lockChat := chatID
	if t, ok := e.repos.ActiveTest(userID); ok {
		lockChat = t.ChatID
	}
	if err := e.locks.Acquire(ctx, lockChat); err != nil {
		return err
	}
	defer e.locks.Release(lockChat)

	if _, ok := e.repos.RemoveTest(userID); !ok {
		e.send(ctx, chatID, msgNothingToStop)
		return ErrNoActiveTest
	}
	log.Info().Int64("user_id", userID).Msg("test cancelled")
	e.send(ctx, chatID, msgCancelled)
	return nil
}
