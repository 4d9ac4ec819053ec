package session

import (
	"context"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/scoring"
	"github.com/shirooni/typebot/internal/store"
)

// minAdjusted floors the net typing time so a very fast answer cannot
// produce an unbounded speed.
const minAdjusted = 100 * time.Millisecond

// Next reveals the prompt at the current index, or finalizes the test when
// every prompt has been consumed. A busy chat drops the request.
func (e *Engine) Next(ctx context.Context, chatID, userID int64) error {
	t, release, err := e.lockTest(userID)
	if err != nil {
		return err
	}
	defer release()

	if t.Terminal() {
		return e.finalize(ctx, t)
	}

	t.StopCountdown()

	el := t.Prompts[t.CurrentIndex]
	if t.Kind.Speed() && el.Resolve == prompt.OnReveal {
		text, typ := e.filler.Fill(ctx)
		el = el.Resolved(text, typ)
		t.Prompts[t.CurrentIndex] = el
	}

	now := e.now()
	t.PromptStart = now
	t.QuestionAt = now

	if t.Kind.Training() {
		if user, ok := e.repos.Get(userID); ok && user.SelectedRank != "" {
			t.TimeAllowed = scoring.TimeAllowed(user.SelectedRank, utf8.RuneCountInString(el.Text))
			msgID, err := e.send(ctx, chatID, countdownText(el.Text, t.TimeAllowed))
			if err == nil {
				e.startCountdown(ctx, t, chatID, msgID, el.Text)
				return nil
			}
		}
	}

	e.send(ctx, chatID, questionText(el.Text))
	return nil
}

// countdown is the Timer of a running training countdown.
type countdown struct {
	once sync.Once
	stop chan struct{}
}

func (c *countdown) Stop() {
	c.once.Do(func() { close(c.stop) })
}

// startCountdown refreshes the countdown message messageID in chatID. The
// ticks lock the chat owning t, which may differ from chatID.
func (e *Engine) startCountdown(ctx context.Context, t *store.ActiveTest, chatID int64, messageID int, text string) {
	cd := &countdown{stop: make(chan struct{})}
	t.Countdown = cd

	ctx = context.WithoutCancel(ctx)
	tick := countdownTick{
		cd:        cd,
		lockChat:  t.ChatID,
		chatID:    chatID,
		userID:    t.UserID,
		testID:    t.ID,
		messageID: messageID,
		text:      text,
	}

	go func() {
		ticker := time.NewTicker(e.cfg.Tick)
		defer ticker.Stop()
		for {
			select {
			case <-cd.stop:
				return
			case <-ticker.C:
				if e.tick(ctx, tick) {
					return
				}
			}
		}
	}()
}

type countdownTick struct {
	cd        *countdown
	lockChat  int64
	chatID    int64
	userID    int64
	testID    string
	messageID int
	text      string
}

// tick refreshes the countdown message, or expires the prompt when the
// budget is spent. It reports whether the countdown is over. A tick for a
// test that was replaced, answered or cancelled does nothing.
func (e *Engine) tick(ctx context.Context, c countdownTick) bool {
	if err := e.locks.Acquire(ctx, c.lockChat); err != nil {
		return true
	}
	defer e.locks.Release(c.lockChat)

	t, ok := e.repos.ActiveTest(c.userID)
	if !ok || t.ID != c.testID || t.Countdown != c.cd {
		return true
	}

	remaining := t.TimeAllowed - e.now().Sub(t.PromptStart)
	if remaining > 0 {
		if err := e.out.Edit(ctx, c.chatID, c.messageID, countdownText(c.text, remaining)); err != nil {
			log.Warn().Err(err).Int64("chat_id", c.chatID).Msg("countdown edit failed")
		}
		return false
	}

	t.StopCountdown()
	t.CurrentIndex++
	t.QuestionAt = time.Time{}
	metrics.PromptTimeouts.Inc()
	log.Debug().Int64("user_id", c.userID).Int("index", t.CurrentIndex).Msg("prompt timed out")

	if err := e.out.Edit(ctx, c.chatID, c.messageID, expiredText(c.text)); err != nil {
		log.Warn().Err(err).Int64("chat_id", c.chatID).Msg("countdown edit failed")
	}
	e.send(ctx, c.chatID, msgContinue)
	return true
}

// Respond scores text against the outstanding prompt. Answers without an
// outstanding prompt, stale answers and answers to a busy chat are
// ignored.
func (e *Engine) Respond(ctx context.Context, chatID, userID int64, text string) error {
	t, release, err := e.lockTest(userID)
	if err != nil {
		return err
	}
	defer release()

	el, ok := t.Current()
	if !ok || !t.Outstanding() {
		return ErrNoQuestion
	}

	now := e.now()
	if now.Sub(t.QuestionAt) > e.answerWindow(t) {
		metrics.EventsDropped.WithLabelValues("stale").Inc()
		return ErrStale
	}

	t.StopCountdown()

	elapsed := now.Sub(t.PromptStart)
	adjusted := max(elapsed-scoring.Allowance, minAdjusted)

	r := store.Result{
		Prompt:      el.Text,
		Response:    text,
		Elapsed:     elapsed,
		Accuracy:    scoring.Accuracy(el.Text, text),
		WPM:         scoring.WPM(text, adjusted.Seconds()),
		ElementType: el.Type,
	}
	v := Judge(t.Kind, r.Accuracy, r.WPM, elapsed, t.TimeAllowed)
	r.Success = v.Success

	if err := e.repos.UpdateTestResult(userID, r); err != nil {
		return err
	}
	metrics.PromptsScored.WithLabelValues(string(t.Kind), v.Outcome).Inc()
	metrics.ResponseSeconds.WithLabelValues(string(t.Kind)).Observe(elapsed.Seconds())

	e.send(ctx, chatID, resultText(r, adjusted, v.Message))

	t.CurrentIndex++
	t.QuestionAt = time.Time{}
	if t.Terminal() {
		return e.finalize(ctx, t)
	}
	return nil
}

// lockTest takes the lock of the chat owning the user's test without
// waiting. The same test may be driven from several chats, so the lock
// follows the test and not the chat of the event.
func (e *Engine) lockTest(userID int64) (*store.ActiveTest, func(), error) {
	t, ok := e.repos.ActiveTest(userID)
	if !ok {
		return nil, nil, ErrNoActiveTest
	}
	if !e.locks.TryAcquire(t.ChatID) {
		metrics.EventsDropped.WithLabelValues("locked").Inc()
		return nil, nil, ErrBusy
	}
	release := func() { e.locks.Release(t.ChatID) }

	// The test may have been finalized or replaced before the lock was
	// taken.
	cur, ok := e.repos.ActiveTest(userID)
	if !ok {
		release()
		return nil, nil, ErrNoActiveTest
	}
	if cur != t {
		release()
		metrics.EventsDropped.WithLabelValues("locked").Inc()
		return nil, nil, ErrBusy
	}
	return t, release, nil
}

// answerWindow is how long after its prompt an answer is still scored. A
// training countdown longer than StaleAfter extends it.
func (e *Engine) answerWindow(t *store.ActiveTest) time.Duration {
	if t.Kind.Training() {
		return max(e.cfg.StaleAfter, t.TimeAllowed)
	}
	return e.cfg.StaleAfter
}

// Verdict is the judgement of one answer.
type Verdict struct {
	Success bool
	Message string

	// Outcome is a short label for metrics.
	Outcome string
}

// Accuracy thresholds shared by every kind.
const (
	FailAccuracy = 40
	WarnAccuracy = 70
	MinSpeedWPM  = 20
)

// Judge applies the success rules: accuracy under FailAccuracy fails,
// under WarnAccuracy passes with a warning, speed kinds need MinSpeedWPM
// and training kinds must answer within allowed.
func Judge(kind store.Kind, accuracy, wpm int, elapsed, allowed time.Duration) Verdict {
	v := Verdict{Success: true, Message: "✅ Succès!", Outcome: "success"}

	switch {
	case accuracy < FailAccuracy:
		v = Verdict{Message: "❌ Essayez encore!", Outcome: "inaccurate"}
	case accuracy < WarnAccuracy:
		v = Verdict{Success: true, Message: "✅ Succès! (Améliorez votre précision)", Outcome: "success_warn"}
	}

	if kind.Speed() && wpm < MinSpeedWPM {
		v = Verdict{Message: "❌ Vitesse insuffisante", Outcome: "slow"}
	}
	if kind.Training() && allowed > 0 && elapsed > allowed {
		v = Verdict{Message: "❌ Temps dépassé!", Outcome: "overtime"}
	}
	return v
}
