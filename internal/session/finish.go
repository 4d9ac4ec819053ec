package session

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/store"
)

// finalize ends a terminal test: it stores the aggregate, reports it and
// removes the test. A test without results is removed without touching
// stats. The caller holds the chat lock.
func (e *Engine) finalize(ctx context.Context, t *store.ActiveTest) error {
	e.repos.EndTest(t.UserID)
	e.send(ctx, t.ChatID, msgAnalysing)

	s, ok := Summarize(t)
	if !ok {
		log.Warn().Int64("user_id", t.UserID).Str("kind", string(t.Kind)).Msg("test finished without results")
		metrics.TestsFinished.WithLabelValues(string(t.Kind), "none").Inc()
		e.send(ctx, t.ChatID, msgAnalysisError)
		return ErrNoResults
	}

	var textName string
	var position, entrants int
	if t.Kind == store.KindCustom {
		textName, position, entrants = e.recordCustom(t, s)
	} else {
		e.repos.SaveStats(t.UserID, t.DisplayName, t.Kind, s.ModeStats())
	}

	e.send(ctx, t.ChatID, summaryText(t, s, textName, position, entrants))

	metrics.TestsFinished.WithLabelValues(string(t.Kind), string(s.Rank)).Inc()
	log.Info().Int64("user_id", t.UserID).Str("kind", string(t.Kind)).
		Int("wpm", s.WPM).Int("accuracy", s.Accuracy).Str("rank", string(s.Rank)).
		Msg("test finished")

	if e.events != nil {
		err := e.events.AppendTestFinished(ctx, store.TestFinishedEventData{
			UserID:       t.UserID,
			DisplayName:  t.DisplayName,
			Kind:         t.Kind,
			Prompts:      s.Total,
			Answered:     s.Answered,
			SuccessCount: s.SuccessCount,
			AvgWPM:       s.AvgWPM,
			AvgAccuracy:  s.AvgAccuracy,
			BestWPM:      s.BestWPM,
			BestAccuracy: s.BestAccuracy,
			Rank:         string(s.Rank),
			CustomTextID: t.CustomTextID,
		})
		if err != nil {
			log.Warn().Err(err).Msg("failed to record finished test")
		}
	}
	return nil
}

// recordCustom stores the user's result on a custom text and returns the
// text name with the user's place on its board.
func (e *Engine) recordCustom(t *store.ActiveTest, s Summary) (name string, position, entrants int) {
	e.repos.SaveCustomTextStat(store.CustomTextStat{
		TextID:      t.CustomTextID,
		UserID:      t.UserID,
		DisplayName: t.DisplayName,
		WPM:         s.WPM,
		Accuracy:    s.Accuracy,
		RecordedAt:  e.now(),
	})

	if text, ok := e.repos.CustomText(t.CustomTextID); ok {
		name = text.Name
	}
	board := e.repos.CustomTextStats(t.CustomTextID)
	for i, st := range board {
		if st.UserID == t.UserID {
			position = i + 1
		}
	}
	return name, position, len(board)
}

func logSendError(err error, chatID int64) {
	log.Warn().Err(err).Int64("chat_id", chatID).Msg("send failed")
}
