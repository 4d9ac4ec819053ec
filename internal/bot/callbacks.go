package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/metrics"
	"github.com/shirooni/typebot/internal/scoring"
)

var errCooldown = errors.New("action repeated too quickly")

const toastCooldown = "⏳ Doucement!"

func (b *Bot) handleCallback(ctx context.Context, ev chat.Event) error {
	if b.cooldown != nil && !b.cooldown.Allow(ev.ChatID, ev.Data) {
		metrics.EventsDropped.WithLabelValues("cooldown").Inc()
		b.answer(ctx, ev.CallbackID, toastCooldown)
		return errCooldown
	}
	b.answer(ctx, ev.CallbackID, "")

	log.Debug().Str("data", ev.Data).Int64("chat_id", ev.ChatID).Msg("callback received")

	switch ev.Data {
	case cbShowMenu:
		return b.showMenu(ctx, ev.ChatID)
	case cbModePrecision:
		return b.post(ctx, ev.ChatID, chat.Message{Text: precisionMenuText, Keyboard: precisionKeyboard, ParseMode: chat.ParseMarkdown})
	case cbModeSpeed:
		return b.post(ctx, ev.ChatID, chat.Message{Text: speedMenuText, Keyboard: speedKeyboard, ParseMode: chat.ParseMarkdown})
	case cbPrecisionTest:
		_, err := b.engine.StartPrecision(ctx, b.player(ctx, ev))
		return err
	case cbSpeedTest:
		_, err := b.engine.StartSpeed(ctx, b.player(ctx, ev))
		return err
	case cbPrecisionTraining:
		return b.post(ctx, ev.ChatID, chat.Message{Text: rankPickerText, Keyboard: rankKeyboard(scoring.ModePrecision)})
	case cbSpeedTraining:
		return b.post(ctx, ev.ChatID, chat.Message{Text: rankPickerText, Keyboard: rankKeyboard(scoring.ModeSpeed)})
	case cbLeaderboard:
		return b.showLeaderboard(ctx, ev.ChatID)
	case cbCustomMenu:
		return b.post(ctx, ev.ChatID, chat.Message{Text: customMenuText, Keyboard: customMenuKeyboard})
	case cbCustomNew:
		return b.beginEntry(ctx, ev)
	case cbCustomList:
		return b.showTexts(ctx, ev.ChatID)
	}

	if mode, rank, ok := parseTraining(ev.Data); ok {
		_, err := b.engine.StartTraining(ctx, b.player(ctx, ev), mode, rank)
		return err
	}
	if id, ok := strings.CutPrefix(ev.Data, prefixCustomStart); ok {
		_, err := b.engine.StartCustom(ctx, b.player(ctx, ev), id)
		return err
	}
	if id, ok := strings.CutPrefix(ev.Data, prefixCustomBoard); ok {
		return b.showBoard(ctx, ev.ChatID, id)
	}
	if id, ok := strings.CutPrefix(ev.Data, prefixUserStats); ok {
		return b.showUserStats(ctx, ev, id)
	}

	log.Debug().Str("data", ev.Data).Msg("unknown callback ignored")
	return nil
}

func (b *Bot) answer(ctx context.Context, callbackID, toast string) {
	if callbackID == "" {
		return
	}
	if err := b.out.AnswerCallback(ctx, callbackID, toast); err != nil {
		log.Debug().Err(err).Str("callback_id", callbackID).Msg("answer callback failed")
	}
}

// parseTraining splits "{mode}_training_{rank}".
func parseTraining(data string) (scoring.Mode, scoring.Rank, bool) {
	mode, rank, ok := strings.Cut(data, prefixTraining)
	if !ok {
		return "", "", false
	}
	m := scoring.Mode(mode)
	if m != scoring.ModePrecision && m != scoring.ModeSpeed {
		return "", "", false
	}
	r, ok := scoring.ParseTrainingRank(rank)
	if !ok {
		return "", "", false
	}
	return m, r, true
}

func (b *Bot) showUserStats(ctx context.Context, ev chat.Event, rawID string) error {
	if !b.isAdmin(ev.UserID) {
		return b.post(ctx, ev.ChatID, chat.Text(msgAccessDenied))
	}
	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("parse user id %q: %w", rawID, err)
	}
	u, ok := b.repos.Get(id)
	if !ok {
		return b.post(ctx, ev.ChatID, chat.Text(msgUserNotFound))
	}
	return b.post(ctx, ev.ChatID, chat.Text(statsText(u, "")))
}
