package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/prompt"
	"github.com/shirooni/typebot/internal/store"
)

func (b *Bot) beginEntry(ctx context.Context, ev chat.Event) error {
	if err := b.repos.Session(ev.UserID).BeginEntry(ctx); err != nil {
		return fmt.Errorf("begin custom text entry: %w", err)
	}
	return b.send(ctx, ev.ChatID, chat.Text(fmt.Sprintf(msgEntryText, store.MinCustomTextLen)))
}

// handleEntry advances the two-step custom text submission. A text that
// is too short keeps the session waiting for text; a rejected name resets
// the submission.
func (b *Bot) handleEntry(ctx context.Context, ev chat.Event) error {
	sess := b.repos.Session(ev.UserID)

	switch sess.Entry() {
	case store.EntryAwaitingText:
		raw := strings.TrimSpace(ev.Text)
		if err := store.ValidateCustomText(raw); err != nil {
			return b.send(ctx, ev.ChatID,
				chat.Text(fmt.Sprintf(msgTooShort, utf8.RuneCountInString(raw), store.MinCustomTextLen)))
		}
		if err := sess.AcceptText(ctx, raw); err != nil {
			return fmt.Errorf("accept custom text: %w", err)
		}
		return b.send(ctx, ev.ChatID, chat.Text(fmt.Sprintf(msgEntryName, utf8.RuneCountInString(raw), store.MaxCustomNameLen)))

	case store.EntryAwaitingName:
		name := strings.TrimSpace(ev.Text)
		switch err := store.ValidateCustomName(name); {
		case errors.Is(err, store.ErrNameEmpty):
			return b.rejectEntry(ctx, ev.ChatID, sess, msgNameEmpty)
		case errors.Is(err, store.ErrNameTooLong):
			return b.rejectEntry(ctx, ev.ChatID, sess,
				fmt.Sprintf(msgNameLong, utf8.RuneCountInString(name), store.MaxCustomNameLen))
		}

		raw, err := sess.FinishEntry(ctx)
		if err != nil {
			return fmt.Errorf("finish custom text entry: %w", err)
		}
		id, err := b.repos.SaveCustomText(ev.UserID, name, raw)
		if errors.Is(err, store.ErrNoSentences) {
			return b.rejectEntry(ctx, ev.ChatID, sess, fmt.Sprintf(msgNoPhrases, prompt.MinSentenceWords))
		}
		if err != nil {
			return fmt.Errorf("save custom text: %w", err)
		}

		text, _ := b.repos.CustomText(id)
		log.Info().Int64("user_id", ev.UserID).Str("text_id", id).Int("elements", len(text.Elements)).Msg("custom text saved")
		return b.send(ctx, ev.ChatID, chat.Message{
			Text:     fmt.Sprintf(msgSaved, text.Name, len(text.Elements)),
			Keyboard: savedKeyboard(id),
		})
	}
	return nil
}

func (b *Bot) rejectEntry(ctx context.Context, chatID int64, sess *store.Session, reason string) error {
	sess.ResetEntry(ctx)
	return b.send(ctx, chatID, chat.Message{Text: reason, Keyboard: retryKeyboard})
}

func (b *Bot) showTexts(ctx context.Context, chatID int64) error {
	texts := b.repos.ListCustomTexts()
	if len(texts) == 0 {
		return b.post(ctx, chatID, chat.Message{Text: msgNoTexts, Keyboard: customMenuKeyboard})
	}
	return b.post(ctx, chatID, chat.Message{Text: msgTextList, Keyboard: textListKeyboard(texts)})
}

func (b *Bot) showBoard(ctx context.Context, chatID int64, id string) error {
	text, ok := b.repos.CustomText(id)
	if !ok {
		return b.post(ctx, chatID, chat.Text("Ce texte personnalisé n'existe plus."))
	}
	return b.post(ctx, chatID, chat.Message{
		Text:     customBoardText(text.Name, b.repos.CustomTextStats(id)),
		Keyboard: savedKeyboard(id),
	})
}
