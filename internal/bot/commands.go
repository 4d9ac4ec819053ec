package bot

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/session"
	"github.com/shirooni/typebot/internal/store"
)

func (b *Bot) handleCommand(ctx context.Context, ev chat.Event) error {
	log.Debug().Str("command", ev.Command).Int64("chat_id", ev.ChatID).Msg("command received")

	switch ev.Command {
	case "start":
		return b.cmdStart(ctx, ev.ChatID)
	case "training":
		return b.showMenu(ctx, ev.ChatID)
	case "help":
		return b.post(ctx, ev.ChatID, chat.Text(helpText))
	case "stats":
		return b.cmdStats(ctx, ev)
	case "leaderboard":
		return b.showLeaderboard(ctx, ev.ChatID)
	case "custom":
		return b.post(ctx, ev.ChatID, chat.Message{Text: customMenuText, Keyboard: customMenuKeyboard})
	case "cancel":
		return b.cmdCancel(ctx, ev)
	case "user":
		return b.cmdUser(ctx, ev)
	}
	log.Debug().Str("command", ev.Command).Msg("unknown command ignored")
	return nil
}

// cmdStart plays the loading animation, then offers to open the menu.
func (b *Bot) cmdStart(ctx context.Context, chatID int64) error {
	msgID, err := b.out.Send(ctx, chatID, chat.Text(fmt.Sprintf(loadingFrame, 0)))
	if err != nil {
		return fmt.Errorf("send loading frame: %w", err)
	}
	for pct := 10; pct <= 100; pct += 10 {
		if err := b.sleep(ctx, b.cfg.LoadStep); err != nil {
			return err
		}
		if err := b.out.Edit(ctx, chatID, msgID, fmt.Sprintf(loadingFrame, pct)); err != nil {
			log.Warn().Err(err).Int64("chat_id", chatID).Msg("loading frame edit failed")
		}
	}
	return b.send(ctx, chatID, chat.Message{Text: introText, Keyboard: introKeyboard})
}

// showMenu sends the main menu, as a photo caption when a photo is
// configured and as plain text otherwise or when the photo fails.
func (b *Bot) showMenu(ctx context.Context, chatID int64) error {
	msg := chat.Message{Text: menuText, Keyboard: menuKeyboard, ParseMode: chat.ParseMarkdown}
	if b.cfg.MenuPhoto != "" {
		photo := msg
		photo.Photo = b.cfg.MenuPhoto
		_, err := b.out.Send(ctx, chatID, photo)
		if err == nil {
			return nil
		}
		log.Warn().Err(err).Str("photo", b.cfg.MenuPhoto).Msg("menu photo failed, sending text")
	}
	return b.send(ctx, chatID, msg)
}

func (b *Bot) cmdStats(ctx context.Context, ev chat.Event) error {
	u, ok := b.repos.Get(ev.UserID)
	if !ok {
		return b.post(ctx, ev.ChatID, chat.Text(msgNoStats))
	}
	return b.post(ctx, ev.ChatID, chat.Text(statsText(u, ev.DisplayName)))
}

func (b *Bot) showLeaderboard(ctx context.Context, chatID int64) error {
	return b.post(ctx, chatID, chat.Message{
		Text:     leaderboardText(b.repos.Leaderboard()),
		Keyboard: chat.Keyboard{backRow},
	})
}

// cmdCancel abandons a custom-text submission and removes any test.
func (b *Bot) cmdCancel(ctx context.Context, ev chat.Event) error {
	sess := b.repos.Session(ev.UserID)
	if sess.Entry() != store.EntryIdle {
		sess.ResetEntry(ctx)
		if err := b.send(ctx, ev.ChatID, chat.Text(msgEntryOff)); err != nil {
			return err
		}
		if _, ok := b.repos.ActiveTest(ev.UserID); !ok {
			return nil
		}
	}

	err := b.engine.Cancel(ctx, ev.ChatID, ev.UserID)
	if errors.Is(err, session.ErrNoActiveTest) {
		return nil
	}
	return err
}

func (b *Bot) cmdUser(ctx context.Context, ev chat.Event) error {
	if !b.isAdmin(ev.UserID) {
		log.Info().Int64("user_id", ev.UserID).Msg("admin command refused")
		return b.post(ctx, ev.ChatID, chat.Text(msgAccessDenied))
	}
	users := b.repos.List()
	if len(users) == 0 {
		return b.post(ctx, ev.ChatID, chat.Text(msgNoUsers))
	}
	return b.post(ctx, ev.ChatID, chat.Message{Text: msgUserList, Keyboard: userListKeyboard(users)})
}
