// Package telegram connects the bot to the Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/shirooni/typebot/internal/chat"
)

// Client is the part of the Bot API the bot uses. *tgbotapi.BotAPI
// implements it.
type Client interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdates(config tgbotapi.UpdateConfig) ([]tgbotapi.Update, error)
	GetChat(config tgbotapi.ChatInfoConfig) (tgbotapi.Chat, error)
}

// Dial authenticates token against the Bot API.
func Dial(token string) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("connect to telegram: %w", err)
	}
	return api, nil
}

// Transport implements chat.Transport over a Client.
type Transport struct {
	client Client
}

var _ chat.Transport = (*Transport)(nil)

// NewTransport returns a Transport using client.
func NewTransport(client Client) *Transport {
	return &Transport{client: client}
}

// Send delivers msg. A message with a photo is sent as a photo with msg.Text
// as its caption.
func (t *Transport) Send(_ context.Context, chatID int64, msg chat.Message) (int, error) {
	var c tgbotapi.Chattable
	if msg.Photo != "" {
		p := tgbotapi.NewPhoto(chatID, tgbotapi.FilePath(msg.Photo))
		p.Caption = msg.Text
		p.ParseMode = string(msg.ParseMode)
		if len(msg.Keyboard) > 0 {
			p.ReplyMarkup = keyboard(msg.Keyboard)
		}
		c = p
	} else {
		m := tgbotapi.NewMessage(chatID, msg.Text)
		m.ParseMode = string(msg.ParseMode)
		if len(msg.Keyboard) > 0 {
			m.ReplyMarkup = keyboard(msg.Keyboard)
		}
		c = m
	}

	sent, err := t.client.Send(c)
	if err != nil {
		return 0, fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return sent.MessageID, nil
}

func (t *Transport) Edit(_ context.Context, chatID int64, messageID int, text string) error {
	if _, err := t.client.Request(tgbotapi.NewEditMessageText(chatID, messageID, text)); err != nil {
		return fmt.Errorf("edit message %d in chat %d: %w", messageID, chatID, err)
	}
	return nil
}

func (t *Transport) AnswerCallback(_ context.Context, callbackID, toast string) error {
	if _, err := t.client.Request(tgbotapi.NewCallback(callbackID, toast)); err != nil {
		return fmt.Errorf("answer callback: %w", err)
	}
	return nil
}

func (t *Transport) ChatInfo(_ context.Context, chatID int64) (chat.ChatInfo, error) {
	c, err := t.client.GetChat(tgbotapi.ChatInfoConfig{ChatConfig: tgbotapi.ChatConfig{ChatID: chatID}})
	if err != nil {
		return chat.ChatInfo{}, fmt.Errorf("get chat %d: %w", chatID, err)
	}
	name := strings.TrimSpace(c.FirstName + " " + c.LastName)
	if name == "" {
		name = c.Title
	}
	return chat.ChatInfo{ID: c.ID, Username: c.UserName, DisplayName: name}, nil
}

func keyboard(kb chat.Keyboard) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(kb))
	for _, row := range kb {
		buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(row))
		for _, b := range row {
			buttons = append(buttons, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
		}
		rows = append(rows, buttons)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}
