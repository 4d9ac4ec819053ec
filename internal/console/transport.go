// Package console runs the bot against a local terminal user. Inline
// keyboards become numbered buttons.
package console

import (
	"context"
	"fmt"
	"sync/atomic"

	tea "charm.land/bubbletea/v2"

	"github.com/shirooni/typebot/internal/chat"
)

type botMsg struct {
	ID      int
	Message chat.Message
}

type editMsg struct {
	ID   int
	Text string
}

type toastMsg string

// Transport implements chat.Transport by posting to the terminal model.
type Transport struct {
	user    chat.ChatInfo
	updates chan tea.Msg
	nextID  atomic.Int64
}

var _ chat.Transport = (*Transport)(nil)

// NewTransport returns a transport for a single local user.
func NewTransport(user chat.ChatInfo) *Transport {
	return &Transport{user: user, updates: make(chan tea.Msg, 64)}
}

// User returns the local user.
func (t *Transport) User() chat.ChatInfo { return t.user }

func (t *Transport) post(ctx context.Context, msg tea.Msg) error {
	select {
	case t.updates <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *Transport) Send(ctx context.Context, _ int64, msg chat.Message) (int, error) {
	id := int(t.nextID.Add(1))
	if err := t.post(ctx, botMsg{ID: id, Message: msg}); err != nil {
		return 0, fmt.Errorf("post message %d: %w", id, err)
	}
	return id, nil
}

func (t *Transport) Edit(ctx context.Context, _ int64, messageID int, text string) error {
	return t.post(ctx, editMsg{ID: messageID, Text: text})
}

func (t *Transport) AnswerCallback(ctx context.Context, _ string, toast string) error {
	if toast == "" {
		return nil
	}
	return t.post(ctx, toastMsg(toast))
}

func (t *Transport) ChatInfo(_ context.Context, chatID int64) (chat.ChatInfo, error) {
	if chatID != t.user.ID {
		return chat.ChatInfo{}, fmt.Errorf("chat %d not found", chatID)
	}
	return t.user, nil
}
