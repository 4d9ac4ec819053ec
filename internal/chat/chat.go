// Package chat defines the transport-neutral messages and events the bot
// exchanges with a chat service.
package chat

import (
	"context"
	"slices"
)

// ParseMode selects how a transport formats message text.
type ParseMode string

const (
	ParsePlain    ParseMode = ""
	ParseMarkdown ParseMode = "Markdown"
)

// Button is an inline keyboard button carrying callback data.
type Button struct {
	Text string
	Data string
}

// Keyboard is rows of inline buttons.
type Keyboard [][]Button

// Row builds a single keyboard row.
func Row(buttons ...Button) []Button { return buttons }

// Message is an outbound message. When Photo is set, Text is the caption.
type Message struct {
	Text      string
	ParseMode ParseMode
	Keyboard  Keyboard
	Photo     string
}

// Text returns a plain message.
func Text(s string) Message { return Message{Text: s} }

// Equal reports whether two messages would render identically.
func (m Message) Equal(o Message) bool {
	if m.Text != o.Text || m.ParseMode != o.ParseMode || m.Photo != o.Photo {
		return false
	}
	return slices.EqualFunc(m.Keyboard, o.Keyboard, func(a, b []Button) bool {
		return slices.Equal(a, b)
	})
}

// EventKind classifies inbound events.
type EventKind int

const (
	EventText EventKind = iota
	EventCommand
	EventCallback
)

// Event is an inbound update from a chat.
type Event struct {
	Kind        EventKind
	ChatID      int64
	UserID      int64
	DisplayName string
	Text        string

	// Command is set for EventCommand, without the leading slash;
	// Args holds the rest of the line.
	Command string
	Args    string

	// CallbackID and Data are set for EventCallback.
	CallbackID string
	Data       string

	// MessageID is the message a callback button was attached to.
	MessageID int
}

// ChatInfo is metadata about a chat or user.
type ChatInfo struct {
	ID          int64
	Username    string
	DisplayName string
}

// Transport is the outbound side of a chat service.
type Transport interface {
	// Send delivers msg and returns the new message id.
	Send(ctx context.Context, chatID int64, msg Message) (int, error)

	// Edit replaces the text of an existing message.
	Edit(ctx context.Context, chatID int64, messageID int, text string) error

	// AnswerCallback acknowledges a button press, optionally with a toast.
	AnswerCallback(ctx context.Context, callbackID, toast string) error

	// ChatInfo fetches metadata about a chat.
	ChatInfo(ctx context.Context, chatID int64) (ChatInfo, error)
}
