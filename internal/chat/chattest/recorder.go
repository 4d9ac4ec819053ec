// Package chattest provides a recording chat.Transport for tests.
package chattest

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/shirooni/typebot/internal/chat"
)

// Sent is a message delivered through the Recorder.
type Sent struct {
	ChatID    int64
	MessageID int
	Message   chat.Message
}

// Edit is a message edit made through the Recorder.
type Edit struct {
	ChatID    int64
	MessageID int
	Text      string
}

// Recorder records every call. Set SendErr or EditErr to make the
// corresponding calls fail.
type Recorder struct {
	mu       sync.Mutex
	nextID   int
	sent     []Sent
	edits    []Edit
	answered []string

	SendErr error
	EditErr error
	Info    map[int64]chat.ChatInfo
}

// New returns an empty Recorder.
func New() *Recorder {
	return &Recorder{Info: make(map[int64]chat.ChatInfo)}
}

func (r *Recorder) Send(_ context.Context, chatID int64, msg chat.Message) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.SendErr != nil {
		return 0, r.SendErr
	}
	r.nextID++
	r.sent = append(r.sent, Sent{ChatID: chatID, MessageID: r.nextID, Message: msg})
	return r.nextID, nil
}

func (r *Recorder) Edit(_ context.Context, chatID int64, messageID int, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.EditErr != nil {
		return r.EditErr
	}
	r.edits = append(r.edits, Edit{ChatID: chatID, MessageID: messageID, Text: text})
	return nil
}

func (r *Recorder) AnswerCallback(_ context.Context, callbackID, toast string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.answered = append(r.answered, callbackID)
	return nil
}

func (r *Recorder) ChatInfo(_ context.Context, chatID int64) (chat.ChatInfo, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if info, ok := r.Info[chatID]; ok {
		return info, nil
	}
	return chat.ChatInfo{ID: chatID}, fmt.Errorf("chat %d not found", chatID)
}

// Sent returns a copy of every sent message.
func (r *Recorder) Sent() []Sent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Sent(nil), r.sent...)
}

// Edits returns a copy of every edit.
func (r *Recorder) Edits() []Edit {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Edit(nil), r.edits...)
}

// Answered returns the acknowledged callback ids.
func (r *Recorder) Answered() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.answered...)
}

// Last returns the most recent sent message.
func (r *Recorder) Last() (Sent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		return Sent{}, false
	}
	return r.sent[len(r.sent)-1], true
}

// Texts returns the text of every sent message.
func (r *Recorder) Texts() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.sent))
	for i, s := range r.sent {
		out[i] = s.Message.Text
	}
	return out
}

// Contains reports whether any sent message contains substr.
func (r *Recorder) Contains(substr string) bool {
	for _, t := range r.Texts() {
		if strings.Contains(t, substr) {
			return true
		}
	}
	return false
}

// Reset forgets everything recorded so far.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
	r.edits = nil
	r.answered = nil
}
