package console

import (
	"context"
	"sync"
	"testing"

	tea "charm.land/bubbletea/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirooni/typebot/internal/chat"
)

var player = chat.ChatInfo{ID: 1, DisplayName: "Rin"}

type recordingHandler struct {
	mu     sync.Mutex
	events []chat.Event
}

func (h *recordingHandler) Handle(_ context.Context, ev chat.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, ev)
}

func (h *recordingHandler) last(t *testing.T) chat.Event {
	t.Helper()
	h.mu.Lock()
	defer h.mu.Unlock()
	require.NotEmpty(t, h.events)
	return h.events[len(h.events)-1]
}

func newModel() (Model, *Transport, *recordingHandler) {
	tr := NewTransport(player)
	h := &recordingHandler{}
	return New(context.Background(), tr, h), tr, h
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	mm, ok := next.(Model)
	require.True(t, ok)
	return mm, cmd
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		line    string
		kind    chat.EventKind
		command string
		args    string
	}{
		{"bonjour", chat.EventText, "", ""},
		{"/start", chat.EventCommand, "start", ""},
		{"/user 42", chat.EventCommand, "user", "42"},
		{"/stats@typebot", chat.EventCommand, "stats", ""},
		{"/", chat.EventText, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			ev := ParseLine(tt.line, player)
			assert.Equal(t, tt.kind, ev.Kind)
			assert.Equal(t, tt.command, ev.Command)
			assert.Equal(t, tt.args, ev.Args)
			assert.Equal(t, int64(1), ev.ChatID)
			assert.Equal(t, "Rin", ev.DisplayName)
		})
	}
}

func TestTransportPostsToModel(t *testing.T) {
	tr := NewTransport(player)
	ctx := context.Background()

	id1, err := tr.Send(ctx, 1, chat.Text("un"))
	require.NoError(t, err)
	id2, err := tr.Send(ctx, 1, chat.Text("deux"))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, []int{id1, id2})

	require.NoError(t, tr.Edit(ctx, 1, id1, "un bis"))
	require.NoError(t, tr.AnswerCallback(ctx, "cb", ""))
	require.NoError(t, tr.AnswerCallback(ctx, "cb", "Doucement"))

	assert.Equal(t, botMsg{ID: 1, Message: chat.Text("un")}, <-tr.updates)
	assert.Equal(t, botMsg{ID: 2, Message: chat.Text("deux")}, <-tr.updates)
	assert.Equal(t, editMsg{ID: 1, Text: "un bis"}, <-tr.updates)
	assert.Equal(t, toastMsg("Doucement"), <-tr.updates)
	assert.Empty(t, tr.updates, "an empty toast posts nothing")
}

func TestTransportHonorsContext(t *testing.T) {
	tr := &Transport{user: player, updates: make(chan tea.Msg)}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tr.Send(ctx, 1, chat.Text("x"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestTransportChatInfo(t *testing.T) {
	tr := NewTransport(player)
	info, err := tr.ChatInfo(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, player, info)

	_, err = tr.ChatInfo(context.Background(), 2)
	assert.Error(t, err)
}

func TestModel_TypedLineDispatches(t *testing.T) {
	m, _, h := newModel()

	m.input.Model.SetValue("  next ")
	m, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()

	ev := h.last(t)
	assert.Equal(t, chat.EventText, ev.Kind)
	assert.Equal(t, "next", ev.Text)
	assert.Empty(t, m.input.Value())
	assert.Equal(t, "next", m.entries[len(m.entries)-1].text)
}

func TestModel_EmptyEnterDoesNothing(t *testing.T) {
	m, _, _ := newModel()
	_, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	assert.Nil(t, cmd)
}

func TestModel_PressButtonByNumber(t *testing.T) {
	m, _, h := newModel()

	kb := chat.Keyboard{
		chat.Row(chat.Button{Text: "Précision", Data: "mode_precision"}, chat.Button{Text: "Vitesse", Data: "mode_speed"}),
		chat.Row(chat.Button{Text: "Classement", Data: "leaderboard"}),
	}
	m, _ = update(t, m, botMsg{ID: 7, Message: chat.Message{Text: "Menu", Keyboard: kb}})
	m, _ = update(t, m, botMsg{ID: 8, Message: chat.Text("sans boutons")})

	next, cmd := m.submit(":3")
	require.NotNil(t, cmd)
	cmd()

	ev := h.last(t)
	assert.Equal(t, chat.EventCallback, ev.Kind)
	assert.Equal(t, "leaderboard", ev.Data)
	assert.Equal(t, 7, ev.MessageID, "the keyboard stays attached to its message")
	assert.Equal(t, "console-1", ev.CallbackID)

	mm := next.(Model)
	assert.Equal(t, "[Classement]", mm.entries[len(mm.entries)-1].text)
}

func TestModel_UnknownButton(t *testing.T) {
	m, _, _ := newModel()
	next, cmd := m.submit(":9")
	assert.Nil(t, cmd)
	assert.Contains(t, next.(Model).toast, "9")
}

func TestModel_TabThenEnterPressesSelected(t *testing.T) {
	m, _, h := newModel()
	kb := chat.Keyboard{chat.Row(chat.Button{Text: "A", Data: "a"}, chat.Button{Text: "B", Data: "b"})}
	m, _ = update(t, m, botMsg{ID: 1, Message: chat.Message{Text: "?", Keyboard: kb}})

	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	m, _ = update(t, m, tea.KeyPressMsg{Code: tea.KeyTab})
	assert.Equal(t, 1, m.keyboard.Selected)

	m, cmd := update(t, m, tea.KeyPressMsg{Code: tea.KeyEnter})
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, "b", h.last(t).Data)
	assert.Equal(t, -1, m.keyboard.Selected)
}

func TestModel_EditAndToast(t *testing.T) {
	m, _, _ := newModel()
	m, _ = update(t, m, botMsg{ID: 3, Message: chat.Text("Load...0%")})
	m, _ = update(t, m, editMsg{ID: 3, Text: "Load...50%"})
	m, _ = update(t, m, toastMsg("Doucement"))

	require.Len(t, m.entries, 1)
	assert.Equal(t, "Load...50%", m.entries[0].text)

	m, _ = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 24})
	out := m.render()
	assert.Contains(t, out, "Load...50%")
	assert.Contains(t, out, "Doucement")
}

func TestModel_CtrlCQuits(t *testing.T) {
	m, _, _ := newModel()
	_, cmd := update(t, m, tea.KeyPressMsg{Code: 'c', Mod: tea.ModCtrl})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}
