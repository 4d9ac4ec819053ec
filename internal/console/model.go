package console

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/ui/components"
	"github.com/shirooni/typebot/internal/ui/layout"
	"github.com/shirooni/typebot/internal/ui/theme"
)

// Handler consumes the events typed by the local user.
type Handler interface {
	Handle(ctx context.Context, ev chat.Event)
}

type entry struct {
	id      int
	fromBot bool
	text    string
}

// Model is the root Bubble Tea model of the console.
type Model struct {
	ctx     context.Context
	handler Handler
	user    chat.ChatInfo
	updates <-chan tea.Msg

	entries     []entry
	keyboard    components.Keyboard
	keyboardMsg int
	input       components.TextInput
	toast       string
	presses     int

	width  int
	height int
}

// New creates a model fed by tr and reporting to h.
func New(ctx context.Context, tr *Transport, h Handler) Model {
	return Model{
		ctx:      ctx,
		handler:  h,
		user:     tr.user,
		updates:  tr.updates,
		keyboard: components.NewKeyboard(nil),
		input:    components.NewTextInput("Écrivez ici, /help pour l'aide", 4096),
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.input.Init(),
		m.waitForUpdate(),
		m.dispatch(ParseLine("/start", m.user)),
	)
}

func (m Model) waitForUpdate() tea.Cmd {
	ch := m.updates
	return func() tea.Msg { return <-ch }
}

func (m Model) dispatch(ev chat.Event) tea.Cmd {
	ctx, h := m.ctx, m.handler
	return func() tea.Msg {
		h.Handle(ctx, ev)
		return nil
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case botMsg:
		m.entries = append(m.entries, entry{id: msg.ID, fromBot: true, text: msg.Message.Text})
		if len(msg.Message.Keyboard) > 0 {
			m.keyboard = components.NewKeyboard(msg.Message.Keyboard)
			m.keyboardMsg = msg.ID
		}
		return m, m.waitForUpdate()

	case editMsg:
		for i := range m.entries {
			if m.entries[i].fromBot && m.entries[i].id == msg.ID {
				m.entries[i].text = msg.Text
			}
		}
		return m, m.waitForUpdate()

	case toastMsg:
		m.toast = string(msg)
		return m, m.waitForUpdate()

	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "enter":
			line := m.input.Take()
			if line == "" {
				if btn, ok := m.keyboard.Current(); ok {
					return m.press(btn)
				}
				return m, nil
			}
			return m.submit(line)
		case "tab", "shift+tab", "esc":
			var cmd tea.Cmd
			m.keyboard, cmd = m.keyboard.Update(msg)
			return m, cmd
		}
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit sends a typed line. ":N" presses button N of the latest keyboard.
func (m Model) submit(line string) (tea.Model, tea.Cmd) {
	m.toast = ""
	if rest, ok := strings.CutPrefix(line, ":"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(rest))
		btn, found := m.keyboard.Button(n)
		if err != nil || !found {
			m.toast = fmt.Sprintf("Pas de bouton %q.", rest)
			return m, nil
		}
		return m.press(btn)
	}

	m.entries = append(m.entries, entry{text: line})
	return m, m.dispatch(ParseLine(line, m.user))
}

func (m Model) press(btn chat.Button) (tea.Model, tea.Cmd) {
	m.presses++
	m.toast = ""
	m.keyboard.Selected = -1
	m.entries = append(m.entries, entry{text: "[" + btn.Text + "]"})
	return m, m.dispatch(chat.Event{
		Kind:        chat.EventCallback,
		ChatID:      m.user.ID,
		UserID:      m.user.ID,
		DisplayName: m.user.DisplayName,
		CallbackID:  "console-" + strconv.Itoa(m.presses),
		Data:        btn.Data,
		MessageID:   m.keyboardMsg,
	})
}

// ParseLine turns a typed line into an event from user.
func ParseLine(line string, user chat.ChatInfo) chat.Event {
	ev := chat.Event{
		Kind:        chat.EventText,
		ChatID:      user.ID,
		UserID:      user.ID,
		DisplayName: user.DisplayName,
		Text:        line,
	}
	if !strings.HasPrefix(line, "/") {
		return ev
	}

	name, args, _ := strings.Cut(line[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	if name == "" {
		return ev
	}
	ev.Kind = chat.EventCommand
	ev.Command = name
	ev.Args = strings.TrimSpace(args)
	return ev
}

var hints = []layout.KeyHint{
	{Key: "Enter", Description: "Envoyer"},
	{Key: "Tab", Description: "Bouton"},
	{Key: ":N", Description: "Appuyer sur N"},
	{Key: "Ctrl+C", Description: "Quitter"},
}

func (m Model) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}
	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	header := layout.RenderHeader(m.user.DisplayName, m.width)
	footer := layout.RenderFooter(hints, m.width)
	v.SetContent(layout.RenderFrame(header, m.render(), footer, m.width, m.height))
	return v
}

// render draws the transcript, the latest keyboard and the input line.
func (m Model) render() string {
	wrap := lipgloss.NewStyle().Width(max(m.width-2, 20))

	var b strings.Builder
	for _, e := range m.entries {
		name := theme.UserName.Render(m.user.DisplayName)
		if e.fromBot {
			name = theme.BotName.Render("Shiro Oni")
		}
		b.WriteString(wrap.Render(name + " : " + theme.Body.Render(e.text)))
		b.WriteString("\n")
	}
	if m.keyboard.Len() > 0 {
		b.WriteString(m.keyboard.View())
		b.WriteString("\n")
	}
	if m.toast != "" {
		b.WriteString(theme.Toast.Render(m.toast))
		b.WriteString("\n")
	}
	b.WriteString(m.input.View())
	return b.String()
}

// Run drives the terminal until the user quits or ctx is done.
func Run(ctx context.Context, tr *Transport, h Handler) error {
	p := tea.NewProgram(New(ctx, tr, h), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !(errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil) {
		return fmt.Errorf("run console: %w", err)
	}
	return nil
}
