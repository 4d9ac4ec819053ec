package components

import (
	"fmt"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/shirooni/typebot/internal/chat"
	"github.com/shirooni/typebot/internal/ui/theme"
)

// Keyboard renders an inline keyboard as numbered buttons. Buttons are
// numbered from 1, left to right and top to bottom.
type Keyboard struct {
	Rows     chat.Keyboard
	Selected int
}

// NewKeyboard creates a keyboard with nothing selected.
func NewKeyboard(rows chat.Keyboard) Keyboard {
	return Keyboard{Rows: rows, Selected: -1}
}

// Len returns the number of buttons.
func (k Keyboard) Len() int {
	n := 0
	for _, row := range k.Rows {
		n += len(row)
	}
	return n
}

// Button returns the button numbered n.
func (k Keyboard) Button(n int) (chat.Button, bool) {
	if n < 1 {
		return chat.Button{}, false
	}
	for _, row := range k.Rows {
		if n <= len(row) {
			return row[n-1], true
		}
		n -= len(row)
	}
	return chat.Button{}, false
}

// Current returns the selected button.
func (k Keyboard) Current() (chat.Button, bool) {
	return k.Button(k.Selected + 1)
}

// Update cycles the selection with tab and shift+tab.
func (k Keyboard) Update(msg tea.Msg) (Keyboard, tea.Cmd) {
	kmsg, ok := msg.(tea.KeyPressMsg)
	if !ok || k.Len() == 0 {
		return k, nil
	}

	switch kmsg.String() {
	case "tab":
		k.Selected = (k.Selected + 1) % k.Len()
	case "shift+tab":
		if k.Selected <= 0 {
			k.Selected = k.Len() - 1
		} else {
			k.Selected--
		}
	case "esc":
		k.Selected = -1
	}
	return k, nil
}

// View renders one line per keyboard row.
func (k Keyboard) View() string {
	lines := make([]string, 0, len(k.Rows))
	n := 0
	for _, row := range k.Rows {
		labels := make([]string, 0, len(row))
		for _, btn := range row {
			label := fmt.Sprintf("%d %s", n+1, btn.Text)
			if n == k.Selected {
				labels = append(labels, theme.ButtonActive.Render("▸ "+label))
			} else {
				labels = append(labels, theme.ButtonInactive.Render(label))
			}
			n++
		}
		lines = append(lines, lipgloss.JoinHorizontal(lipgloss.Top, joinSpaced(labels)...))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func joinSpaced(labels []string) []string {
	out := make([]string, 0, 2*len(labels))
	for i, l := range labels {
		if i > 0 {
			out = append(out, " ")
		}
		out = append(out, l)
	}
	return out
}
