package layout

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/shirooni/typebot/internal/ui/theme"
)

const (
	MinWidth  = 50
	MinHeight = 14
)

// KeyHint represents a key binding hint shown in the footer.
type KeyHint struct {
	Key         string
	Description string
}

// IsTooSmall returns true if the terminal is below minimum size.
func IsTooSmall(width, height int) bool {
	return width < MinWidth || height < MinHeight
}

// RenderMinSizeMessage renders the "terminal too small" message.
func RenderMinSizeMessage(width, height int) string {
	return lipgloss.NewStyle().
		Align(lipgloss.Center).
		Foreground(theme.Text).
		Width(width).
		Height(height).
		Render(fmt.Sprintf(
			"Terminal trop petit !\n\nAgrandissez-le à au moins\n%d x %d\n\nActuel : %d x %d",
			MinWidth, MinHeight, width, height,
		))
}

// RenderHeader renders the header bar with the bot name on the left and the
// player on the right.
func RenderHeader(player string, width int) string {
	left := theme.Title.Render("  Shiro Oni")
	right := lipgloss.NewStyle().
		Foreground(theme.Accent).
		Render("☻ " + player)

	innerWidth := max(width-4, 0)
	gap := max(innerWidth-lipgloss.Width(left)-lipgloss.Width(right), 1)

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render(left + strings.Repeat(" ", gap) + right)
}

// RenderFooter renders the footer with key hints.
func RenderFooter(hints []KeyHint, width int) string {
	parts := make([]string, 0, len(hints))
	for _, h := range hints {
		part := lipgloss.NewStyle().Foreground(theme.Text).Bold(true).Render(h.Key) +
			" " +
			lipgloss.NewStyle().Foreground(theme.TextDim).Render(h.Description)
		parts = append(parts, part)
	}

	return lipgloss.NewStyle().
		Width(width).
		Background(theme.BgCard).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Render("  " + strings.Join(parts, "   "))
}

// RenderFrame composes the full frame. Content taller than the space left
// between header and footer keeps its last lines.
func RenderFrame(header, content, footer string, width, height int) string {
	contentHeight := max(height-lipgloss.Height(header)-lipgloss.Height(footer), 0)
	content = Tail(content, contentHeight)

	styled := lipgloss.NewStyle().
		Width(width).
		Height(contentHeight).
		Render(content)

	return header + "\n" + styled + "\n" + footer
}

// Tail keeps the last n lines of s.
func Tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	lines := strings.Split(s, "\n")
	if len(lines) <= n {
		return s
	}
	return strings.Join(lines[len(lines)-n:], "\n")
}
