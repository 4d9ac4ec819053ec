package theme

import (
	"charm.land/lipgloss/v2"
)

// Color palette: paper white and oni red on ink
var (
	Primary = lipgloss.Color("#E11D48") // Oni Red
	Accent  = lipgloss.Color("#F59E0B") // Lantern Amber
	Success = lipgloss.Color("#22C55E") // Green
	Text    = lipgloss.Color("#F8FAFC") // Paper
	TextDim = lipgloss.Color("#94A3B8") // Slate
	BgCard  = lipgloss.Color("#1C1917") // Ink
	Border  = lipgloss.Color("#44403C") // Stone
)

// Typography
var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(Primary)

	Body = lipgloss.NewStyle().
		Foreground(Text)

	Hint = lipgloss.NewStyle().
		Foreground(TextDim).
		Italic(true)
)

// Transcript
var (
	BotName = lipgloss.NewStyle().
		Foreground(Primary).
		Bold(true)

	UserName = lipgloss.NewStyle().
			Foreground(Success).
			Bold(true)

	Toast = lipgloss.NewStyle().
		Foreground(Accent).
		Italic(true)
)

// Buttons
var (
	ButtonActive = lipgloss.NewStyle().
			Background(Primary).
			Foreground(Text).
			Bold(true).
			Padding(0, 1)

	ButtonInactive = lipgloss.NewStyle().
			Background(Border).
			Foreground(Text).
			Padding(0, 1)
)
