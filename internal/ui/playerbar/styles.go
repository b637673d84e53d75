package playerbar

import "github.com/charmbracelet/lipgloss"

var (
	colorPrimary = lipgloss.Color("#a78bfa")
	colorAccent  = lipgloss.Color("#60a5fa")
	colorFg      = lipgloss.Color("#c0c0c0")
	colorMuted   = lipgloss.Color("#808080")
	colorSubtle  = lipgloss.Color("#585858")
	colorSuccess = lipgloss.Color("#4ade80")
	colorError   = lipgloss.Color("#f87171")
)

var barStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.RoundedBorder()).
	BorderForeground(colorSubtle)

var (
	titleStyle         = lipgloss.NewStyle().Foreground(colorFg).Bold(true)
	artistStyle        = lipgloss.NewStyle().Foreground(colorMuted)
	metaStyle          = lipgloss.NewStyle().Foreground(colorSubtle)
	hintStyle          = lipgloss.NewStyle().Foreground(colorSubtle).Italic(true)
	playingStyle       = lipgloss.NewStyle().Foreground(colorSuccess)
	repeatStyle        = lipgloss.NewStyle().Foreground(colorPrimary)
	errorStyle         = lipgloss.NewStyle().Foreground(colorError)
	progressTimeStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	progressEmptyStyle = lipgloss.NewStyle().Foreground(colorSubtle)
	lyricsStyle        = lipgloss.NewStyle().Foreground(colorFg)
)
