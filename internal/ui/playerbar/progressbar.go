package playerbar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	filledBlock = "▓"
	emptyBlock  = "░"
)

// RenderProgressBar renders a block-style progress bar.
// Format: ▶  1:23  ▓▓▓▓▓░░░░░  4:56
func RenderProgressBar(position, duration time.Duration, width int, status Status) string {
	symbol := pauseSymbol
	if status == StatusPlaying {
		symbol = playSymbol
	}

	posStr := formatDuration(position)
	durStr := "-:--"
	if duration > 0 {
		durStr = formatDuration(duration)
	}

	fixedWidth := lipgloss.Width(symbol) + 2 + lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return symbol + "  " + posStr + " / " + durStr
	}

	var ratio float64
	if duration > 0 {
		ratio = min(max(float64(position)/float64(duration), 0), 1)
	}
	filled := min(int(float64(barWidth)*ratio), barWidth)

	bar := applyGradient(strings.Repeat(filledBlock, filled), colorAccent, colorPrimary) +
		progressEmptyStyle.Render(strings.Repeat(emptyBlock, barWidth-filled))

	return symbol + "  " + progressTimeStyle.Render(posStr) + "  " + bar + "  " + progressTimeStyle.Render(durStr)
}
