package playerbar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/playlist"
)

const (
	blockFilled = "▓"
	blockEmpty  = "░"
	lineFilled  = "━"
	lineEmpty   = "─"
)

// blockBar renders the progress row of the expanded view:
//
//	▶  01:23  ▓▓▓▓▓░░░░░  04:56
//
// Nothing but the elapsed time is shown while the duration is unknown.
func blockBar(s State, width int) string {
	status := statusIcon(s.Playback)
	if s.Playback == playback.StateIdle {
		return status + "  " + timeText(s)
	}
	pos := playlist.FormatDuration(s.Position)
	if s.Duration <= 0 {
		return status + "  " + pos
	}
	dur := playlist.FormatDuration(s.Duration)

	barWidth := width - lipgloss.Width(status) - lipgloss.Width(pos) - lipgloss.Width(dur) - 6
	if barWidth < 3 {
		return status + "  " + pos + " / " + dur
	}
	filled := filledCells(s.Position, s.Duration, barWidth)
	return status + "  " + pos + "  " +
		progressBarFilled().Render(strings.Repeat(blockFilled, filled)) +
		progressBarEmpty().Render(strings.Repeat(blockEmpty, barWidth-filled)) +
		"  " + dur
}

// lineBar renders the thin bar of the compact view.
func lineBar(position, duration time.Duration, width int) string {
	filled := filledCells(position, duration, width)
	return progressBarFilled().Render(strings.Repeat(lineFilled, filled)) +
		progressBarEmpty().Render(strings.Repeat(lineEmpty, width-filled))
}

func filledCells(position, duration time.Duration, width int) int {
	if duration <= 0 || position <= 0 {
		return 0
	}
	return min(int(float64(width)*float64(position)/float64(duration)), width)
}
