package queuepanel

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/icons"
	"github.com/llehouerou/alephplay/internal/playlist"
	"github.com/llehouerou/alephplay/internal/ui/render"
	"github.com/llehouerou/alephplay/internal/ui/styles"
)

// View renders the queue panel.
func (m Model) View() string {
	if m.width <= borderHeight || m.height <= borderHeight+headerHeight {
		return ""
	}
	tracks, current := m.source.Tracks()
	innerWidth := m.width - borderHeight

	header := fmt.Sprintf("Queue (%d/%d)", current+1, len(tracks))
	if len(tracks) == 0 {
		header = "Queue (empty)"
	}
	lines := []string{
		styles.T().S().Title.Render(render.Pad(header, innerWidth)),
		styles.T().S().Subtle.Render(strings.Repeat("─", innerWidth)),
	}

	for i := range m.listHeight() {
		idx := m.offset + i
		if idx >= len(tracks) {
			lines = append(lines, strings.Repeat(" ", innerWidth))
			continue
		}
		lines = append(lines, m.renderTrackLine(tracks[idx], idx, current, innerWidth))
	}

	return styles.T().Panel(m.focused).Width(innerWidth).Render(strings.Join(lines, "\n"))
}

// renderTrackLine renders "▶ Title   Artist   03:21".
func (m Model) renderTrackLine(t catalog.Track, idx, current, width int) string {
	prefix := "  "
	if idx == current {
		prefix = icons.Get().Current + " "
	}
	prefix = render.Pad(prefix, 2)

	dur := ""
	if t.Duration > 0 {
		dur = " " + playlist.FormatDuration(t.Duration)
	}
	contentWidth := max(width-2-lipgloss.Width(dur), 0)
	titleWidth := contentWidth / 2
	artistWidth := contentWidth - titleWidth

	line := prefix +
		render.Pad(t.DisplayTitle(), titleWidth) +
		render.Pad(t.Artist, artistWidth) +
		dur

	return m.trackStyle(idx, current).Render(line)
}

func (m Model) trackStyle(idx, current int) lipgloss.Style {
	s := styles.T().S()
	isCursor := idx == m.cursor && m.focused
	switch {
	case isCursor && idx == current:
		return s.Cursor.Inherit(s.Playing)
	case isCursor:
		return s.Cursor
	case idx == current:
		return s.Playing
	case idx < current:
		return s.Subtle
	default:
		return s.Base
	}
}
