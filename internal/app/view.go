package app

import (
	"fmt"
	"strings"

	"github.com/llehouerou/alephplay/internal/keymap"
	"github.com/llehouerou/alephplay/internal/ui/playerbar"
	"github.com/llehouerou/alephplay/internal/ui/render"
	"github.com/llehouerou/alephplay/internal/ui/styles"
)

// View renders the application UI.
func (m Model) View() string {
	if m.Width == 0 || m.Height == 0 {
		return ""
	}
	top := m.QueuePanel.View()
	if m.ShowHelp {
		top = m.renderHelp(max(m.Height-playerbar.Height(m.DisplayMode), 0))
	}
	return top + "\n" + m.renderPlayerBar()
}

func (m Model) renderPlayerBar() string {
	s := playerbar.NewState(m.Snapshot, m.DisplayMode)
	tracks, current := m.queue.Tracks()
	if current >= 0 && m.Snapshot.TrackID != "" && tracks[current].ID == m.Snapshot.TrackID {
		s = s.WithQueue(current, len(tracks))
	}
	if m.volume != nil {
		s = s.WithVolume(m.volume.Volume(), m.volume.Muted())
	}
	return playerbar.Render(s, m.Width)
}

// renderHelp lists the bindings per context in a panel of the given height.
func (m Model) renderHelp(height int) string {
	innerWidth := max(m.Width-2, 0)
	var lines []string
	for _, ctx := range keymap.Contexts {
		lines = append(lines, styles.T().S().Title.Render(render.Pad(string(ctx), innerWidth)))
		for _, b := range keymap.ByContext(m.keys.Bindings(), ctx) {
			keys := strings.Join(m.keys.KeysFor(b.Action), " ")
			line := fmt.Sprintf("  %-14s %s", keys, b.Description)
			lines = append(lines, render.Pad(line, innerWidth))
		}
	}
	inner := max(height-2, 0)
	if len(lines) > inner {
		lines = lines[:inner]
	}
	for len(lines) < inner {
		lines = append(lines, strings.Repeat(" ", innerWidth))
	}
	return styles.T().Panel(true).Width(innerWidth).Render(strings.Join(lines, "\n"))
}
