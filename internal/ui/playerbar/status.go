package playerbar

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/alephplay/internal/icons"
	"github.com/llehouerou/alephplay/internal/transport"
	"github.com/llehouerou/alephplay/internal/ui/render"
	"github.com/llehouerou/alephplay/internal/ui/styles"
)

// RenderConnection renders the connection indicator.
func RenderConnection(status transport.Status) string {
	ic := icons.Get()
	s := styles.T().S()
	switch status {
	case transport.StatusConnected:
		return s.Success.Render(ic.Connected + " connected")
	case transport.StatusConnecting:
		return s.Warning.Render(ic.Connecting + " connecting")
	default:
		return s.Muted.Render(ic.Disconnected + " offline")
	}
}

// RenderVolumeCompact renders the volume indicator.
// Format: "🔊 100%" or "🔇 100%" when muted
func RenderVolumeCompact(volume float64, muted bool) string {
	pct := int(volume*100 + 0.5)
	icon := icons.Get().Volume
	if muted {
		icon = icons.Get().VolumeMute
	}
	return progressTimeStyle().Render(fmt.Sprintf("%s %3d%%", icon, pct))
}

// RenderStatusLine renders the line under the bar: the last error on the
// left, connection and volume on the right.
func RenderStatusLine(s State, width int) string {
	right := RenderConnection(s.Connection)
	if s.HasVolume {
		right = RenderVolumeCompact(s.Volume, s.Muted) + "  " + right
	}
	right += " "

	var left string
	if s.Error != "" {
		maxErr := max(width-lipgloss.Width(right)-3, 0)
		msg := render.Truncate(s.Error, maxErr)
		if s.Blocking {
			left = " " + styles.T().S().Error.Render(msg)
		} else {
			left = " " + styles.T().S().Warning.Render(msg)
		}
	}
	return render.Row(left, right, width)
}
