// Package playerbar renders the transport bar from a session snapshot.
package playerbar

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/alephplay/internal/icons"
	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/playlist"
	"github.com/llehouerou/alephplay/internal/transport"
	"github.com/llehouerou/alephplay/internal/ui/render"
)

// DisplayMode controls the player bar appearance.
type DisplayMode int

const (
	ModeCompact  DisplayMode = iota // Single-line view
	ModeExpanded                    // Detailed view with metadata
)

// State holds everything needed to render the player bar.
type State struct {
	Playback   playback.State
	Connection transport.Status
	TrackID    string
	Title      string
	Artist     string
	Album      string
	Position   time.Duration
	Duration   time.Duration

	QueueIndex int // 0-based; -1 when the track is not from the queue
	QueueLen   int

	Volume    float64
	Muted     bool
	HasVolume bool

	Error    string
	Blocking bool

	DisplayMode DisplayMode
}

// Height returns the total height of the player bar for the given mode,
// status line included.
func Height(mode DisplayMode) int {
	if mode == ModeExpanded {
		return 7 // 4 content rows + 2 border rows + status
	}
	return 4 // top border + content + bottom border + status
}

// NewState builds a State from a session snapshot.
func NewState(s playback.Snapshot, mode DisplayMode) State {
	st := State{
		Playback:    s.Playback,
		Connection:  s.Connection,
		TrackID:     s.TrackID,
		Title:       s.Track.Title,
		Artist:      s.Track.Artist,
		Album:       s.Track.Album,
		Position:    s.Position,
		Duration:    s.Duration,
		QueueIndex:  -1,
		Error:       s.LastError,
		Blocking:    s.Blocking,
		DisplayMode: mode,
	}
	if st.Duration == 0 {
		st.Duration = s.Track.Duration
	}
	return st
}

// WithQueue sets the queue position shown next to the title.
func (s State) WithQueue(index, length int) State {
	s.QueueIndex = index
	s.QueueLen = length
	return s
}

// WithVolume sets the volume indicator.
func (s State) WithVolume(volume float64, muted bool) State {
	s.Volume = volume
	s.Muted = muted
	s.HasVolume = true
	return s
}

// Render returns the player bar for the given width.
func Render(s State, width int) string {
	var bar string
	if s.DisplayMode == ModeExpanded {
		bar = RenderExpanded(s, width)
	} else {
		bar = renderCompact(s, width)
	}
	return bar + "\n" + RenderStatusLine(s, width)
}

func statusIcon(p playback.State) string {
	ic := icons.Get()
	switch p {
	case playback.StatePlaying:
		return ic.Play
	case playback.StatePaused:
		return ic.Pause
	case playback.StateLoading:
		return ic.Loading
	default:
		return ic.Stopped
	}
}

// title returns the line shown for the current track.
func title(s State) string {
	switch {
	case s.Playback == playback.StateIdle:
		return "Nothing playing"
	case s.Title != "":
		return s.Title
	case s.Playback == playback.StateLoading:
		return "Loading " + s.TrackID
	default:
		return "Unknown Track"
	}
}

func info(s State) string {
	var parts []string
	if s.Artist != "" {
		parts = append(parts, s.Artist)
	}
	if s.Album != "" {
		parts = append(parts, s.Album)
	}
	return strings.Join(parts, " · ")
}

func trackNumber(s State) string {
	if s.QueueIndex < 0 || s.QueueLen == 0 || s.Playback == playback.StateIdle {
		return ""
	}
	return fmt.Sprintf("%d/%d", s.QueueIndex+1, s.QueueLen)
}

func timeText(s State) string {
	if s.Playback == playback.StateIdle {
		return "--:-- / --:--"
	}
	return playlist.FormatDuration(s.Position) + " / " + playlist.FormatDuration(s.Duration)
}

func renderCompact(s State, width int) string {
	innerWidth := max(width-6, 0)

	status := statusIcon(s.Playback)
	t := render.Sanitize(title(s))
	in := render.Sanitize(info(s))
	trackNum := trackNumber(s)
	timeStr := timeText(s)

	statusWidth := lipgloss.Width(status)
	timeWidth := lipgloss.Width(timeStr)
	sepWidth := lipgloss.Width(separator)
	trackNumSpace := 0
	if trackNum != "" {
		trackNumSpace = lipgloss.Width(trackNum) + sepWidth
	}

	const minBarWidth = 10
	available := innerWidth - statusWidth - timeWidth - sepWidth*2 - minBarWidth - trackNumSpace

	titleWidth := lipgloss.Width(t)
	infoWidth := lipgloss.Width(in)

	var styledTitle, styledInfo string
	var used int
	switch {
	case in == "" && titleWidth <= available:
		styledTitle = titleStyle().Render(t)
		used = titleWidth
	case titleWidth+sepWidth+infoWidth <= available:
		styledTitle = titleStyle().Render(t)
		styledInfo = artistStyle().Render(in)
		used = titleWidth + sepWidth + infoWidth
	case titleWidth+sepWidth <= available && in != "":
		maxInfo := available - titleWidth - sepWidth
		styledTitle = titleStyle().Render(t)
		styledInfo = artistStyle().Render(render.Truncate(in, maxInfo))
		used = titleWidth + sepWidth + maxInfo
	default:
		maxTitle := max(available, 10)
		styledTitle = titleStyle().Render(render.Truncate(t, maxTitle))
		used = min(titleWidth, maxTitle)
	}

	barWidth := max(innerWidth-used-trackNumSpace-statusWidth-timeWidth-sepWidth*2-2, 5)

	var content strings.Builder
	content.WriteString(styledTitle)
	if styledInfo != "" {
		content.WriteString(separator)
		content.WriteString(styledInfo)
	}
	if trackNum != "" {
		content.WriteString(separator)
		content.WriteString(metaStyle().Render(trackNum))
	}
	content.WriteString(separator)
	content.WriteString(status)
	content.WriteString("  ")
	content.WriteString(lineBar(s.Position, s.Duration, barWidth))
	content.WriteString(separator)
	content.WriteString(progressTimeStyle().Render(timeStr))

	return barStyle().Padding(0, 2).Width(max(width-2, 0)).Render(content.String())
}
