package playerbar

import (
	"strings"

	"github.com/llehouerou/alephplay/internal/ui/render"
)

const contentRows = 4 // Must match Height(ModeExpanded) - 3

// RenderExpanded renders the detailed view: title, artist, album and a
// block progress bar.
func RenderExpanded(s State, width int) string {
	innerWidth := max(width-6, 0)
	if innerWidth < 34 {
		return renderCompact(s, width)
	}

	artist := s.Artist
	if artist == "" {
		artist = "Unknown Artist"
	}
	album := s.Album
	if album == "" {
		album = "Unknown Album"
	}
	t := title(s)
	if n := trackNumber(s); n != "" {
		t += "  " + metaStyle().Render(n)
	}

	lines := []string{
		titleStyle().Render(render.Truncate(t, innerWidth)),
		artistStyle().Render(render.Truncate(artist, innerWidth)),
		metaStyle().Render(render.Truncate(album, innerWidth)),
		blockBar(s, innerWidth),
	}
	for len(lines) < contentRows {
		lines = append(lines, "")
	}

	return barStyle().Padding(0, 2).Width(max(width-2, 0)).Render(strings.Join(lines[:contentRows], "\n"))
}
