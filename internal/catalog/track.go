// Package catalog holds the track model shared by the session and its UI
// surfaces, plus the lookup-by-id collaborator used to backfill incomplete
// song_data payloads.
package catalog

import (
	"strings"
	"time"

	"github.com/llehouerou/alephplay/internal/protocol"
)

// Track is a playable catalog item. Tracks are values: a track change
// replaces the whole Track, it is never mutated in place.
type Track struct {
	ID       string        `json:"id"`
	Title    string        `json:"title"`
	Artist   string        `json:"artist"`
	Album    string        `json:"album"`
	CoverURL string        `json:"cover_url"`
	AudioURL string        `json:"audio_url"`
	Duration time.Duration `json:"duration"`
}

// FromPayload normalizes a song_data payload into a Track.
func FromPayload(p *protocol.SongPayload) Track {
	if p == nil {
		return Track{}
	}
	return Track{
		ID:       strings.TrimSpace(p.TrackID()),
		Title:    strings.TrimSpace(p.Title),
		Artist:   strings.TrimSpace(p.Artist),
		Album:    strings.TrimSpace(p.Album),
		CoverURL: strings.TrimSpace(p.Cover()),
		AudioURL: strings.TrimSpace(p.AudioURL),
		Duration: time.Duration(float64(p.Duration) * float64(time.Second)),
	}
}

// Missing returns the names of the display fields that are empty.
// AudioURL is not included: the streaming backend owns it.
func (t Track) Missing() []string {
	var missing []string
	if t.Title == "" {
		missing = append(missing, "title")
	}
	if t.Artist == "" {
		missing = append(missing, "artist")
	}
	if t.Album == "" {
		missing = append(missing, "album")
	}
	if t.CoverURL == "" {
		missing = append(missing, "cover")
	}
	if t.Duration <= 0 {
		missing = append(missing, "duration")
	}
	return missing
}

// Complete reports whether no display field needs backfilling.
func (t Track) Complete() bool {
	return len(t.Missing()) == 0
}

// Merge returns t with its empty fields taken from other.
// Fields already set on t always win.
func (t Track) Merge(other Track) Track {
	if t.ID == "" {
		t.ID = other.ID
	}
	if t.Title == "" {
		t.Title = other.Title
	}
	if t.Artist == "" {
		t.Artist = other.Artist
	}
	if t.Album == "" {
		t.Album = other.Album
	}
	if t.CoverURL == "" {
		t.CoverURL = other.CoverURL
	}
	if t.AudioURL == "" {
		t.AudioURL = other.AudioURL
	}
	if t.Duration <= 0 {
		t.Duration = other.Duration
	}
	return t
}

// DisplayTitle returns the title or a placeholder.
func (t Track) DisplayTitle() string {
	if t.Title == "" {
		return "Unknown Track"
	}
	return t.Title
}
