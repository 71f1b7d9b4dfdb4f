package lastfm

import (
	"time"

	"github.com/shkh/lastfm-go/lastfm"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/history"
)

const (
	minTrackLength = 30 * time.Second
	maxThreshold   = 4 * time.Minute
)

// ScrobbleTrack contains track metadata for scrobbling.
type ScrobbleTrack struct {
	Artist    string
	Track     string
	Album     string
	Duration  time.Duration
	Timestamp time.Time // When playback started
}

// FromTrack builds the scrobble for a catalog track started at startedAt.
func FromTrack(t catalog.Track, startedAt time.Time) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    t.Artist,
		Track:     t.Title,
		Album:     t.Album,
		Duration:  t.Duration,
		Timestamp: startedAt,
	}
}

// Valid reports whether Last.fm accepts the track at all.
func (t ScrobbleTrack) Valid() bool {
	return t.Artist != "" && t.Track != ""
}

func (t ScrobbleTrack) params() lastfm.P {
	p := lastfm.P{"artist": t.Artist, "track": t.Track}
	if t.Album != "" {
		p["album"] = t.Album
	}
	if t.Duration > 0 {
		p["duration"] = int(t.Duration.Seconds())
	}
	return p
}

func (t ScrobbleTrack) pending() history.PendingScrobble {
	return history.PendingScrobble{
		Artist:       t.Artist,
		Track:        t.Track,
		Album:        t.Album,
		DurationSecs: int(t.Duration.Seconds()),
		Timestamp:    t.Timestamp,
	}
}

func fromPending(p history.PendingScrobble) ScrobbleTrack {
	return ScrobbleTrack{
		Artist:    p.Artist,
		Track:     p.Track,
		Album:     p.Album,
		Duration:  time.Duration(p.DurationSecs) * time.Second,
		Timestamp: p.Timestamp,
	}
}

// ShouldScrobble applies the Last.fm rules: the track is at least 30s long
// and was listened to for half its length or 4 minutes, whichever comes
// first. With an unknown length only the 4 minute mark counts.
func ShouldScrobble(duration, listened time.Duration) bool {
	if duration <= 0 {
		return listened >= maxThreshold
	}
	if duration < minTrackLength {
		return false
	}
	threshold := min(duration/2, maxThreshold)
	return listened >= threshold
}
