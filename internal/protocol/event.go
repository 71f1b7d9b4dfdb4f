package protocol

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// EventKind is the discriminant of a server-to-client frame.
type EventKind string

const (
	EventSongData EventKind = "song_data"
	EventStatus   EventKind = "status"
	EventError    EventKind = "error"

	// EventUnknown marks a frame whose tag this client does not understand.
	EventUnknown EventKind = ""
)

// Event is a decoded server frame.
type Event struct {
	Kind    EventKind
	Type    string // raw tag, kept for logging unknown kinds
	Message string
	Song    *SongPayload
	SongID  string // optional explicit track reference on status frames
}

type wireEvent struct {
	Type    string       `json:"type"`
	Message string       `json:"message"`
	Song    *SongPayload `json:"song,omitempty"`
	SongID  string       `json:"songId,omitempty"`
}

// DecodeEvent parses a server frame. Malformed JSON or a missing tag yields a
// *DecodeError; an unrecognized tag yields an EventUnknown event.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return Event{}, &DecodeError{Raw: data, Err: err}
	}
	if w.Type == "" {
		return Event{}, &DecodeError{Raw: data, Err: errMissingType}
	}

	ev := Event{
		Type:    w.Type,
		Message: w.Message,
		Song:    w.Song,
		SongID:  w.SongID,
	}
	switch EventKind(w.Type) {
	case EventSongData, EventStatus, EventError:
		ev.Kind = EventKind(w.Type)
	default:
		ev.Kind = EventUnknown
	}
	return ev, nil
}

// EncodeEvent serializes a server frame (used by the reference backend).
func EncodeEvent(ev Event) ([]byte, error) {
	tag := ev.Type
	if tag == "" {
		tag = string(ev.Kind)
	}
	return json.Marshal(wireEvent{
		Type:    tag,
		Message: ev.Message,
		Song:    ev.Song,
		SongID:  ev.SongID,
	})
}

// StatusKind classifies a status frame.
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusPaused
	StatusStopped
	StatusResumed
)

func (s StatusKind) String() string {
	switch s {
	case StatusPaused:
		return "paused"
	case StatusStopped:
		return "stopped"
	case StatusResumed:
		return "resumed"
	default:
		return "unknown"
	}
}

// The backend answers in Spanish ("Canción 42 pausada"); English wording is
// accepted as well.
var statusWords = []struct {
	word string
	kind StatusKind
}{
	{"pausada", StatusPaused},
	{"paused", StatusPaused},
	{"detenida", StatusStopped},
	{"stopped", StatusStopped},
	{"reanudada", StatusResumed},
	{"resumed", StatusResumed},
}

// Status classifies a status frame by its message text.
func (e Event) Status() StatusKind {
	if e.Kind != EventStatus {
		return StatusUnknown
	}
	msg := strings.ToLower(e.Message)
	for _, sw := range statusWords {
		if strings.Contains(msg, sw.word) {
			return sw.kind
		}
	}
	return StatusUnknown
}

// TrackID returns the track a frame refers to, or "" when it cannot tell.
// An explicit songId wins; status frames fall back to the id embedded in the
// message ("Canción <id> pausada", "song <id> paused").
func (e Event) TrackID() string {
	if e.SongID != "" {
		return e.SongID
	}
	if e.Song != nil {
		if id := e.Song.TrackID(); id != "" {
			return id
		}
	}
	if e.Kind != EventStatus {
		return ""
	}
	fields := strings.Fields(e.Message)
	for i := 0; i+2 < len(fields); i++ {
		w := strings.ToLower(fields[i])
		if w == "canción" || w == "cancion" || w == "song" || w == "track" {
			return fields[i+1]
		}
	}
	return ""
}

var audioUnavailableMarkers = []string{
	"no tiene audio disponible",
	"audio unavailable",
	"no audio available",
}

// AudioUnavailable reports whether an error frame says the track has no
// playable audio. Such errors are soft warnings.
func (e Event) AudioUnavailable() bool {
	if e.Kind != EventError {
		return false
	}
	msg := strings.ToLower(e.Message)
	for _, m := range audioUnavailableMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// SongPayload is the track object carried by song_data frames. The event and
// the catalog use divergent field names, so both spellings are accepted.
type SongPayload struct {
	MongoID     string   `json:"_id,omitempty"`
	ID          string   `json:"id,omitempty"`
	Title       string   `json:"title,omitempty"`
	Artist      string   `json:"artist,omitempty"`
	Album       string   `json:"album,omitempty"`
	ImageURL    string   `json:"image_url,omitempty"`
	CoverURL    string   `json:"cover_url,omitempty"`
	AudioURL    string   `json:"audio_url,omitempty"`
	Duration    Duration `json:"duration,omitempty"`
	SpotifyID   string   `json:"spotify_id,omitempty"`
	AlbumID     string   `json:"album_id,omitempty"`
	ReleaseDate string   `json:"release_date,omitempty"`
}

// TrackID returns the first non-empty identifier.
func (s *SongPayload) TrackID() string {
	if s.ID != "" {
		return s.ID
	}
	return s.MongoID
}

// Cover returns the first non-empty cover reference.
func (s *SongPayload) Cover() string {
	if s.ImageURL != "" {
		return s.ImageURL
	}
	return s.CoverURL
}

// Duration holds a nominal track length in seconds. It decodes both a number
// of seconds and a "m:ss" / "h:mm:ss" string.
type Duration float64

func (d *Duration) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*d = 0
		return nil
	}
	if b[0] != '"' {
		f, err := strconv.ParseFloat(string(b), 64)
		if err != nil {
			return err
		}
		*d = Duration(f)
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	secs, ok := ParseClock(s)
	if !ok {
		// Unparseable durations are metadata noise, not a frame error.
		*d = 0
		return nil
	}
	*d = Duration(secs)
	return nil
}

// ParseClock parses "ss", "m:ss" or "h:mm:ss" into seconds.
func ParseClock(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	parts := strings.Split(s, ":")
	if len(parts) > 3 {
		return 0, false
	}
	var total float64
	for _, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil || v < 0 {
			return 0, false
		}
		total = total*60 + v
	}
	return total, true
}
