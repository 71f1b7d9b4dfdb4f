// internal/playback/state.go
package playback

// State is the playback status of a session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StatePlaying
	StatePaused
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateLoading:
		return "Loading"
	case StatePlaying:
		return "Playing"
	case StatePaused:
		return "Paused"
	default:
		return "Unknown"
	}
}

// IsActive returns true if a track has started (playing or paused). Only
// active tracks owe the server a stop.
func (s State) IsActive() bool {
	return s == StatePlaying || s == StatePaused
}

// HasTrack returns true if the session holds a current track.
func (s State) HasTrack() bool {
	return s != StateIdle
}
