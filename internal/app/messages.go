package app

import (
	"time"

	"github.com/llehouerou/alephplay/internal/playback"
)

// SessionStateMsg carries a session state change.
type SessionStateMsg struct {
	Previous playback.Snapshot
	Current  playback.Snapshot
}

// SessionPositionMsg carries a media position sample.
type SessionPositionMsg struct {
	Position time.Duration
	Duration time.Duration
}

// SessionErrorMsg carries an error the session surfaced.
type SessionErrorMsg struct {
	Event playback.ErrorEvent
}

// SessionClosedMsg is sent once the session closed its subscriptions.
type SessionClosedMsg struct{}

// TickMsg refreshes the view periodically.
type TickMsg time.Time

// ReconnectResultMsg reports a forced reconnect attempt.
type ReconnectResultMsg struct {
	Err error
}
