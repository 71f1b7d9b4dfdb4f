package playback

import (
	"time"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/errmsg"
	"github.com/llehouerou/alephplay/internal/transport"
)

// Snapshot is a read-only copy of the session state.
type Snapshot struct {
	Connection transport.Status
	Playback   State
	TrackID    string
	Track      catalog.Track
	LastError  string
	// Blocking marks LastError as one the UI should surface prominently.
	// Soft warnings and connectivity notices leave it false.
	Blocking bool
	Position time.Duration
	Duration time.Duration
}

// withoutPosition drops the fields that change on every position sample.
func (s Snapshot) withoutPosition() Snapshot {
	s.Position = 0
	s.Duration = 0
	return s
}

// StateChange is emitted when anything but the position changes.
type StateChange struct {
	Previous Snapshot
	Current  Snapshot
}

// PositionChange is emitted on every media position sample.
type PositionChange struct {
	Position time.Duration
	Duration time.Duration
}

// ErrorEvent is emitted whenever lastError is set.
type ErrorEvent struct {
	Operation errmsg.Op
	TrackID   string
	Message   string
	Blocking  bool
}
