package mpris

import "github.com/llehouerou/alephplay/internal/playback"

// changed lists the MPRIS properties a session transition invalidates.
type changed struct {
	metadata bool
	status   bool
}

func (c changed) any() bool { return c.metadata || c.status }

func diff(e playback.StateChange) changed {
	prev, cur := e.Previous, e.Current
	return changed{
		metadata: prev.TrackID != cur.TrackID || prev.Track.Title != cur.Track.Title ||
			prev.Duration != cur.Duration,
		status: statusOf(prev.Playback) != statusOf(cur.Playback),
	}
}
