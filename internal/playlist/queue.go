// Package playlist holds the owning playlist context: the ordered tracks a
// user queued and the navigator that answers advance and retreat requests.
package playlist

import (
	"slices"

	"github.com/llehouerou/alephplay/internal/catalog"
)

// Queue is an ordered list of tracks with a cursor on the one playing.
// It is not safe for concurrent use; Navigator serializes access.
type Queue struct {
	tracks  []catalog.Track
	current int // -1 when nothing is selected
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{current: -1}
}

// Current returns the selected track, or nil.
func (q *Queue) Current() *catalog.Track {
	return q.at(q.current)
}

// CurrentIndex returns the selected position, -1 when none.
func (q *Queue) CurrentIndex() int {
	return q.current
}

func (q *Queue) at(i int) *catalog.Track {
	if i < 0 || i >= len(q.tracks) {
		return nil
	}
	return &q.tracks[i]
}

// HasNext reports whether a track follows the current one.
func (q *Queue) HasNext() bool {
	return q.current+1 < len(q.tracks)
}

// HasPrevious reports whether a track precedes the current one.
func (q *Queue) HasPrevious() bool {
	return q.current > 0
}

// Next moves the cursor forward and returns the new current track. At the
// end of the queue it returns nil and leaves the cursor alone.
func (q *Queue) Next() *catalog.Track {
	if !q.HasNext() {
		return nil
	}
	return q.JumpTo(q.current + 1)
}

// Previous moves the cursor back, returning nil at the start.
func (q *Queue) Previous() *catalog.Track {
	if !q.HasPrevious() {
		return nil
	}
	return q.JumpTo(q.current - 1)
}

// JumpTo selects index and returns its track. An invalid index returns nil
// and leaves the cursor alone.
func (q *Queue) JumpTo(index int) *catalog.Track {
	t := q.at(index)
	if t != nil {
		q.current = index
	}
	return t
}

// IndexOf returns the position of id, -1 when absent. When the id is queued
// more than once the current position wins.
func (q *Queue) IndexOf(id string) int {
	if cur := q.Current(); cur != nil && cur.ID == id {
		return q.current
	}
	return slices.IndexFunc(q.tracks, func(t catalog.Track) bool { return t.ID == id })
}

// Append adds tracks at the end. When nothing was selected the first added
// track becomes current and is returned.
func (q *Queue) Append(tracks ...catalog.Track) *catalog.Track {
	start := len(q.tracks)
	q.tracks = append(q.tracks, tracks...)
	if q.current >= 0 || len(tracks) == 0 {
		return nil
	}
	return q.JumpTo(start)
}

// Replace swaps the contents and selects the first track.
func (q *Queue) Replace(tracks ...catalog.Track) *catalog.Track {
	q.tracks = slices.Clone(tracks)
	q.current = -1
	return q.JumpTo(0)
}

// Tracks returns a copy of the queued tracks.
func (q *Queue) Tracks() []catalog.Track {
	return slices.Clone(q.tracks)
}

// Len returns the number of queued tracks.
func (q *Queue) Len() int {
	return len(q.tracks)
}
