// Package mpris exposes the streaming session to desktop media controls
// (MPRIS over D-Bus). It is a no-op outside Linux.
package mpris

import (
	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/playback"
)

const (
	busName  = "alephplay"
	identity = "alephplay"
)

// Queue is the playlist context behind next/previous.
type Queue interface {
	Tracks() ([]catalog.Track, int)
	JumpTo(index int)
	HasNext() bool
	HasPrevious() bool
}

// Volume is the local output level.
type Volume interface {
	SetVolume(level float64)
	Volume() float64
}

type playStatus int

const (
	statusStopped playStatus = iota
	statusPlaying
	statusPaused
)

// controls maps media-key commands onto session intents. It holds no D-Bus
// state so it can be exercised on every platform.
type controls struct {
	session playback.Controller
	queue   Queue
	volume  Volume
}

func (c controls) Next() error {
	c.session.Next()
	return nil
}

func (c controls) Previous() error {
	c.session.Previous()
	return nil
}

func (c controls) Pause() error {
	if c.status() != statusPlaying {
		return nil
	}
	return c.session.Pause()
}

// Play resumes a paused track and starts the queue's current track from
// idle.
func (c controls) Play() error {
	snap := c.session.Snapshot()
	switch snap.Playback {
	case playback.StatePaused:
		return c.session.Resume()
	case playback.StateIdle:
		if _, current := c.queue.Tracks(); current >= 0 {
			c.queue.JumpTo(current)
		}
	}
	return nil
}

func (c controls) PlayPause() error {
	if c.session.Snapshot().Playback == playback.StateIdle {
		return c.Play()
	}
	return c.session.Toggle()
}

func (c controls) Stop() error {
	if !c.session.Snapshot().Playback.HasTrack() {
		return nil
	}
	return c.session.Stop()
}

func (c controls) status() playStatus {
	return statusOf(c.session.Snapshot().Playback)
}

func statusOf(s playback.State) playStatus {
	switch s {
	case playback.StatePlaying, playback.StateLoading:
		return statusPlaying
	case playback.StatePaused:
		return statusPaused
	}
	return statusStopped
}

func (c controls) canPlay() bool {
	tracks, _ := c.queue.Tracks()
	return len(tracks) > 0
}

func (c controls) level() float64 {
	if c.volume == nil {
		return 1.0
	}
	return c.volume.Volume()
}

func (c controls) setLevel(level float64) {
	if c.volume != nil {
		c.volume.SetVolume(level)
	}
}
