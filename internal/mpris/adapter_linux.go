//go:build linux

package mpris

import (
	"fmt"
	"hash/fnv"

	"github.com/godbus/dbus/v5"
	"github.com/quarckster/go-mpris-server/pkg/events"
	"github.com/quarckster/go-mpris-server/pkg/server"
	"github.com/quarckster/go-mpris-server/pkg/types"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/playback"
)

// Adapter serves the MPRIS interfaces and signals property changes as the
// session moves.
type Adapter struct {
	server *server.Server
	events *events.EventHandler
	logger *zap.Logger
	done   chan struct{}
}

// New registers alephplay on the session bus. volume may be nil.
func New(session playback.Controller, queue Queue, volume Volume, logger *zap.Logger) (*Adapter, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	player := &playerAdapter{controls{session: session, queue: queue, volume: volume}}
	srv := server.NewServer(busName, rootAdapter{}, player)
	a := &Adapter{
		server: srv,
		events: events.NewEventHandler(srv),
		logger: logger,
		done:   make(chan struct{}),
	}

	go func() {
		if err := srv.Listen(); err != nil {
			logger.Warn("mpris server stopped", zap.Error(err))
		}
	}()
	go a.watch(session.Subscribe())
	return a, nil
}

func (a *Adapter) watch(sub *playback.Subscription) {
	for {
		select {
		case e := <-sub.StateChanged:
			if c := diff(e); c.any() {
				a.signal(c)
			}
		case <-sub.Done:
			return
		case <-a.done:
			return
		}
	}
}

func (a *Adapter) signal(c changed) {
	if c.metadata {
		if err := a.events.Player.OnTitle(); err != nil {
			a.logger.Debug("emit metadata change", zap.Error(err))
		}
	}
	if c.status {
		if err := a.events.Player.OnPlayPause(); err != nil {
			a.logger.Debug("emit status change", zap.Error(err))
		}
	}
}

// Close stops signalling and releases the bus name.
func (a *Adapter) Close() error {
	close(a.done)
	return a.server.Stop()
}

// rootAdapter implements org.mpris.MediaPlayer2.
type rootAdapter struct{}

func (rootAdapter) Raise() error                          { return nil }
func (rootAdapter) Quit() error                           { return nil }
func (rootAdapter) CanQuit() (bool, error)                { return false, nil }
func (rootAdapter) CanRaise() (bool, error)               { return false, nil }
func (rootAdapter) HasTrackList() (bool, error)           { return false, nil }
func (rootAdapter) Identity() (string, error)             { return identity, nil }
func (rootAdapter) SupportedMimeTypes() ([]string, error) { return []string{"audio/mpeg"}, nil }

//nolint:revive // name fixed by the MPRIS interface
func (rootAdapter) SupportedUriSchemes() ([]string, error) {
	return []string{"http", "https"}, nil
}

// playerAdapter implements org.mpris.MediaPlayer2.Player on top of
// controls. Seeking is not part of the streaming protocol.
type playerAdapter struct {
	controls
}

func (p *playerAdapter) Seek(types.Microseconds) error                { return nil }
func (p *playerAdapter) SetPosition(string, types.Microseconds) error { return nil }
func (p *playerAdapter) Rate() (float64, error)                       { return 1.0, nil }
func (p *playerAdapter) SetRate(float64) error                        { return nil }
func (p *playerAdapter) MinimumRate() (float64, error)                { return 1.0, nil }
func (p *playerAdapter) MaximumRate() (float64, error)                { return 1.0, nil }
func (p *playerAdapter) CanSeek() (bool, error)                       { return false, nil }
func (p *playerAdapter) CanControl() (bool, error)                    { return true, nil }

//nolint:revive // name fixed by the MPRIS interface
func (p *playerAdapter) OpenUri(string) error {
	return nil
}

func (p *playerAdapter) PlaybackStatus() (types.PlaybackStatus, error) {
	switch p.status() {
	case statusPlaying:
		return types.PlaybackStatusPlaying, nil
	case statusPaused:
		return types.PlaybackStatusPaused, nil
	}
	return types.PlaybackStatusStopped, nil
}

func (p *playerAdapter) Metadata() (types.Metadata, error) {
	snap := p.session.Snapshot()
	if snap.TrackID == "" {
		return types.Metadata{}, nil
	}
	t := snap.Track
	length := snap.Duration
	if length == 0 {
		length = t.Duration
	}
	meta := types.Metadata{
		TrackId: dbus.ObjectPath(trackPath(snap.TrackID)),
		Length:  types.Microseconds(length.Microseconds()),
		Title:   t.DisplayTitle(),
		Album:   t.Album,
		ArtUrl:  t.CoverURL,
	}
	if t.Artist != "" {
		meta.Artist = []string{t.Artist}
	}
	return meta, nil
}

func (p *playerAdapter) Volume() (float64, error) { return p.level(), nil }

func (p *playerAdapter) SetVolume(level float64) error {
	p.setLevel(level)
	return nil
}

func (p *playerAdapter) Position() (int64, error) {
	return p.session.Snapshot().Position.Microseconds(), nil
}

func (p *playerAdapter) CanGoNext() (bool, error)     { return p.queue.HasNext(), nil }
func (p *playerAdapter) CanGoPrevious() (bool, error) { return p.queue.HasPrevious(), nil }
func (p *playerAdapter) CanPlay() (bool, error)       { return p.canPlay(), nil }
func (p *playerAdapter) CanPause() (bool, error)      { return p.session.Snapshot().Playback.HasTrack(), nil }

// trackPath maps a song id onto a D-Bus object path.
func trackPath(id string) string {
	h := fnv.New64a()
	h.Write([]byte(id))
	return fmt.Sprintf("/org/alephplay/track/%x", h.Sum64())
}
