package playback

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/errmsg"
	"github.com/llehouerou/alephplay/internal/player"
	"github.com/llehouerou/alephplay/internal/protocol"
	"github.com/llehouerou/alephplay/internal/transport"
)

// transportHandler keeps the transport callbacks off the Session API.
type transportHandler struct{ s *Session }

func (h transportHandler) HandleStatus(status transport.Status, err error) {
	h.s.handleConnection(status, err)
}

func (h transportHandler) HandleFrame(data []byte) {
	h.s.handleFrame(data)
}

func (s *Session) handleConnection(status transport.Status, err error) {
	_ = s.mutate(func(fx *effects) error {
		prev := s.conn
		s.conn = status

		if err != nil {
			s.setErrorLocked(fx, errmsg.OpConnect, "", errmsg.Format(errmsg.OpConnect, err), false)
			s.connError = true
		} else if status == transport.StatusConnected && s.connError {
			s.clearErrorLocked()
		}

		if status == transport.StatusConnected && prev != transport.StatusConnected {
			s.flushOwedStopsLocked()
		}

		if status == transport.StatusDisconnected && prev == transport.StatusConnected {
			// Answers for the old connection will not arrive.
			clear(s.stopsInFlight)
			clear(s.pausesInFlight)
			s.replies = nil
			if s.state == StateLoading {
				// The request died with the connection.
				s.logger.Info("connection lost while loading",
					zap.String("track_id", s.trackID))
				s.resetTrackLocked()
			}
			// Playing and paused tracks keep their media.
		}
		return nil
	})
}

func (s *Session) handleFrame(data []byte) {
	ev, err := protocol.DecodeEvent(data)
	if err != nil {
		s.logger.Warn("undecodable frame", zap.Error(err))
		_ = s.mutate(func(fx *effects) error {
			s.setErrorLocked(fx, errmsg.OpDecodeMsg, "", errmsg.Format(errmsg.OpDecodeMsg, err), false)
			return nil
		})
		return
	}

	switch ev.Kind {
	case protocol.EventSongData:
		s.handleSongData(ev)
	case protocol.EventStatus:
		s.handleStatus(ev)
	case protocol.EventError:
		s.handleError(ev)
	case protocol.EventUnknown:
		s.logger.Debug("ignoring unknown event", zap.String("type", ev.Type))
	}
}

func (s *Session) handleSongData(ev protocol.Event) {
	if ev.Song == nil {
		s.logger.Warn("song_data without song", zap.String("message", ev.Message))
		return
	}
	track := catalog.FromPayload(ev.Song)

	// Backfill outside the lock, only for the track still being loaded.
	s.mu.Lock()
	if track.ID == "" && s.state == StateLoading {
		track.ID = s.trackID
	}
	reply, answered := s.answerLocked(protocol.CommandPlay, track.ID)
	current := !answered || reply.gen == s.gen
	wanted := current && s.state == StateLoading && track.ID == s.trackID
	gen := s.gen
	s.mu.Unlock()
	if !wanted {
		s.logger.Debug("ignoring stale song_data", zap.String("track_id", track.ID))
		if current {
			s.confirmReplay(track)
		}
		return
	}
	if missing := track.Missing(); len(missing) > 0 && s.catalog != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.lookupTimeout)
		filled, err := catalog.Backfill(ctx, s.catalog, track)
		cancel()
		if err != nil {
			s.logger.Warn("backfill failed", zap.String("track_id", track.ID),
				zap.Strings("missing", missing), zap.Error(err))
		}
		track = filled
	}

	_ = s.mutate(func(fx *effects) error {
		if s.state != StateLoading || track.ID != s.trackID || s.gen != gen {
			return nil
		}
		if track.AudioURL == "" {
			s.setErrorLocked(fx, errmsg.OpStream, track.ID,
				errmsg.Warning(errmsg.OpStream, track.ID, "no audio source"), false)
			if err := s.sendStopLocked(track.ID); err != nil {
				s.logger.Warn("stop failed", zap.String("track_id", track.ID), zap.Error(err))
			}
			s.resetTrackLocked()
			return nil
		}
		if err := s.player.Load(track.AudioURL); err != nil {
			s.setErrorLocked(fx, errmsg.OpLoadMedia, track.ID,
				errmsg.FormatWith(errmsg.OpLoadMedia, track.DisplayTitle(), err), true)
			if err := s.sendStopLocked(track.ID); err != nil {
				s.logger.Warn("stop failed", zap.String("track_id", track.ID), zap.Error(err))
			}
			s.resetTrackLocked()
			return nil
		}
		s.player.Play()

		s.state = StatePlaying
		s.track = track
		s.source = track.AudioURL
		s.position = 0
		s.duration = track.Duration
		s.startedAt = s.now()
		s.logger.Info("now playing", zap.String("track_id", track.ID),
			zap.String("title", track.Title))

		b := s.bus
		fx.add(func() { b.NowPlaying.Publish(bus.NowPlaying{Track: track}) })
		return nil
	})
}

// confirmReplay handles the song_data answering a play sent after a failed
// resume. The media kept its position, so nothing is reloaded.
func (s *Session) confirmReplay(track catalog.Track) {
	_ = s.mutate(func(*effects) error {
		if !s.replaying || track.ID != s.trackID || !s.state.IsActive() {
			return nil
		}
		s.replaying = false
		s.track = s.track.Merge(track)
		s.logger.Debug("resume replaced by play", zap.String("track_id", track.ID))
		return nil
	})
}

func (s *Session) handleStatus(ev protocol.Event) {
	id := ev.TrackID()
	_ = s.mutate(func(fx *effects) error {
		switch ev.Status() {
		case protocol.StatusPaused:
			if takeLocked(s.pausesInFlight, id) || !s.appliesLocked(id) {
				return nil
			}
			// A server pause racing a newer resume is stale.
			if s.state == StatePlaying && !s.resumePendingLocked() {
				s.player.Pause()
				s.state = StatePaused
			}

		case protocol.StatusResumed:
			s.answerLocked(protocol.CommandResume, id)

		case protocol.StatusStopped:
			if s.ackStopLocked(id) {
				return nil
			}
			if !s.appliesLocked(id) {
				return nil
			}
			if s.state.IsActive() {
				s.finishedLocked(fx, bus.ReasonRemote, s.listenedLocked())
			}
			s.player.Stop()
			s.resetTrackLocked()

		case protocol.StatusUnknown:
			s.logger.Debug("unrecognized status", zap.String("message", ev.Message))
		}
		return nil
	})
}

// appliesLocked reports whether an event about id concerns the current
// track. Events that name no track apply to the current one.
func (s *Session) appliesLocked(id string) bool {
	if !s.state.HasTrack() {
		return false
	}
	return id == "" || id == s.trackID
}

// takeLocked consumes one outstanding command counted in counts for id, or
// for any track when id is empty.
func takeLocked(counts map[string]int, id string) bool {
	for k, n := range counts {
		if id != "" && k != id {
			continue
		}
		if n <= 1 {
			delete(counts, k)
		} else {
			counts[k] = n - 1
		}
		return true
	}
	return false
}

// ackStopLocked consumes an outstanding client stop matching id. A stop
// status naming no known track acknowledges any outstanding stop.
func (s *Session) ackStopLocked(id string) bool {
	if id != "" {
		if n := s.stopsInFlight[id]; n > 0 {
			if n == 1 {
				delete(s.stopsInFlight, id)
			} else {
				s.stopsInFlight[id] = n - 1
			}
			return true
		}
		if id == s.trackID {
			return false
		}
	}
	for k, n := range s.stopsInFlight {
		if n == 1 {
			delete(s.stopsInFlight, k)
		} else {
			s.stopsInFlight[k] = n - 1
		}
		return true
	}
	return false
}

// handleError applies a server error. Error frames name no track: one that
// answers a pending play or resume belongs to that request, and an error
// for an earlier request is dropped. Errors nothing asked for concern the
// current track.
func (s *Session) handleError(ev protocol.Event) {
	_ = s.mutate(func(fx *effects) error {
		id := s.trackID

		reply, answered := s.shiftReplyLocked()
		if answered && (reply.gen != s.gen || !s.state.HasTrack()) {
			s.logger.Info("ignoring error for an earlier request",
				zap.String("track_id", reply.trackID),
				zap.String("command", string(reply.kind)),
				zap.String("message", ev.Message))
			return nil
		}
		if answered && reply.kind == protocol.CommandResume {
			s.resumeRefusedLocked(fx, ev)
			return nil
		}

		if ev.AudioUnavailable() {
			s.setErrorLocked(fx, errmsg.OpStream, id, errmsg.Warning(errmsg.OpStream, id, ev.Message), false)
			if s.state == StateLoading {
				s.resetTrackLocked()
			}
			return nil
		}

		s.logger.Warn("server error", zap.String("track_id", id), zap.String("message", ev.Message))
		s.setErrorLocked(fx, errmsg.OpPlay, id, errmsg.FormatWith(errmsg.OpPlay, id, errors.New(ev.Message)), true)
		if !s.state.HasTrack() {
			return nil
		}
		// Only a started track has server-side accounting to flush.
		send := s.state.IsActive()
		if err := s.abandonLocked(fx, bus.ReasonError, send); err != nil {
			s.logger.Warn("stop failed", zap.String("track_id", id), zap.Error(err))
		}
		s.resetTrackLocked()
		return nil
	})
}

// resumeRefusedLocked handles a server that discarded the track session
// and answered resume with an error. The track is started afresh with a
// play, now if it is playing, or on the next resume if it was paused again.
func (s *Session) resumeRefusedLocked(fx *effects, ev protocol.Event) {
	id := s.trackID
	switch s.state {
	case StatePlaying:
		if s.replaying || s.resumePendingLocked() {
			// A later answer settles it.
			return
		}
		s.logger.Info("resume refused, replaying",
			zap.String("track_id", id), zap.String("message", ev.Message))
		if err := s.sendLocked(protocol.Play(id)); err != nil {
			s.setErrorLocked(fx, errmsg.OpResume, id, errmsg.FormatWith(errmsg.OpResume, id, err), false)
			return
		}
		s.replaying = true
		s.expectLocked(protocol.CommandPlay)
	case StatePaused:
		s.logger.Info("resume refused while paused, next resume replays",
			zap.String("track_id", id), zap.String("message", ev.Message))
		s.replayOnResume = true
	case StateIdle, StateLoading:
	}
}

func (s *Session) handleMedia(ev player.Event) {
	_ = s.mutate(func(fx *effects) error {
		if s.source == "" || ev.Source != s.source {
			return nil
		}

		switch ev.Kind {
		case player.EventReady:
			if ev.Duration > 0 {
				s.duration = ev.Duration
			}

		case player.EventPosition:
			s.position = ev.Position
			if ev.Duration > 0 {
				s.duration = ev.Duration
			}
			subs := s.subs
			pc := PositionChange{Position: s.position, Duration: s.duration}
			fx.add(func() {
				for _, sub := range subs {
					sub.sendPosition(pc)
				}
			})

		case player.EventEnded:
			id := s.trackID
			listened := ev.Position
			if listened <= 0 {
				listened = s.duration
			}
			s.finishedLocked(fx, bus.ReasonEnded, listened)
			if err := s.sendStopLocked(id); err != nil {
				s.logger.Warn("stop after end failed", zap.String("track_id", id), zap.Error(err))
			}
			s.resetTrackLocked()

		case player.EventError:
			id := s.trackID
			s.setErrorLocked(fx, errmsg.OpLoadMedia, id,
				errmsg.FormatWith(errmsg.OpLoadMedia, s.track.DisplayTitle(), ev.Err), true)
			send := s.state.IsActive()
			if err := s.abandonLocked(fx, bus.ReasonError, send); err != nil {
				s.logger.Warn("stop after media error failed", zap.String("track_id", id), zap.Error(err))
			}
			s.resetTrackLocked()
		}
		return nil
	})
}
