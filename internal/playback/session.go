// Package playback implements the streaming session: it turns user intent
// into an ordered conversation with the streaming service and keeps the
// local media driver, the event bus and server-side duration accounting
// consistent with each other.
//
// All state lives behind one mutex. Transport sends and media driver calls
// happen under it, so commands reach the socket in program order. Bus
// publishes and subscription notifications are collected while locked and
// run after unlock, which lets subscribers call back into the session.
package playback

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/errmsg"
	"github.com/llehouerou/alephplay/internal/player"
	"github.com/llehouerou/alephplay/internal/protocol"
	"github.com/llehouerou/alephplay/internal/transport"
)

var (
	// ErrNotConnected rejects commands issued while disconnected.
	ErrNotConnected = errors.New("not connected to streaming service")
	// ErrNoActiveTrack is returned by commands that need a current track.
	ErrNoActiveTrack = errors.New("no active track")
	// ErrClosed is returned after Close.
	ErrClosed = errors.New("session closed")
)

const (
	DefaultInitialDelay  = 100 * time.Millisecond
	DefaultLookupTimeout = 5 * time.Second
)

// Deps are the collaborators of a Session.
type Deps struct {
	Transport Transport
	Player    player.Interface
	Bus       *bus.Bus
	Catalog   catalog.Lookup // optional; backfills incomplete song_data
	Logger    *zap.Logger

	// InitialDelay separates Open from the first connect attempt.
	InitialDelay  time.Duration
	LookupTimeout time.Duration
	Now           func() time.Time
}

// Session is the client-side aggregate for one mounted application.
type Session struct {
	transport     Transport
	player        player.Interface
	bus           *bus.Bus
	catalog       catalog.Lookup
	logger        *zap.Logger
	initialDelay  time.Duration
	lookupTimeout time.Duration
	now           func() time.Time

	mu        sync.Mutex
	conn      transport.Status
	state     State
	trackID   string
	track     catalog.Track
	source    string
	lastError string
	blocking  bool
	connError bool
	position  time.Duration
	duration  time.Duration
	startedAt time.Time

	// gen numbers track requests. Each pending reply remembers the request
	// it belongs to.
	gen uint64
	// replies lists sent play and resume commands still waiting for their
	// answer, oldest first. The server answers in order and error frames
	// name no track, so an error belongs to the oldest entry.
	replies []pendingReply
	// replaying is set after a failed resume fell back to a fresh play; the
	// next song_data confirms the track without reloading the media.
	replaying bool
	// replayOnResume is set when a resume was refused after the track had
	// been paused again. The next resume goes out as a play.
	replayOnResume bool
	// stopsInFlight counts client stops the server has not acknowledged.
	stopsInFlight map[string]int
	// pausesInFlight counts client pauses the server has not acknowledged.
	pausesInFlight map[string]int
	// owedStops lists tracks stopped while disconnected. Their stop is sent
	// when the connection comes back.
	owedStops []string

	opened       bool
	closed       bool
	cancel       context.CancelFunc
	connectTimer *time.Timer
	busSubs      bus.Group
	subs         []*Subscription
}

// New creates a session. Nothing happens until Open.
func New(d Deps) *Session {
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if d.Bus == nil {
		d.Bus = bus.New()
	}
	if d.InitialDelay < 0 {
		d.InitialDelay = 0
	}
	if d.LookupTimeout <= 0 {
		d.LookupTimeout = DefaultLookupTimeout
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return &Session{
		transport:      d.Transport,
		player:         d.Player,
		bus:            d.Bus,
		catalog:        d.Catalog,
		logger:         logger,
		initialDelay:   d.InitialDelay,
		lookupTimeout:  d.LookupTimeout,
		now:            d.Now,
		conn:           d.Transport.Status(),
		stopsInFlight:  make(map[string]int),
		pausesInFlight: make(map[string]int),
	}
}

// effects collects work that must run after the session lock is released.
type effects []func()

func (fx *effects) add(fn func()) { *fx = append(*fx, fn) }

func (fx effects) run() {
	for _, fn := range fx {
		fn()
	}
}

// mutate runs fn under the lock, then notifies subscribers of any state
// change and runs the collected effects.
func (s *Session) mutate(fn func(fx *effects) error) error {
	var fx effects
	s.mu.Lock()
	before := s.snapshotLocked().withoutPosition()
	err := fn(&fx)
	after := s.snapshotLocked()
	if after.withoutPosition() != before {
		subs := s.subs
		change := StateChange{Previous: before, Current: after}
		fx.add(func() {
			for _, sub := range subs {
				sub.sendState(change)
			}
		})
	}
	s.mu.Unlock()
	fx.run()
	return err
}

// Open mounts the session: it binds the transport and media handlers,
// listens for play requests on the bus and connects after the initial
// delay.
func (s *Session) Open(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.opened {
		s.mu.Unlock()
		return nil
	}
	s.opened = true
	ctx, s.cancel = context.WithCancel(ctx)
	s.mu.Unlock()

	s.transport.SetHandler(transportHandler{s})
	s.player.OnEvent(s.handleMedia)
	s.busSubs.Add(s.bus.PlayRequested.Subscribe(func(req bus.PlayRequest) {
		if err := s.Play(req.TrackID); err != nil {
			s.logger.Debug("play request rejected",
				zap.String("track_id", req.TrackID), zap.Error(err))
		}
	}))

	s.mu.Lock()
	s.connectTimer = time.AfterFunc(s.initialDelay, func() {
		if err := s.transport.Connect(ctx); err != nil {
			s.logger.Warn("initial connect failed", zap.Error(err))
		}
	})
	s.mu.Unlock()
	return nil
}

// Close unmounts the session. An active track is stopped on the server,
// the connection is closed without reconnecting and the media is stopped.
func (s *Session) Close() error {
	var subs []*Subscription
	already := false
	err := s.mutate(func(fx *effects) error {
		if s.closed {
			already = true
			return nil
		}
		s.closed = true
		if s.connectTimer != nil {
			s.connectTimer.Stop()
			s.connectTimer = nil
		}
		if s.cancel != nil {
			s.cancel()
		}
		if s.state.HasTrack() {
			send := s.conn == transport.StatusConnected
			if err := s.abandonLocked(fx, bus.ReasonClosed, send); err != nil {
				s.logger.Warn("stop on close failed", zap.Error(err))
			}
			s.resetTrackLocked()
		}
		s.player.Stop()
		subs = s.subs
		s.subs = nil
		return nil
	})
	if already {
		return nil
	}

	s.busSubs.Close()
	s.player.OnEvent(nil)
	s.transport.Disconnect()
	for _, sub := range subs {
		sub.close()
	}
	s.logger.Debug("session closed")
	return err
}

// Play requests a track. A different current track is stopped on the
// server before the new one is requested.
func (s *Session) Play(trackID string) error {
	if trackID == "" {
		return protocol.ErrEmptyTrackID
	}
	return s.mutate(func(fx *effects) error {
		if err := s.commandableLocked(fx, errmsg.OpPlay, trackID); err != nil {
			return err
		}

		if trackID == s.trackID {
			switch s.state {
			case StatePaused:
				return s.resumeLocked(fx)
			case StateLoading, StatePlaying:
				return nil
			case StateIdle:
			}
		}

		if s.state.HasTrack() {
			err := s.abandonLocked(fx, bus.ReasonSuperseded, true)
			s.resetTrackLocked()
			if err != nil {
				s.setErrorLocked(fx, errmsg.OpPlay, trackID, errmsg.FormatWith(errmsg.OpPlay, trackID, err), false)
				return err
			}
		}

		if err := s.sendLocked(protocol.Play(trackID)); err != nil {
			s.setErrorLocked(fx, errmsg.OpPlay, trackID, errmsg.FormatWith(errmsg.OpPlay, trackID, err), false)
			return err
		}

		s.gen++
		s.state = StateLoading
		s.trackID = trackID
		s.track = catalog.Track{ID: trackID}
		s.expectLocked(protocol.CommandPlay)
		s.clearErrorLocked()
		return nil
	})
}

// Pause pauses the media immediately and tells the server.
func (s *Session) Pause() error {
	return s.mutate(func(fx *effects) error {
		switch s.state {
		case StateIdle:
			return ErrNoActiveTrack
		case StateLoading, StatePaused:
			return nil
		case StatePlaying:
		}
		if err := s.commandableLocked(fx, errmsg.OpPause, s.trackID); err != nil {
			return err
		}

		s.player.Pause()
		s.state = StatePaused
		if err := s.sendLocked(protocol.Pause(s.trackID)); err != nil {
			s.setErrorLocked(fx, errmsg.OpPause, s.trackID, errmsg.FormatWith(errmsg.OpPause, s.trackID, err), false)
			return err
		}
		s.pausesInFlight[s.trackID]++
		return nil
	})
}

// Resume restarts the media immediately and tells the server.
func (s *Session) Resume() error {
	return s.mutate(func(fx *effects) error {
		switch s.state {
		case StateIdle:
			return ErrNoActiveTrack
		case StateLoading, StatePlaying:
			return nil
		case StatePaused:
		}
		if err := s.commandableLocked(fx, errmsg.OpResume, s.trackID); err != nil {
			return err
		}
		return s.resumeLocked(fx)
	})
}

func (s *Session) resumeLocked(fx *effects) error {
	cmd := protocol.Resume(s.trackID)
	if s.replayOnResume {
		cmd = protocol.Play(s.trackID)
	}
	s.player.Play()
	s.state = StatePlaying
	if err := s.sendLocked(cmd); err != nil {
		s.setErrorLocked(fx, errmsg.OpResume, s.trackID, errmsg.FormatWith(errmsg.OpResume, s.trackID, err), false)
		return err
	}
	if cmd.Kind == protocol.CommandPlay {
		s.logger.Debug("resume sent as play", zap.String("track_id", s.trackID))
		s.replayOnResume = false
		s.replaying = true
	}
	s.expectLocked(cmd.Kind)
	return nil
}

// Toggle pauses a playing track or resumes a paused one.
func (s *Session) Toggle() error {
	switch s.Snapshot().Playback {
	case StatePlaying:
		return s.Pause()
	case StatePaused:
		return s.Resume()
	case StateIdle:
		return ErrNoActiveTrack
	case StateLoading:
	}
	return nil
}

// Stop ends the current track. The media stops even when disconnected;
// the server gets its stop once the connection is back.
func (s *Session) Stop() error {
	return s.mutate(func(fx *effects) error {
		if s.closed || !s.state.HasTrack() {
			return nil
		}
		err := s.abandonLocked(fx, bus.ReasonStopped, true)
		if err != nil {
			s.setErrorLocked(fx, errmsg.OpStop, s.trackID, errmsg.FormatWith(errmsg.OpStop, s.trackID, err), false)
		}
		s.resetTrackLocked()
		return err
	})
}

// Next asks the owning playlist context for the next track.
func (s *Session) Next() {
	s.bus.Advance.Publish(bus.Advance{})
}

// Previous asks the owning playlist context for the previous track.
func (s *Session) Previous() {
	s.bus.Retreat.Publish(bus.Retreat{})
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Connection: s.conn,
		Playback:   s.state,
		TrackID:    s.trackID,
		Track:      s.track,
		LastError:  s.lastError,
		Blocking:   s.blocking,
		Position:   s.position,
		Duration:   s.duration,
	}
}

// Subscribe creates a new event subscription.
func (s *Session) Subscribe() *Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub := newSubscription()
	if s.closed {
		sub.close()
		return sub
	}
	s.subs = append(s.subs, sub)
	return sub
}

// commandableLocked rejects commands while closed or disconnected.
func (s *Session) commandableLocked(fx *effects, op errmsg.Op, trackID string) error {
	if s.closed {
		return ErrClosed
	}
	if s.conn != transport.StatusConnected {
		s.setErrorLocked(fx, op, trackID, errmsg.FormatWith(op, trackID, ErrNotConnected), false)
		return ErrNotConnected
	}
	return nil
}

// abandonLocked leaves the current track: the media stops, the server gets
// a stop when the track had started (or was requested), and an active
// track is reported as finished. It does not reset the current track.
func (s *Session) abandonLocked(fx *effects, reason bus.FinishReason, send bool) error {
	id := s.trackID
	wasActive := s.state.IsActive()
	listened := s.listenedLocked()

	s.player.Stop()
	s.source = ""
	s.replaying = false
	s.replayOnResume = false

	if wasActive {
		s.finishedLocked(fx, reason, listened)
	}
	if !send {
		return nil
	}
	return s.sendStopLocked(id)
}

// sendStopLocked sends stop(id). While disconnected the stop is owed and
// goes out on the next connection.
func (s *Session) sendStopLocked(id string) error {
	err := s.sendLocked(protocol.Stop(id))
	if errors.Is(err, ErrNotConnected) {
		if !slices.Contains(s.owedStops, id) {
			s.owedStops = append(s.owedStops, id)
		}
		s.logger.Debug("stop owed until reconnect", zap.String("track_id", id))
		return nil
	}
	if err != nil {
		return err
	}
	s.stopsInFlight[id]++
	return nil
}

// flushOwedStopsLocked sends the stops owed from the last disconnection.
func (s *Session) flushOwedStopsLocked() {
	owed := s.owedStops
	s.owedStops = nil
	for _, id := range owed {
		if err := s.sendStopLocked(id); err != nil {
			s.logger.Warn("owed stop failed", zap.String("track_id", id), zap.Error(err))
		}
	}
}

// pendingReply is a sent command that may still be answered by an error.
type pendingReply struct {
	kind    protocol.CommandKind
	trackID string
	gen     uint64
}

// expectLocked records that a reply is owed for a command about the
// current request.
func (s *Session) expectLocked(kind protocol.CommandKind) {
	s.replies = append(s.replies, pendingReply{kind: kind, trackID: s.trackID, gen: s.gen})
}

// shiftReplyLocked takes the oldest pending reply.
func (s *Session) shiftReplyLocked() (pendingReply, bool) {
	if len(s.replies) == 0 {
		return pendingReply{}, false
	}
	r := s.replies[0]
	s.replies = s.replies[1:]
	return r, true
}

// answerLocked takes the oldest pending reply of kind for id (any id when
// empty). Older entries were answered before it and are dropped with it.
func (s *Session) answerLocked(kind protocol.CommandKind, id string) (pendingReply, bool) {
	i := slices.IndexFunc(s.replies, func(r pendingReply) bool {
		return r.kind == kind && (id == "" || r.trackID == id)
	})
	if i < 0 {
		return pendingReply{}, false
	}
	r := s.replies[i]
	s.replies = s.replies[i+1:]
	return r, true
}

// resumePendingLocked reports whether a resume of the current request is
// still unanswered.
func (s *Session) resumePendingLocked() bool {
	return slices.ContainsFunc(s.replies, func(r pendingReply) bool {
		return r.kind == protocol.CommandResume && r.gen == s.gen
	})
}

func (s *Session) finishedLocked(fx *effects, reason bus.FinishReason, listened time.Duration) {
	ev := bus.TrackFinished{
		Track:      s.track,
		Listened:   listened,
		Reason:     reason,
		StartedAt:  s.startedAt,
		FinishedAt: s.now(),
	}
	b := s.bus
	fx.add(func() { b.TrackFinished.Publish(ev) })
}

func (s *Session) listenedLocked() time.Duration {
	if !s.state.IsActive() {
		return 0
	}
	if pos := s.player.Position(); pos > 0 {
		return pos
	}
	return s.position
}

func (s *Session) resetTrackLocked() {
	s.state = StateIdle
	s.trackID = ""
	s.track = catalog.Track{}
	s.source = ""
	s.position = 0
	s.duration = 0
	s.startedAt = time.Time{}
	s.replaying = false
	s.replayOnResume = false
}

func (s *Session) sendLocked(cmd protocol.Command) error {
	data, err := protocol.EncodeCommand(cmd)
	if err != nil {
		return err
	}
	if err := s.transport.Send(data); err != nil {
		if errors.Is(err, transport.ErrNotConnected) {
			return ErrNotConnected
		}
		return err
	}
	s.logger.Debug("sent", zap.String("command", cmd.String()))
	return nil
}

func (s *Session) setErrorLocked(fx *effects, op errmsg.Op, trackID, msg string, blocking bool) {
	s.lastError = msg
	s.blocking = blocking
	s.connError = false
	subs := s.subs
	ev := ErrorEvent{Operation: op, TrackID: trackID, Message: msg, Blocking: blocking}
	fx.add(func() {
		for _, sub := range subs {
			sub.sendError(ev)
		}
	})
}

func (s *Session) clearErrorLocked() {
	s.lastError = ""
	s.blocking = false
	s.connError = false
}
