// Package bus is the process-wide publish/subscribe surface that lets
// independently mounted UI surfaces request playback and follow now-playing
// changes without holding references to each other.
//
// Delivery is synchronous: Publish calls every subscriber on the publishing
// goroutine, in subscription order, before returning. Nothing is queued.
// A subscriber that panics is logged and skipped; the others still run.
package bus

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/catalog"
)

// Channel names a bus topic.
type Channel string

const (
	ChannelNowPlaying    Channel = "now-playing-changed"
	ChannelAdvance       Channel = "advance-track"
	ChannelRetreat       Channel = "retreat-track"
	ChannelPlayRequested Channel = "play-requested"
	ChannelTrackFinished Channel = "track-finished"
)

// Channels lists every topic carried by a Bus.
func Channels() []Channel {
	return []Channel{
		ChannelNowPlaying,
		ChannelAdvance,
		ChannelRetreat,
		ChannelPlayRequested,
		ChannelTrackFinished,
	}
}

// NowPlaying is published once per track that starts playing.
type NowPlaying struct {
	Track catalog.Track
}

// Advance asks the active playlist context to play the next track.
type Advance struct{}

// Retreat asks the active playlist context to play the previous track.
type Retreat struct{}

// PlayRequest asks the session to play a track.
type PlayRequest struct {
	TrackID string
}

// FinishReason tells why a track left the playing/paused states.
type FinishReason string

const (
	ReasonEnded      FinishReason = "ended"
	ReasonStopped    FinishReason = "stopped"
	ReasonSuperseded FinishReason = "superseded"
	ReasonError      FinishReason = "error"
	ReasonClosed     FinishReason = "closed"
	ReasonRemote     FinishReason = "remote"
)

// TrackFinished is published whenever a started track is finalized.
type TrackFinished struct {
	Track      catalog.Track
	Listened   time.Duration
	Reason     FinishReason
	StartedAt  time.Time
	FinishedAt time.Time
}

// Topic is a typed channel of the bus.
type Topic[T any] struct {
	name   Channel
	logger *zap.Logger

	mu     sync.Mutex
	nextID uint64
	subs   []subscriber[T]
}

type subscriber[T any] struct {
	id uint64
	fn func(T)
}

// NewTopic creates an empty topic.
func NewTopic[T any](name Channel) *Topic[T] {
	return newTopic[T](name, nil)
}

func newTopic[T any](name Channel, logger *zap.Logger) *Topic[T] {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Topic[T]{name: name, logger: logger}
}

// Name returns the channel name.
func (t *Topic[T]) Name() Channel { return t.name }

// Subscribe registers fn and returns a function that removes it. The
// returned function is safe to call more than once.
func (t *Topic[T]) Subscribe(fn func(T)) (unsubscribe func()) {
	t.mu.Lock()
	t.nextID++
	id := t.nextID
	t.subs = append(t.subs, subscriber[T]{id: id, fn: fn})
	t.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { t.remove(id) })
	}
}

func (t *Topic[T]) remove(id uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, s := range t.subs {
		if s.id == id {
			// Copy so an in-flight Publish keeps iterating its own snapshot.
			subs := make([]subscriber[T], 0, len(t.subs)-1)
			subs = append(subs, t.subs[:i]...)
			subs = append(subs, t.subs[i+1:]...)
			t.subs = subs
			return
		}
	}
}

// Publish delivers v to the current subscribers. Subscribers added or
// removed while a publish is running take effect from the next publish.
func (t *Topic[T]) Publish(v T) {
	t.mu.Lock()
	subs := t.subs
	t.mu.Unlock()

	for _, s := range subs {
		t.deliver(s, v)
	}
}

func (t *Topic[T]) deliver(s subscriber[T], v T) {
	defer func() {
		if r := recover(); r != nil {
			t.logger.Error("subscriber panicked",
				zap.String("channel", string(t.name)),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
	}()
	s.fn(v)
}

// Len returns the number of subscribers.
func (t *Topic[T]) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.subs)
}

// Bus groups the enumerated topics.
type Bus struct {
	NowPlaying    *Topic[NowPlaying]
	Advance       *Topic[Advance]
	Retreat       *Topic[Retreat]
	PlayRequested *Topic[PlayRequest]
	TrackFinished *Topic[TrackFinished]
}

// New creates a bus with all topics empty.
func New() *Bus {
	return NewWithLogger(nil)
}

// NewWithLogger creates a bus that logs subscriber panics to logger.
func NewWithLogger(logger *zap.Logger) *Bus {
	return &Bus{
		NowPlaying:    newTopic[NowPlaying](ChannelNowPlaying, logger),
		Advance:       newTopic[Advance](ChannelAdvance, logger),
		Retreat:       newTopic[Retreat](ChannelRetreat, logger),
		PlayRequested: newTopic[PlayRequest](ChannelPlayRequested, logger),
		TrackFinished: newTopic[TrackFinished](ChannelTrackFinished, logger),
	}
}

// Group collects unsubscribe functions so a surface can drop all of its
// subscriptions at unmount.
type Group struct {
	mu    sync.Mutex
	unsub []func()
}

// Add records an unsubscribe function.
func (g *Group) Add(unsub func()) {
	g.mu.Lock()
	g.unsub = append(g.unsub, unsub)
	g.mu.Unlock()
}

// Close removes every recorded subscription.
func (g *Group) Close() {
	g.mu.Lock()
	unsub := g.unsub
	g.unsub = nil
	g.mu.Unlock()
	for _, fn := range unsub {
		fn()
	}
}
