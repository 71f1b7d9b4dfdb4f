package playlist

import (
	"sync"

	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/bus"
	"github.com/llehouerou/alephplay/internal/catalog"
)

// Navigator holds the active playlist context. While attached it answers
// advance and retreat requests from the bus by publishing play requests,
// follows now-playing changes and, with autoplay, moves on when a track
// ends.
type Navigator struct {
	logger   *zap.Logger
	autoplay bool

	mu    sync.Mutex
	queue *Queue
	bus   *bus.Bus
	subs  bus.Group
}

// NewNavigator creates a detached navigator over queue.
func NewNavigator(queue *Queue, autoplay bool, logger *zap.Logger) *Navigator {
	if queue == nil {
		queue = NewQueue()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Navigator{queue: queue, autoplay: autoplay, logger: logger}
}

// Attach subscribes the navigator to b. Attaching again moves it to b.
func (n *Navigator) Attach(b *bus.Bus) {
	n.Detach()

	n.mu.Lock()
	n.bus = b
	n.mu.Unlock()

	n.subs.Add(b.Advance.Subscribe(func(bus.Advance) { n.step(1) }))
	n.subs.Add(b.Retreat.Subscribe(func(bus.Retreat) { n.step(-1) }))
	n.subs.Add(b.NowPlaying.Subscribe(n.nowPlaying))
	n.subs.Add(b.TrackFinished.Subscribe(n.finished))
}

// Detach drops every bus subscription.
func (n *Navigator) Detach() {
	n.subs.Close()
	n.mu.Lock()
	n.bus = nil
	n.mu.Unlock()
}

// Replace swaps the queue contents and requests the first track.
func (n *Navigator) Replace(tracks ...catalog.Track) {
	n.mu.Lock()
	first := n.queue.Replace(tracks...)
	n.mu.Unlock()
	if first != nil {
		n.request(first.ID)
	}
}

// Add appends tracks. An empty queue starts playing the first of them.
func (n *Navigator) Add(tracks ...catalog.Track) {
	n.mu.Lock()
	first := n.queue.Append(tracks...)
	n.mu.Unlock()
	if first != nil {
		n.request(first.ID)
	}
}

// Restore sets the queue without requesting playback, as when reloading a
// saved queue at startup.
func (n *Navigator) Restore(tracks []catalog.Track, index int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queue.Replace(tracks...)
	n.queue.JumpTo(index)
}

// JumpTo requests the track at index.
func (n *Navigator) JumpTo(index int) {
	n.mu.Lock()
	t := n.queue.JumpTo(index)
	n.mu.Unlock()
	if t != nil {
		n.request(t.ID)
	}
}

// Tracks returns the queued tracks and the current index.
func (n *Navigator) Tracks() ([]catalog.Track, int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue.Tracks(), n.queue.CurrentIndex()
}

// HasNext reports whether advance would request a track.
func (n *Navigator) HasNext() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue.HasNext()
}

// HasPrevious reports whether retreat would request a track.
func (n *Navigator) HasPrevious() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.queue.HasPrevious()
}

func (n *Navigator) step(dir int) {
	n.mu.Lock()
	var t *catalog.Track
	if dir > 0 {
		t = n.queue.Next()
	} else {
		t = n.queue.Previous()
	}
	n.mu.Unlock()

	if t == nil {
		n.logger.Debug("no track to move to", zap.Int("direction", dir))
		return
	}
	n.request(t.ID)
}

func (n *Navigator) nowPlaying(e bus.NowPlaying) {
	n.mu.Lock()
	defer n.mu.Unlock()
	i := n.queue.IndexOf(e.Track.ID)
	if i < 0 {
		// Started from outside this context.
		return
	}
	n.queue.JumpTo(i)
	// Keep the richer metadata the session resolved.
	if cur := n.queue.Current(); cur != nil {
		*cur = e.Track.Merge(*cur)
	}
}

func (n *Navigator) finished(e bus.TrackFinished) {
	if !n.autoplay || e.Reason != bus.ReasonEnded {
		return
	}
	n.mu.Lock()
	cur := n.queue.Current()
	own := cur != nil && cur.ID == e.Track.ID
	n.mu.Unlock()
	if own {
		n.step(1)
	}
}

func (n *Navigator) request(id string) {
	n.mu.Lock()
	b := n.bus
	n.mu.Unlock()
	if b == nil {
		return
	}
	n.logger.Debug("requesting track", zap.String("track_id", id))
	b.PlayRequested.Publish(bus.PlayRequest{TrackID: id})
}
