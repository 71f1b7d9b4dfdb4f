package playback

import "sync/atomic"

const eventBufferSize = 16

// Subscription is one observer's view of the session. The session never
// blocks on a slow reader: an event that does not fit in its buffer is
// dropped and counted. Done is closed when the session closes.
type Subscription struct {
	StateChanged    <-chan StateChange
	PositionChanged <-chan PositionChange
	Error           <-chan ErrorEvent
	Done            <-chan struct{}

	state    chan StateChange
	position chan PositionChange
	errs     chan ErrorEvent
	done     chan struct{}
	dropped  atomic.Uint64
}

func newSubscription() *Subscription {
	s := &Subscription{
		state:    make(chan StateChange, eventBufferSize),
		position: make(chan PositionChange, eventBufferSize),
		errs:     make(chan ErrorEvent, eventBufferSize),
		done:     make(chan struct{}),
	}
	s.StateChanged = s.state
	s.PositionChanged = s.position
	s.Error = s.errs
	s.Done = s.done
	return s
}

// Dropped reports how many events overflowed this subscription's buffers.
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Subscription) close() {
	close(s.done)
}

func (s *Subscription) sendState(e StateChange)       { offer(s, s.state, e) }
func (s *Subscription) sendPosition(e PositionChange) { offer(s, s.position, e) }
func (s *Subscription) sendError(e ErrorEvent)        { offer(s, s.errs, e) }

func offer[T any](s *Subscription, ch chan T, e T) {
	select {
	case ch <- e:
	default:
		s.dropped.Add(1)
	}
}
