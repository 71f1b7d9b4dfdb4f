package player

import "time"

// EventKind identifies a media event.
type EventKind int

const (
	// EventReady fires once the source's header is decoded.
	EventReady EventKind = iota
	// EventPosition is a periodic position sample while playing.
	EventPosition
	// EventEnded fires when the source played to its end.
	EventEnded
	// EventError fires when the source cannot be fetched or decoded.
	EventError
)

func (k EventKind) String() string {
	switch k {
	case EventReady:
		return "ready"
	case EventPosition:
		return "position"
	case EventEnded:
		return "ended"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}

// Event is emitted by a driver. Source names the source the event belongs
// to, so receivers can drop events for a source they no longer care about.
type Event struct {
	Kind     EventKind
	Source   string
	Position time.Duration
	Duration time.Duration
	Err      error
}

// Interface is the local media driver contract. Implementations deliver
// events from their own goroutines, never from inside one of these methods.
type Interface interface {
	Load(source string) error
	Play()
	Pause()
	Stop()
	State() State
	Source() string
	Position() time.Duration
	Duration() time.Duration
	OnEvent(fn func(Event))
}

// Verify Player implements Interface at compile time.
var _ Interface = (*Player)(nil)
