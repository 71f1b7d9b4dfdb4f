package player

import (
	"errors"
	"sync"
	"time"
)

// Mock is a test double for Player. Simulate* helpers emit events on the
// calling goroutine, like a driver goroutine would.
type Mock struct {
	mu          sync.Mutex
	state       State
	source      string
	position    time.Duration
	duration    time.Duration
	pendingPlay bool
	loadErr     error
	calls       []string
	loads       []string
	onEvent     func(Event)
}

// NewMock creates a new mock player for testing.
func NewMock() *Mock {
	return &Mock{state: Stopped}
}

func (m *Mock) Load(source string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "load:"+source)
	if source == "" {
		return errors.New("empty source")
	}
	if m.loadErr != nil {
		return m.loadErr
	}
	m.loads = append(m.loads, source)
	m.source = source
	m.state = Loading
	m.pendingPlay = false
	m.position = 0
	m.duration = 0
	return nil
}

func (m *Mock) Play() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "play")
	switch m.state {
	case Loading:
		m.pendingPlay = true
	case Paused:
		m.state = Playing
	case Stopped, Playing:
	}
}

func (m *Mock) Pause() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "pause")
	switch m.state {
	case Loading:
		m.pendingPlay = false
	case Playing:
		m.state = Paused
	case Stopped, Paused:
	}
}

func (m *Mock) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "stop")
	m.state = Stopped
	m.source = ""
	m.pendingPlay = false
}

func (m *Mock) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Mock) Source() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.source
}

func (m *Mock) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

func (m *Mock) Duration() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duration
}

func (m *Mock) OnEvent(fn func(Event)) {
	m.mu.Lock()
	m.onEvent = fn
	m.mu.Unlock()
}

// Test helpers

func (m *Mock) SetLoadError(err error) {
	m.mu.Lock()
	m.loadErr = err
	m.mu.Unlock()
}

// Calls returns every driver call in order ("load:<src>", "play", "pause", "stop").
func (m *Mock) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

// Loads returns the sources passed to successful Load calls.
func (m *Mock) Loads() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.loads...)
}

// ResetCalls forgets recorded calls.
func (m *Mock) ResetCalls() {
	m.mu.Lock()
	m.calls = nil
	m.mu.Unlock()
}

// PendingPlay reports whether a play intent waits for readiness.
func (m *Mock) PendingPlay() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pendingPlay
}

// SimulateReady resolves loading. A pending play intent starts playback.
func (m *Mock) SimulateReady(duration time.Duration) {
	m.mu.Lock()
	if m.state != Loading {
		m.mu.Unlock()
		return
	}
	m.duration = duration
	if m.pendingPlay {
		m.state = Playing
	} else {
		m.state = Paused
	}
	m.pendingPlay = false
	ev := Event{Kind: EventReady, Source: m.source, Duration: duration}
	fn := m.onEvent
	m.mu.Unlock()
	emit(fn, ev)
}

// SimulatePosition moves the position and emits a sample.
func (m *Mock) SimulatePosition(pos time.Duration) {
	m.mu.Lock()
	m.position = pos
	ev := Event{Kind: EventPosition, Source: m.source, Position: pos, Duration: m.duration}
	fn := m.onEvent
	m.mu.Unlock()
	emit(fn, ev)
}

// SimulateEnded plays the source to its end.
func (m *Mock) SimulateEnded() {
	m.mu.Lock()
	src := m.source
	m.position = m.duration
	m.state = Stopped
	ev := Event{Kind: EventEnded, Source: src, Position: m.duration, Duration: m.duration}
	fn := m.onEvent
	m.mu.Unlock()
	emit(fn, ev)
}

// SimulateError fails the current source.
func (m *Mock) SimulateError(err error) {
	m.mu.Lock()
	ev := Event{Kind: EventError, Source: m.source, Err: err}
	m.state = Stopped
	m.pendingPlay = false
	fn := m.onEvent
	m.mu.Unlock()
	emit(fn, ev)
}

// Emit delivers an arbitrary event, e.g. one for a stale source.
func (m *Mock) Emit(ev Event) {
	m.mu.Lock()
	fn := m.onEvent
	m.mu.Unlock()
	emit(fn, ev)
}

func emit(fn func(Event), ev Event) {
	if fn != nil {
		fn(ev)
	}
}

// Verify Mock implements Interface at compile time.
var _ Interface = (*Mock)(nil)
