// Package queuepanel renders the playing queue with a movable cursor.
package queuepanel

import (
	"github.com/llehouerou/alephplay/internal/catalog"
)

// Source provides the queued tracks and the current index.
type Source interface {
	Tracks() ([]catalog.Track, int)
}

const (
	borderHeight = 2
	headerHeight = 2 // header + separator
)

// Model is the queue panel state.
type Model struct {
	source  Source
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
}

// New creates a queue panel over source.
func New(source Source) Model {
	return Model{source: source, focused: true}
}

// SetFocused sets whether the panel is focused.
func (m *Model) SetFocused(focused bool) {
	m.focused = focused
}

// SetSize sets the panel dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
	m.ensureVisible()
}

// Cursor returns the cursor position.
func (m Model) Cursor() int {
	return m.cursor
}

// MoveCursor moves the cursor by delta, clamped to the queue.
func (m *Model) MoveCursor(delta int) {
	m.jump(m.cursor + delta)
}

// JumpStart moves the cursor to the first track.
func (m *Model) JumpStart() {
	m.jump(0)
}

// JumpEnd moves the cursor to the last track.
func (m *Model) JumpEnd() {
	m.jump(m.len() - 1)
}

// SyncCursor moves the cursor onto the current track.
func (m *Model) SyncCursor() {
	_, current := m.source.Tracks()
	if current >= 0 {
		m.jump(current)
	}
}

func (m *Model) jump(pos int) {
	n := m.len()
	if n == 0 {
		m.cursor, m.offset = 0, 0
		return
	}
	m.cursor = min(max(pos, 0), n-1)
	m.ensureVisible()
}

func (m *Model) ensureVisible() {
	h := m.listHeight()
	if h <= 0 {
		return
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+h {
		m.offset = m.cursor - h + 1
	}
	m.offset = max(min(m.offset, m.len()-h), 0)
}

func (m Model) len() int {
	tracks, _ := m.source.Tracks()
	return len(tracks)
}

func (m Model) listHeight() int {
	return m.height - borderHeight - headerHeight
}
