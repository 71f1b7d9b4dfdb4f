package app

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/llehouerou/alephplay/internal/catalog"
	"github.com/llehouerou/alephplay/internal/history"
	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/transport"
	"github.com/llehouerou/alephplay/internal/ui/playerbar"
)

type fakeSession struct {
	snap  playback.Snapshot
	calls []string
	err   error
}

func (f *fakeSession) record(name string) error {
	f.calls = append(f.calls, name)
	return f.err
}

func (f *fakeSession) Play(id string) error              { return f.record("play " + id) }
func (f *fakeSession) Pause() error                      { return f.record("pause") }
func (f *fakeSession) Resume() error                     { return f.record("resume") }
func (f *fakeSession) Toggle() error                     { return f.record("toggle") }
func (f *fakeSession) Stop() error                       { return f.record("stop") }
func (f *fakeSession) Next()                             { _ = f.record("next") }
func (f *fakeSession) Previous()                         { _ = f.record("previous") }
func (f *fakeSession) Snapshot() playback.Snapshot       { return f.snap }
func (f *fakeSession) Subscribe() *playback.Subscription { return nil }

type fakeQueue struct {
	tracks  []catalog.Track
	current int
	jumps   []int
}

func (q *fakeQueue) Tracks() ([]catalog.Track, int) { return q.tracks, q.current }
func (q *fakeQueue) JumpTo(i int)                   { q.jumps = append(q.jumps, i) }

type fakeVolume struct {
	level float64
	muted bool
}

func (v *fakeVolume) SetVolume(l float64) { v.level = min(max(l, 0), 1) }
func (v *fakeVolume) Volume() float64     { return v.level }
func (v *fakeVolume) SetMuted(m bool)     { v.muted = m }
func (v *fakeVolume) Muted() bool         { return v.muted }

type fakeStore struct {
	queues  []history.QueueState
	volumes []history.VolumeState
}

func (s *fakeStore) SaveQueue(q history.QueueState) error {
	s.queues = append(s.queues, q)
	return nil
}

func (s *fakeStore) SaveVolume(v float64, muted bool) error {
	s.volumes = append(s.volumes, history.VolumeState{Volume: v, Muted: muted})
	return nil
}

type rig struct {
	session *fakeSession
	queue   *fakeQueue
	volume  *fakeVolume
	store   *fakeStore
	model   Model
}

func newRig() *rig {
	r := &rig{
		session: &fakeSession{snap: playback.Snapshot{Connection: transport.StatusConnected}},
		queue: &fakeQueue{
			tracks: []catalog.Track{
				{ID: "a", Title: "Alpha", Artist: "X", Duration: 2 * time.Minute},
				{ID: "b", Title: "Bravo", Artist: "Y"},
				{ID: "c", Title: "Charlie", Artist: "Z"},
			},
			current: 1,
		},
		volume: &fakeVolume{level: 0.5},
		store:  &fakeStore{},
	}
	r.model = New(Deps{Session: r.session, Queue: r.queue, Volume: r.volume, Store: r.store})
	r.model = r.update(tea.WindowSizeMsg{Width: 80, Height: 20})
	return r
}

func (r *rig) update(msg tea.Msg) Model {
	next, _ := r.model.Update(msg)
	r.model = next.(Model)
	return r.model
}

func (r *rig) key(k string) tea.Cmd {
	var msg tea.KeyMsg
	switch k {
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	case "ctrl+r":
		msg = tea.KeyMsg{Type: tea.KeyCtrlR}
	case " ":
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
	}
	next, cmd := r.model.Update(msg)
	r.model = next.(Model)
	return cmd
}

func TestKeys_SessionCommands(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"s", "stop"},
		{"n", "next"},
		{"p", "previous"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			r := newRig()
			r.key(tt.key)
			assert.Equal(t, []string{tt.want}, r.session.calls)
		})
	}
}

func TestKeys_PlayPause(t *testing.T) {
	t.Run("idle starts the current queue track", func(t *testing.T) {
		r := newRig()
		r.key(" ")
		assert.Empty(t, r.session.calls)
		assert.Equal(t, []int{1}, r.queue.jumps)
	})

	t.Run("active toggles", func(t *testing.T) {
		r := newRig()
		r.session.snap.Playback = playback.StatePlaying
		r.key(" ")
		assert.Equal(t, []string{"toggle"}, r.session.calls)
		assert.Empty(t, r.queue.jumps)
	})

	t.Run("rejected command keeps running", func(t *testing.T) {
		r := newRig()
		r.session.snap.Playback = playback.StatePaused
		r.session.err = playback.ErrNotConnected
		cmd := r.key(" ")
		assert.Nil(t, cmd)
		assert.Equal(t, []string{"toggle"}, r.session.calls)
	})
}

func TestKeys_Volume(t *testing.T) {
	r := newRig()

	r.key("+")
	r.key("+")
	r.key("-")
	r.key("m")

	assert.InDelta(t, 0.55, r.volume.level, 1e-9)
	assert.True(t, r.volume.muted)
	require.Len(t, r.store.volumes, 4)
	assert.True(t, r.store.volumes[3].Muted)
}

func TestKeys_QueueCursorAndSelect(t *testing.T) {
	r := newRig()

	r.key("G")
	r.key("k")
	r.key("enter")

	assert.Equal(t, 1, r.model.QueuePanel.Cursor())
	assert.Equal(t, []int{1}, r.queue.jumps)
}

func TestKeys_QuitSavesState(t *testing.T) {
	r := newRig()

	cmd := r.key("q")

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	require.Len(t, r.store.queues, 1)
	assert.Equal(t, 1, r.store.queues[0].CurrentIndex)
	assert.Len(t, r.store.queues[0].Tracks, 3)
	require.Len(t, r.store.volumes, 1)
}

func TestKeys_Help(t *testing.T) {
	r := newRig()

	r.key("?")
	assert.True(t, r.model.ShowHelp)
	assert.Contains(t, r.model.View(), "playback")

	r.key("s")
	assert.False(t, r.model.ShowHelp)
	assert.Empty(t, r.session.calls, "closing help swallows the key")
}

func TestKeys_ToggleDisplayResizesQueue(t *testing.T) {
	r := newRig()

	r.key("v")

	assert.Equal(t, playerbar.ModeExpanded, r.model.DisplayMode)
	lines := strings.Split(r.model.View(), "\n")
	assert.Len(t, lines, 20)
}

func TestKeys_Reconnect(t *testing.T) {
	r := newRig()
	var called bool
	r.model.reconnect = func(context.Context) error {
		called = true
		return errors.New("dial refused")
	}

	cmd := r.key("ctrl+r")
	require.NotNil(t, cmd)
	msg := cmd()

	assert.True(t, called)
	assert.EqualError(t, msg.(ReconnectResultMsg).Err, "dial refused")
}

func TestSessionState_TrackChangeSyncsAndSaves(t *testing.T) {
	r := newRig()
	r.queue.current = 2

	r.update(SessionStateMsg{
		Previous: playback.Snapshot{TrackID: "b"},
		Current:  playback.Snapshot{TrackID: "c", Playback: playback.StateLoading},
	})

	assert.Equal(t, "c", r.model.Snapshot.TrackID)
	assert.Equal(t, 2, r.model.QueuePanel.Cursor())
	assert.Len(t, r.store.queues, 1)

	r.update(SessionStateMsg{
		Previous: playback.Snapshot{TrackID: "c", Playback: playback.StateLoading},
		Current:  playback.Snapshot{TrackID: "c", Playback: playback.StatePlaying},
	})
	assert.Len(t, r.store.queues, 1, "same track does not save again")
}

func TestSessionPosition(t *testing.T) {
	r := newRig()

	r.update(SessionPositionMsg{Position: 30 * time.Second, Duration: 2 * time.Minute})

	assert.Equal(t, 30*time.Second, r.model.Snapshot.Position)
	assert.Equal(t, 2*time.Minute, r.model.Snapshot.Duration)
}

func TestSessionClosedQuits(t *testing.T) {
	r := newRig()

	_, cmd := r.model.Update(SessionClosedMsg{})

	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestView(t *testing.T) {
	r := newRig()
	r.update(SessionStateMsg{Current: playback.Snapshot{
		Connection: transport.StatusConnected,
		Playback:   playback.StatePlaying,
		TrackID:    "b",
		Track:      catalog.Track{ID: "b", Title: "Bravo", Artist: "Y"},
	}})

	out := r.model.View()

	assert.Contains(t, out, "Queue (2/3)")
	assert.Contains(t, out, "Alpha")
	assert.Contains(t, out, "2/3")
	assert.Contains(t, out, "50%")
	assert.Len(t, strings.Split(out, "\n"), 20)
}

func TestView_ZeroSize(t *testing.T) {
	m := New(Deps{Session: &fakeSession{}, Queue: &fakeQueue{current: -1}})
	assert.Empty(t, m.View())
}

func TestAutostart_PlaysOnFirstConnect(t *testing.T) {
	r := newRig()
	r.model.autostart = true

	r.update(SessionStateMsg{
		Previous: playback.Snapshot{Connection: transport.StatusDisconnected},
		Current:  playback.Snapshot{Connection: transport.StatusConnecting},
	})
	assert.Empty(t, r.queue.jumps)

	r.update(SessionStateMsg{
		Previous: playback.Snapshot{Connection: transport.StatusConnecting},
		Current:  playback.Snapshot{Connection: transport.StatusConnected},
	})
	assert.Equal(t, []int{1}, r.queue.jumps)

	r.update(SessionStateMsg{
		Previous: playback.Snapshot{Connection: transport.StatusDisconnected},
		Current:  playback.Snapshot{Connection: transport.StatusConnected},
	})
	assert.Equal(t, []int{1}, r.queue.jumps, "only the first connection autostarts")
}
