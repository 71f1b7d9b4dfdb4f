package app

import (
	"errors"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/keymap"
	"github.com/llehouerou/alephplay/internal/playback"
	"github.com/llehouerou/alephplay/internal/transport"
	"github.com/llehouerou/alephplay/internal/ui/playerbar"
)

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.resizeQueuePanel()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg.String())

	case SessionStateMsg:
		m.Snapshot = msg.Current
		m.maybeAutostart(msg)
		if msg.Current.TrackID != msg.Previous.TrackID && msg.Current.TrackID != "" {
			m.QueuePanel.SyncCursor()
			m.SaveQueueState()
		}
		return m, m.WatchSession()

	case SessionPositionMsg:
		m.Snapshot.Position = msg.Position
		m.Snapshot.Duration = msg.Duration
		return m, m.WatchSession()

	case SessionErrorMsg:
		m.logger.Debug("session error",
			zap.String("op", string(msg.Event.Operation)),
			zap.String("track_id", msg.Event.TrackID),
			zap.String("message", msg.Event.Message))
		return m, m.WatchSession()

	case SessionClosedMsg:
		return m, tea.Quit

	case ReconnectResultMsg:
		if msg.Err != nil {
			m.logger.Warn("reconnect", zap.Error(msg.Err))
		}
		return m, nil

	case TickMsg:
		m.Snapshot = m.session.Snapshot()
		return m, TickCmd()
	}
	return m, nil
}

func (m Model) handleKey(key string) (tea.Model, tea.Cmd) {
	action := m.keys.Resolve(key)
	if m.ShowHelp && action != keymap.ActionQuit {
		// Any key closes help.
		m.ShowHelp = false
		return m, nil
	}

	switch action {
	case keymap.ActionQuit:
		m.SaveQueueState()
		m.SaveVolumeState()
		return m, tea.Quit
	case keymap.ActionHelp:
		m.ShowHelp = true
	case keymap.ActionPlayPause:
		m.command("toggle", m.togglePlayback)
	case keymap.ActionStop:
		m.command("stop", m.session.Stop)
	case keymap.ActionNextTrack:
		m.session.Next()
	case keymap.ActionPrevTrack:
		m.session.Previous()
	case keymap.ActionToggleDisplay:
		if m.DisplayMode == playerbar.ModeExpanded {
			m.DisplayMode = playerbar.ModeCompact
		} else {
			m.DisplayMode = playerbar.ModeExpanded
		}
		m.resizeQueuePanel()
	case keymap.ActionVolumeUp:
		m.adjustVolume(volumeStep)
	case keymap.ActionVolumeDown:
		m.adjustVolume(-volumeStep)
	case keymap.ActionToggleMute:
		if m.volume != nil {
			m.volume.SetMuted(!m.volume.Muted())
			m.SaveVolumeState()
		}
	case keymap.ActionMoveUp:
		m.QueuePanel.MoveCursor(-1)
	case keymap.ActionMoveDown:
		m.QueuePanel.MoveCursor(1)
	case keymap.ActionJumpStart:
		m.QueuePanel.JumpStart()
	case keymap.ActionJumpEnd:
		m.QueuePanel.JumpEnd()
	case keymap.ActionSelect:
		m.queue.JumpTo(m.QueuePanel.Cursor())
	case keymap.ActionReconnect:
		return m, m.reconnectCmd()
	}
	return m, nil
}

// togglePlayback starts the queue's current track from idle and toggles
// pause otherwise.
func (m Model) togglePlayback() error {
	if m.session.Snapshot().Playback == playback.StateIdle {
		_, current := m.queue.Tracks()
		if current < 0 {
			return playback.ErrNoActiveTrack
		}
		m.queue.JumpTo(current)
		return nil
	}
	return m.session.Toggle()
}

func (m *Model) maybeAutostart(msg SessionStateMsg) {
	if !m.autostart || msg.Current.Connection != transport.StatusConnected {
		return
	}
	m.autostart = false
	if msg.Current.Playback != playback.StateIdle {
		return
	}
	if _, current := m.queue.Tracks(); current >= 0 {
		m.queue.JumpTo(current)
	}
}

func (m Model) command(name string, fn func() error) {
	err := fn()
	switch {
	case err == nil:
	case errors.Is(err, playback.ErrNotConnected), errors.Is(err, playback.ErrNoActiveTrack):
		m.logger.Debug("command rejected", zap.String("command", name), zap.Error(err))
	default:
		m.logger.Warn("command failed", zap.String("command", name), zap.Error(err))
	}
}

func (m *Model) adjustVolume(delta float64) {
	if m.volume == nil {
		return
	}
	m.volume.SetVolume(m.volume.Volume() + delta)
	m.SaveVolumeState()
}

func (m *Model) resizeQueuePanel() {
	h := max(m.Height-playerbar.Height(m.DisplayMode), 0)
	m.QueuePanel.SetSize(m.Width, h)
}
