package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const reconnectTimeout = 10 * time.Second

// TickCmd returns a command that sends TickMsg after 1 second.
func TickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}

// WatchSession returns a command that waits for the next session event.
// It listens on all subscription channels and converts events to tea.Msg.
func (m Model) WatchSession() tea.Cmd {
	if m.sub == nil {
		return nil
	}
	sub := m.sub
	return func() tea.Msg {
		select {
		case e := <-sub.StateChanged:
			return SessionStateMsg{Previous: e.Previous, Current: e.Current}
		case e := <-sub.PositionChanged:
			return SessionPositionMsg{Position: e.Position, Duration: e.Duration}
		case e := <-sub.Error:
			return SessionErrorMsg{Event: e}
		case <-sub.Done:
			return SessionClosedMsg{}
		}
	}
}

// reconnectCmd forces a connection attempt off the update loop.
func (m Model) reconnectCmd() tea.Cmd {
	if m.reconnect == nil {
		return nil
	}
	reconnect := m.reconnect
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), reconnectTimeout)
		defer cancel()
		return ReconnectResultMsg{Err: reconnect(ctx)}
	}
}
