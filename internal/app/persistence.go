package app

import (
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/history"
)

// SaveQueueState persists the current queue.
func (m *Model) SaveQueueState() {
	if m.store == nil {
		return
	}
	tracks, current := m.queue.Tracks()
	if err := m.store.SaveQueue(history.QueueState{CurrentIndex: current, Tracks: tracks}); err != nil {
		m.logger.Warn("save queue", zap.Error(err))
	}
}

// SaveVolumeState persists the output level.
func (m *Model) SaveVolumeState() {
	if m.store == nil || m.volume == nil {
		return
	}
	if err := m.store.SaveVolume(m.volume.Volume(), m.volume.Muted()); err != nil {
		m.logger.Warn("save volume", zap.Error(err))
	}
}
