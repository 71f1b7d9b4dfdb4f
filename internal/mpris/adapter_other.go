//go:build !linux

package mpris

import (
	"go.uber.org/zap"

	"github.com/llehouerou/alephplay/internal/playback"
)

// Adapter does nothing without a freedesktop session bus.
type Adapter struct{}

// New returns an inert adapter.
func New(playback.Controller, Queue, Volume, *zap.Logger) (*Adapter, error) {
	return &Adapter{}, nil
}

// Close is a no-op.
func (*Adapter) Close() error { return nil }
