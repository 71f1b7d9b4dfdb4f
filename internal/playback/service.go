package playback

import (
	"context"

	"github.com/llehouerou/alephplay/internal/transport"
)

// Controller is what UI surfaces use: commands plus read-only state.
type Controller interface {
	// Playback control
	Play(trackID string) error
	Pause() error
	Resume() error
	Toggle() error
	Stop() error
	Next()
	Previous()

	// State queries
	Snapshot() Snapshot
	Subscribe() *Subscription
}

// Transport is the connection the session commands.
type Transport interface {
	SetHandler(h transport.Handler)
	Connect(ctx context.Context) error
	Disconnect()
	Send(data []byte) error
	Status() transport.Status
}

// Verify Session implements Controller at compile time.
var _ Controller = (*Session)(nil)

// Verify the connector satisfies Transport at compile time.
var _ Transport = (*transport.Connector)(nil)
