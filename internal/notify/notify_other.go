//go:build !linux

package notify

import "go.uber.org/zap"

// New returns Nop; desktop notifications need a freedesktop session bus.
func New(*zap.Logger) Notifier {
	return Nop{}
}
