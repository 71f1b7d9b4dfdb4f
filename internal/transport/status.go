package transport

// Status is the connection state of a Connector.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

func (s Status) String() string {
	switch s {
	case StatusDisconnected:
		return "Disconnected"
	case StatusConnecting:
		return "Connecting"
	case StatusConnected:
		return "Connected"
	default:
		return "Unknown"
	}
}

// Handler receives connection notifications. Calls are made without any
// Connector lock held, from the goroutine that observed the change.
type Handler interface {
	// HandleStatus reports a status change. err is non-nil when the change
	// was caused by a failure and is always a *ConnError. A failed identity
	// lookup while connected is reported with the unchanged status.
	HandleStatus(status Status, err error)
	// HandleFrame delivers one inbound text frame.
	HandleFrame(data []byte)
}

type nopHandler struct{}

func (nopHandler) HandleStatus(Status, error) {}
func (nopHandler) HandleFrame([]byte)         {}
