// Package notify shows desktop notifications for playback events.
package notify

// Urgency is the freedesktop notification urgency level.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

const appName = "alephplay"

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string
	Icon       string // image URL or icon name
	Timeout    int32  // ms; -1 leaves it to the server
	ReplacesID uint32
	Urgency    Urgency
	Transient  bool // keep out of the server's notification history
}

// Notifier delivers notifications. The id returned by Notify can be passed
// back as ReplacesID to update the notification in place.
type Notifier interface {
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Nop drops every notification.
type Nop struct{}

func (Nop) Notify(Notification) (uint32, error) { return 0, nil }
func (Nop) Close(uint32) error                  { return nil }
