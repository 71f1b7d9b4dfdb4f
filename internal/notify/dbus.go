//go:build linux

package notify

import (
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	notifyDest  = "org.freedesktop.Notifications"
	notifyPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyIface = "org.freedesktop.Notifications"

	category = "x-alephplay.playback"
)

type sessionNotifier struct {
	obj dbus.BusObject
}

// New returns a Notifier backed by the session bus notification daemon,
// or Nop when there is no session bus.
func New(logger *zap.Logger) Notifier {
	conn, err := dbus.SessionBus()
	if err != nil {
		if logger != nil {
			logger.Info("desktop notifications disabled", zap.Error(err))
		}
		return Nop{}
	}
	return &sessionNotifier{obj: conn.Object(notifyDest, notifyPath)}
}

func (s *sessionNotifier) Notify(n Notification) (uint32, error) {
	call := s.obj.Call(notifyIface+".Notify", 0,
		appName, n.ReplacesID, n.Icon, n.Title, n.Body,
		[]string{}, hints(n), n.Timeout)
	if call.Err != nil {
		return 0, call.Err
	}
	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (s *sessionNotifier) Close(id uint32) error {
	return s.obj.Call(notifyIface+".CloseNotification", 0, id).Err
}

func hints(n Notification) map[string]dbus.Variant {
	h := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(n.Urgency)),
		"desktop-entry": dbus.MakeVariant(appName),
		"category":      dbus.MakeVariant(category),
	}
	if n.Transient {
		h["transient"] = dbus.MakeVariant(true)
	}
	return h
}
