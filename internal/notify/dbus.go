//go:build linux

package notify

import (
	"strings"

	"github.com/godbus/dbus/v5"
)

const (
	notificationsName = "org.freedesktop.Notifications"
	notificationsPath = dbus.ObjectPath("/org/freedesktop/Notifications")
	fallbackTrackIcon = "audio-x-generic"
	notifyMethod      = notificationsName + ".Notify"
	closeNotifyMethod = notificationsName + ".CloseNotification"
)

type dbusNotifier struct {
	app string
	obj dbus.BusObject
}

// New connects to the session bus notification daemon as app. Without a
// session bus it returns Discard.
func New(app string) (Notifier, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return Discard{}, nil //nolint:nilerr // headless hosts have no session bus
	}
	return &dbusNotifier{app: app, obj: conn.Object(notificationsName, notificationsPath)}, nil
}

func (n *dbusNotifier) Notify(notif Notification) (uint32, error) {
	hints := map[string]dbus.Variant{
		"urgency":       dbus.MakeVariant(byte(notif.Urgency)),
		"desktop-entry": dbus.MakeVariant(strings.ToLower(n.app)),
		"category":      dbus.MakeVariant("x-streamwave.track"),
	}
	var id uint32
	err := n.obj.Call(notifyMethod, 0,
		n.app,
		notif.ReplacesID,
		appIcon(notif.Icon),
		notif.Title,
		notif.Body,
		[]string{},
		hints,
		notif.Timeout,
	).Store(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

func (n *dbusNotifier) Close(id uint32) error {
	return n.obj.Call(closeNotifyMethod, 0, id).Err
}

// appIcon keeps local paths and icon names. Notification daemons do not
// fetch remote images, so thumbnail URLs fall back to a generic icon.
func appIcon(icon string) string {
	if icon == "" || strings.HasPrefix(icon, "http://") || strings.HasPrefix(icon, "https://") {
		return fallbackTrackIcon
	}
	return icon
}
