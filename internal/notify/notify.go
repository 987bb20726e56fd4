// Package notify shows desktop notifications for the playing track over D-Bus.
package notify

// Urgency is the freedesktop notification urgency hint.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop notification.
type Notification struct {
	Title      string
	Body       string // artists and album, one per line
	Icon       string // thumbnail URL or icon name
	Timeout    int32  // ms; -1 server default, 0 never expires
	ReplacesID uint32 // id of the notification to update in place
	Urgency    Urgency
}

// Notifier sends desktop notifications. Implementations return id 0 and a
// nil error when no notification daemon is available.
type Notifier interface {
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// Discard drops every notification.
type Discard struct{}

func (Discard) Notify(Notification) (uint32, error) { return 0, nil }

func (Discard) Close(uint32) error { return nil }
