// Package notify posts freedesktop desktop notifications.
package notify

// Urgency is the freedesktop notification priority.
type Urgency byte

const (
	UrgencyLow Urgency = iota
	UrgencyNormal
	UrgencyCritical
)

// Expiry values for Notification.Timeout, in milliseconds otherwise.
const (
	ExpireDefault int32 = -1
	ExpireNever   int32 = 0
)

// Notification is one desktop notification. Icon is a file path or an
// icon theme name. A non-zero ReplacesID updates that notification in
// place.
type Notification struct {
	Title      string
	Body       string
	Icon       string
	Timeout    int32
	ReplacesID uint32
	Urgency    Urgency
}

// Notifier sends desktop notifications. Implementations return id 0 and
// no error when notifications are unavailable.
type Notifier interface {
	Notify(n Notification) (uint32, error)
	Close(id uint32) error
}

// stubNotifier drops everything.
type stubNotifier struct{}

func (stubNotifier) Notify(Notification) (uint32, error) { return 0, nil }

func (stubNotifier) Close(uint32) error { return nil }
