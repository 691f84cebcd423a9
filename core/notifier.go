package core

import "time"

type NotificationLevel int

const (
	NotifyInfo NotificationLevel = iota
	NotifySuccess
	NotifyError
)

func (l NotificationLevel) String() string {
	switch l {
	case NotifySuccess:
		return "success"
	case NotifyError:
		return "error"
	default:
		return "info"
	}
}

// Notification is a transient, dismissible user-visible message. It carries no
// business state; dropping one never corrupts an invariant.
type Notification struct {
	Level   NotificationLevel
	Message string
	Context string // optional server-supplied context, e.g. the course name

	// ExpiresAfter is how long the message stays visible; zero means the
	// sink's default.
	ExpiresAfter time.Duration
}

// Notifier is any sink that can surface transient notifications to the user.
type Notifier interface {
	Notify(n Notification)
}
