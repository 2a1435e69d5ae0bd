package debate

import (
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Notifier is the advisory notification bus. It rides the same event
// stream as everything else but never blocks a transition: a notification
// rejected by a terminal state is dropped, which is safe because
// notifications carry no debate-correctness weight.
type Notifier struct {
	machine *Machine
}

// NewNotifier creates a notifier bound to the machine.
func NewNotifier(machine *Machine) *Notifier {
	return &Notifier{machine: machine}
}

// Notify appends a notification and returns its id.
func (n *Notifier) Notify(severity Severity, message string) string {
	notification := Notification{
		ID:        uuid.NewString(),
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
	}
	if _, err := n.machine.Apply(NotificationAdded{Notification: notification}); err != nil {
		log.Debug().Str("severity", string(severity)).Msg("notification dropped")
		return ""
	}
	return notification.ID
}

// Info appends an info notification.
func (n *Notifier) Info(message string) string { return n.Notify(SeverityInfo, message) }

// Success appends a success notification.
func (n *Notifier) Success(message string) string { return n.Notify(SeveritySuccess, message) }

// Warn appends a warning notification.
func (n *Notifier) Warn(message string) string { return n.Notify(SeverityWarning, message) }

// Error appends an error notification.
func (n *Notifier) Error(message string) string { return n.Notify(SeverityError, message) }

// Clear removes the notification with the given id, leaving others intact.
func (n *Notifier) Clear(id string) {
	if _, err := n.machine.Apply(NotificationCleared{ID: id}); err != nil {
		log.Debug().Str("id", id).Msg("notification clear dropped")
	}
}
