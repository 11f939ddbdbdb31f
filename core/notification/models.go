package notification

import "time"

// Notification types
const (
	TypeRequestAccepted    = "request-accepted"
	TypeRequestDeclined    = "request-declined"
	TypeRequestCancelled   = "request-cancelled"
	TypeSessionCompleted   = "session-completed"
	TypeSessionNoShow      = "session-no-show"
	TypeSessionRescheduled = "session-rescheduled"
	TypeNewRequest         = "new-request"
	TypeGeneral            = "general"
)

// Notification is one inbox item. Inboxes are per-user and newest-first.
type Notification struct {
	ID        string    `json:"id"`
	Type      string    `json:"type,omitempty"`
	BookingID string    `json:"bookingId,omitempty"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
	Read      bool      `json:"read"`
}
