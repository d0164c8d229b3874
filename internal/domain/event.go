package domain

// Notification event types sent to subscribers.
const (
	EventNewSummary = "new_summary"
	EventPing       = "ping"
	EventPong       = "pong"
)

// NotificationEvent is the ephemeral envelope handed to the subscriber
// hub. It is never persisted; Data carries the joined projection for
// new_summary events and is empty for pong.
type NotificationEvent struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

// NewSummaryEvent wraps a freshly created summary projection.
func NewSummaryEvent(item MessageWithSummary) NotificationEvent {
	return NotificationEvent{Type: EventNewSummary, Data: item}
}
