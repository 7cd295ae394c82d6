package eventbus

import "time"

// Event types published by the services.
const (
	// EventSuppressionAdded is published after a webhook created do-not-contact records.
	EventSuppressionAdded = "suppression.added"
	// EventSendPartialFailure is published when some recipients of a send were rejected.
	EventSendPartialFailure = "send.partial_failure"
	// EventSendFailed is published when a send could not start at all.
	EventSendFailed = "send.failed"
	// EventQuotaRefreshFailed is published when the scheduled quota discovery fails.
	EventQuotaRefreshFailed = "quota.refresh_failed"
)

// Event represents an application event published to the bus.
type Event struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Payload   map[string]string `json:"payload"`
}

// Listener is a function that handles an event.
type Listener func(Event)
