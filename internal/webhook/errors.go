package webhook

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadDecode is returned when the request body is not a JSON object.
	ErrPayloadDecode = errors.New("payload is not a valid JSON object")
	// ErrInvalidPayloadType is returned when no discriminant field is present.
	ErrInvalidPayloadType = errors.New("payload has no Type, eventType or notificationType")
	// ErrNotificationJSONInvalid is returned when a Notification's Message does
	// not decode to a nested payload.
	ErrNotificationJSONInvalid = errors.New("notification message is not valid JSON")
	// ErrUnknownEventType is returned for a discriminant the router does not handle.
	ErrUnknownEventType = errors.New("unknown event type")
)

// UntrustedCallbackURLError is returned when a SubscribeURL fails validation.
// No request is made for such a URL.
type UntrustedCallbackURLError struct {
	Host   string
	Reason string
}

func (e *UntrustedCallbackURLError) Error() string {
	if e.Host == "" {
		return "untrusted callback url: " + e.Reason
	}
	return fmt.Sprintf("untrusted callback url host %q: %s", e.Host, e.Reason)
}
