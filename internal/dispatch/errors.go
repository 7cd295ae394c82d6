package dispatch

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/smithy-go"
)

// TransportError records why one payload could not be delivered to the provider.
type TransportError struct {
	Address string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("sending to %s: %v", e.Address, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Reason returns a short reason: the provider error code when the call
// reached SES, otherwise the error text.
func (e *TransportError) Reason() string {
	var apiErr smithy.APIError
	if errors.As(e.Err, &apiErr) {
		if msg := apiErr.ErrorMessage(); msg != "" {
			return apiErr.ErrorCode() + ": " + msg
		}
		return apiErr.ErrorCode()
	}
	return e.Err.Error()
}

// PartialFailureError reports the recipients of one send that were not
// accepted by the provider. The message passed to the send has been
// narrowed to exactly these recipients, so resubmitting it retries only them.
type PartialFailureError struct {
	Count     int
	Addresses []string
	Failures  []*TransportError
}

func (e *PartialFailureError) Error() string {
	return fmt.Sprintf("%d partial failures: %s", e.Count, strings.Join(e.Addresses, ", "))
}
