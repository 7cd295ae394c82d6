// Package notification delivers operator alerts (e-mail over SMTP) for
// events published on the bus: new suppressions, failed sends and quota
// refresh failures.
package notification

import "context"

// Message is the content to be delivered by a Provider.
type Message struct {
	Subject string
	Body    string
}

// Provider is the interface for notification delivery backends.
type Provider interface {
	// Name returns the provider identifier (e.g. "smtp").
	Name() string
	// Recipients lists the addresses a message is delivered to.
	Recipients() []string
	// Send delivers the message using the provider's transport.
	Send(ctx context.Context, msg Message) error
}
