// Package mail models an outbound message template and its per-recipient
// personalization, and renders concrete messages to raw MIME.
package mail

import (
	"errors"
	"maps"
	"slices"
	"strings"
)

// HeaderEmailID correlates a sent message with bounce and complaint notifications.
const HeaderEmailID = "X-EMAIL-ID"

// Header is a single message header. Names compare case-insensitively.
type Header struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Tag is a provider message tag. Tags are carried in the message as
// X-Metadata-<Name> headers and sent to SES as EmailTags.
type Tag struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Attachment is a file attached to the message.
type Attachment struct {
	Filename    string `json:"filename"`
	ContentType string `json:"content_type,omitempty"`
	Data        []byte `json:"data"`
}

// Recipient is one entry of the personalization map. Recipients are kept in
// a slice so iteration follows insertion order.
type Recipient struct {
	Address string            `json:"address"`
	Name    string            `json:"name,omitempty"`
	Tokens  map[string]string `json:"tokens,omitempty"`
	HashID  string            `json:"hash_id,omitempty"`
	EmailID string            `json:"email_id,omitempty"`
}

// Message is an outbound message template. A message with no Recipients is
// sent once to its To/Cc/Bcc lists; otherwise it is sent once per recipient.
type Message struct {
	Subject     string       `json:"subject"`
	HTMLBody    string       `json:"html_body,omitempty"`
	TextBody    string       `json:"text_body,omitempty"`
	From        Address      `json:"from"`
	To          []Address    `json:"to,omitempty"`
	Cc          []Address    `json:"cc,omitempty"`
	Bcc         []Address    `json:"bcc,omitempty"`
	ReplyTo     []Address    `json:"reply_to,omitempty"`
	Headers     []Header     `json:"headers,omitempty"`
	Tags        []Tag        `json:"tags,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
	Recipients  []Recipient  `json:"recipients,omitempty"`
}

// Validate checks the fields needed to render a message.
func (m *Message) Validate() error {
	if strings.TrimSpace(m.From.Address) == "" {
		return errors.New("from address is required")
	}
	if len(m.Recipients) == 0 && len(m.To)+len(m.Cc)+len(m.Bcc) == 0 {
		return errors.New("at least one recipient is required")
	}
	seen := make(map[string]struct{}, len(m.Recipients))
	for _, r := range m.Recipients {
		key := strings.ToLower(strings.TrimSpace(r.Address))
		if key == "" {
			return errors.New("recipient address must not be empty")
		}
		if _, dup := seen[key]; dup {
			return errors.New("duplicate recipient " + r.Address)
		}
		seen[key] = struct{}{}
	}
	return nil
}

// Clone returns a deep copy of m.
func (m *Message) Clone() *Message {
	c := *m
	c.To = slices.Clone(m.To)
	c.Cc = slices.Clone(m.Cc)
	c.Bcc = slices.Clone(m.Bcc)
	c.ReplyTo = slices.Clone(m.ReplyTo)
	c.Headers = slices.Clone(m.Headers)
	c.Tags = slices.Clone(m.Tags)
	c.Attachments = make([]Attachment, len(m.Attachments))
	for i, a := range m.Attachments {
		a.Data = slices.Clone(a.Data)
		c.Attachments[i] = a
	}
	if m.Attachments == nil {
		c.Attachments = nil
	}
	c.Recipients = make([]Recipient, len(m.Recipients))
	for i, r := range m.Recipients {
		r.Tokens = maps.Clone(r.Tokens)
		c.Recipients[i] = r
	}
	if m.Recipients == nil {
		c.Recipients = nil
	}
	return &c
}

// Header returns the value of the first header named name.
func (m *Message) Header(name string) (string, bool) {
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// HasHeader reports whether a header named name is present.
func (m *Message) HasHeader(name string) bool {
	_, ok := m.Header(name)
	return ok
}

// SetHeader replaces every header named name with a single one.
func (m *Message) SetHeader(name, value string) {
	m.DelHeader(name)
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// AddHeader appends a header without touching existing ones.
func (m *Message) AddHeader(name, value string) {
	m.Headers = append(m.Headers, Header{Name: name, Value: value})
}

// DelHeader removes every header named name.
func (m *Message) DelHeader(name string) {
	m.Headers = slices.DeleteFunc(m.Headers, func(h Header) bool {
		return strings.EqualFold(h.Name, name)
	})
}

// EmailID returns the correlation id of the first recipient carrying one.
func (m *Message) EmailID() string {
	for _, r := range m.Recipients {
		if r.EmailID != "" {
			return r.EmailID
		}
	}
	return ""
}

// RecipientAddresses returns the personalization map keys in order.
func (m *Message) RecipientAddresses() []string {
	out := make([]string, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		out = append(out, r.Address)
	}
	return out
}

// RetainRecipients drops every recipient whose address is not in keep and
// returns how many remain. Addresses compare case-insensitively.
func (m *Message) RetainRecipients(keep []string) int {
	set := make(map[string]struct{}, len(keep))
	for _, a := range keep {
		set[strings.ToLower(a)] = struct{}{}
	}
	m.Recipients = slices.DeleteFunc(m.Recipients, func(r Recipient) bool {
		_, ok := set[strings.ToLower(r.Address)]
		return !ok
	})
	return len(m.Recipients)
}

// RemoveAddresses drops recipients and To/Cc/Bcc entries whose address is in
// drop, returning the removed addresses.
func (m *Message) RemoveAddresses(drop map[string]bool) []string {
	var removed []string
	match := func(addr string) bool {
		if drop[strings.ToLower(addr)] {
			removed = append(removed, addr)
			return true
		}
		return false
	}
	m.Recipients = slices.DeleteFunc(m.Recipients, func(r Recipient) bool { return match(r.Address) })
	m.To = slices.DeleteFunc(m.To, func(a Address) bool { return match(a.Address) })
	m.Cc = slices.DeleteFunc(m.Cc, func(a Address) bool { return match(a.Address) })
	m.Bcc = slices.DeleteFunc(m.Bcc, func(a Address) bool { return match(a.Address) })
	return removed
}

// AllAddresses returns every address the message would be delivered to.
func (m *Message) AllAddresses() []string {
	if len(m.Recipients) > 0 {
		return m.RecipientAddresses()
	}
	out := make([]string, 0, len(m.To)+len(m.Cc)+len(m.Bcc))
	for _, list := range [][]Address{m.To, m.Cc, m.Bcc} {
		for _, a := range list {
			out = append(out, a.Address)
		}
	}
	return out
}
