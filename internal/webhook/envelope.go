package webhook

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shaharia-lab/sesrelay/internal/mail"
)

// discriminantKeys are tried in order; the first one present wins.
var discriminantKeys = []string{"Type", "eventType", "notificationType"}

// Envelope is one decoded JSON object with its resolved discriminant.
type Envelope struct {
	Kind   Kind
	Type   string
	fields fields
}

// DecodeEnvelope parses body as a JSON object and resolves its discriminant.
// It returns ErrPayloadDecode or ErrInvalidPayloadType on failure.
func DecodeEnvelope(body []byte) (*Envelope, error) {
	var f fields
	if err := json.Unmarshal(body, &f); err != nil || f == nil {
		if err == nil {
			err = errors.New("top-level value is not an object")
		}
		return nil, fmt.Errorf("%w: %v", ErrPayloadDecode, err)
	}

	for _, key := range discriminantKeys {
		raw, ok := f[key]
		if !ok {
			continue
		}
		var typ string
		if err := json.Unmarshal(raw, &typ); err != nil || typ == "" {
			return nil, fmt.Errorf("%w: %s is not a non-empty string", ErrInvalidPayloadType, key)
		}
		return &Envelope{Kind: ParseKind(typ), Type: typ, fields: f}, nil
	}
	return nil, ErrInvalidPayloadType
}

// String returns the string value of a top-level field, or "" when the field
// is absent or not a string.
func (e *Envelope) String(key string) string {
	return e.fields.str(key)
}

// Nested decodes the Message field of a Notification envelope. The field must
// be a JSON string that itself holds a JSON object with a discriminant.
func (e *Envelope) Nested() (*Envelope, error) {
	raw, ok := e.fields["Message"]
	if !ok {
		return nil, fmt.Errorf("%w: Message field missing", ErrNotificationJSONInvalid)
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil, fmt.Errorf("%w: Message is not a string", ErrNotificationJSONInvalid)
	}
	nested, err := DecodeEnvelope([]byte(msg))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrNotificationJSONInvalid, err)
	}
	return nested, nil
}

// object decodes a top-level field as a JSON object. An absent or null
// field yields an empty object.
func (e *Envelope) object(key string) (fields, error) {
	return decodeObject(e.fields[key])
}

type fields map[string]json.RawMessage

func decodeObject(raw json.RawMessage) (fields, error) {
	if len(raw) == 0 {
		return fields{}, nil
	}
	var f fields
	if err := json.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	if f == nil {
		f = fields{}
	}
	return f, nil
}

// str returns the string value of key, or "" when it is absent or not a string.
func (f fields) str(key string) string {
	var s string
	if err := json.Unmarshal(f[key], &s); err != nil {
		return ""
	}
	return s
}

// list decodes key as a JSON array. An absent or null field yields nil.
func (f fields) list(key string) ([]json.RawMessage, error) {
	raw, ok := f[key]
	if !ok {
		return nil, nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%s: %w", key, err)
	}
	return items, nil
}

type mailHeader struct {
	Name  string
	Value string
}

type mailObject struct {
	MessageID string
	Headers   []mailHeader
}

// decodeMail reads the mail object leniently: a malformed object or header
// only costs the correlation id, never the event.
func decodeMail(raw json.RawMessage) mailObject {
	f, err := decodeObject(raw)
	if err != nil {
		return mailObject{}
	}
	m := mailObject{MessageID: f.str("messageId")}
	headers, err := f.list("headers")
	if err != nil {
		return m
	}
	for _, item := range headers {
		h, err := decodeObject(item)
		if err != nil {
			continue
		}
		m.Headers = append(m.Headers, mailHeader{Name: h.str("name"), Value: h.str("value")})
	}
	return m
}

// emailID returns the value of the last X-EMAIL-ID header, matched case-insensitively.
func (m mailObject) emailID() string {
	var id string
	for _, h := range m.Headers {
		if strings.EqualFold(h.Name, mail.HeaderEmailID) {
			id = h.Value
		}
	}
	return id
}

type recipient struct {
	EmailAddress   string
	DiagnosticCode string
}

// decodeRecipients reads a recipient list. Entries that are not objects are
// skipped and non-string fields read as empty.
func decodeRecipients(f fields, key string) ([]recipient, error) {
	items, err := f.list(key)
	if err != nil {
		return nil, err
	}
	out := make([]recipient, 0, len(items))
	for _, item := range items {
		r, err := decodeObject(item)
		if err != nil {
			continue
		}
		out = append(out, recipient{EmailAddress: r.str("emailAddress"), DiagnosticCode: r.str("diagnosticCode")})
	}
	return out, nil
}

// complaintEvent is the SES complaint notification body.
type complaintEvent struct {
	FeedbackType string
	SubType      string
	Recipients   []recipient
	Mail         mailObject
}

// decodeComplaint fails only when the complaint object or its recipient list
// is unreadable.
func decodeComplaint(env *Envelope) (*complaintEvent, error) {
	c, err := env.object("complaint")
	if err != nil {
		return nil, fmt.Errorf("complaint: %w", err)
	}
	rcpts, err := decodeRecipients(c, "complainedRecipients")
	if err != nil {
		return nil, err
	}
	return &complaintEvent{
		FeedbackType: c.str("complaintFeedbackType"),
		SubType:      c.str("complaintSubType"),
		Recipients:   rcpts,
		Mail:         decodeMail(env.fields["mail"]),
	}, nil
}

// bounceEvent is the SES bounce notification body.
type bounceEvent struct {
	Type       string
	SubType    string
	Recipients []recipient
	Mail       mailObject
}

// decodeBounce fails only when the bounce object or its recipient list is
// unreadable.
func decodeBounce(env *Envelope) (*bounceEvent, error) {
	b, err := env.object("bounce")
	if err != nil {
		return nil, fmt.Errorf("bounce: %w", err)
	}
	rcpts, err := decodeRecipients(b, "bouncedRecipients")
	if err != nil {
		return nil, err
	}
	return &bounceEvent{
		Type:       b.str("bounceType"),
		SubType:    b.str("bounceSubType"),
		Recipients: rcpts,
		Mail:       decodeMail(env.fields["mail"]),
	}, nil
}
