package mail

import (
	"bytes"
	"fmt"
	"strings"

	gomail "github.com/wneessen/go-mail"
)

// TagHeaderPrefix marks message tags when they are written as headers.
const TagHeaderPrefix = "X-Metadata-"

// reservedHeaders are produced from the structured fields of Message and
// are never copied from Headers.
var reservedHeaders = map[string]struct{}{
	"mime-version":              {},
	"received":                  {},
	"dkim-signature":            {},
	"content-type":              {},
	"content-transfer-encoding": {},
	"to":                        {},
	"from":                      {},
	"subject":                   {},
	"reply-to":                  {},
	"cc":                        {},
	"bcc":                       {},
	"date":                      {},
	"message-id":                {},
}

// Raw renders the message as RFC 5322 bytes. Bcc recipients are not
// written to the headers.
func (m *Message) Raw() ([]byte, error) {
	msg := gomail.NewMsg()
	if err := msg.FromFormat(m.From.Name, m.From.Address); err != nil {
		return nil, fmt.Errorf("invalid from address %q: %w", m.From.Address, err)
	}
	for _, a := range m.To {
		if err := msg.AddToFormat(a.Name, a.Address); err != nil {
			return nil, fmt.Errorf("invalid to address %q: %w", a.Address, err)
		}
	}
	for _, a := range m.Cc {
		if err := msg.AddCcFormat(a.Name, a.Address); err != nil {
			return nil, fmt.Errorf("invalid cc address %q: %w", a.Address, err)
		}
	}
	if len(m.ReplyTo) > 0 {
		if err := msg.SetAddrHeader(gomail.HeaderReplyTo, Strings(m.ReplyTo)...); err != nil {
			return nil, fmt.Errorf("invalid reply-to: %w", err)
		}
	}
	msg.Subject(m.Subject)
	msg.SetMessageID()
	msg.SetDate()

	var order []string
	values := make(map[string][]string)
	for _, h := range m.Headers {
		if _, reserved := reservedHeaders[strings.ToLower(h.Name)]; reserved {
			continue
		}
		key := strings.ToLower(h.Name)
		if _, ok := values[key]; !ok {
			order = append(order, h.Name)
		}
		values[key] = append(values[key], h.Value)
	}
	for _, t := range m.Tags {
		name := TagHeaderPrefix + t.Name
		key := strings.ToLower(name)
		if _, ok := values[key]; !ok {
			order = append(order, name)
		}
		values[key] = append(values[key], t.Value)
	}
	for _, name := range order {
		msg.SetGenHeader(gomail.Header(name), values[strings.ToLower(name)]...)
	}

	switch {
	case m.TextBody != "" && m.HTMLBody != "":
		msg.SetBodyString(gomail.TypeTextPlain, m.TextBody)
		msg.AddAlternativeString(gomail.TypeTextHTML, m.HTMLBody)
	case m.HTMLBody != "":
		msg.SetBodyString(gomail.TypeTextHTML, m.HTMLBody)
	default:
		msg.SetBodyString(gomail.TypeTextPlain, m.TextBody)
	}

	for _, a := range m.Attachments {
		var opts []gomail.FileOption
		if a.ContentType != "" {
			opts = append(opts, gomail.WithFileContentType(gomail.ContentType(a.ContentType)))
		}
		if err := msg.AttachReader(a.Filename, bytes.NewReader(a.Data), opts...); err != nil {
			return nil, fmt.Errorf("attaching %q: %w", a.Filename, err)
		}
	}

	var buf bytes.Buffer
	if _, err := msg.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("writing MIME message: %w", err)
	}
	return buf.Bytes(), nil
}
