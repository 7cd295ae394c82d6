package dispatch

import (
	"fmt"
	"iter"
	"sync/atomic"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shaharia-lab/sesrelay/internal/mail"
)

// HeaderHashID carries the recipient's correlation hash on personalized sends.
const HeaderHashID = "X-HASH-ID"

// Rendered is one unit of work for the pool: a ready SendEmail request for
// one destination, or the error that prevented building it.
type Rendered struct {
	// Index is the position of the payload in the stream.
	Index   int
	Address string
	// Addresses lists every destination the payload reaches. A personalized
	// payload holds only Address.
	Addresses []string
	Input     *sesv2.SendEmailInput
	Err       error
}

// Stream is a lazy, single-pass sequence of rendered payloads.
type Stream struct {
	seq      iter.Seq[Rendered]
	consumed atomic.Bool
}

// All returns the payload sequence. It may be called once; a second call panics.
func (s *Stream) All() iter.Seq[Rendered] {
	if s.consumed.Swap(true) {
		panic("dispatch: payload stream already consumed")
	}
	return s.seq
}

// Renderer turns a message template into SendEmail payloads.
type Renderer struct {
	translator *HeaderTranslator
}

// NewRenderer returns a Renderer using translator for header mapping.
func NewRenderer(translator *HeaderTranslator) *Renderer {
	if translator == nil {
		translator = NewHeaderTranslator(nil, "")
	}
	return &Renderer{translator: translator}
}

// Stream returns the payloads for msg. A message without recipients yields
// exactly one payload addressed to its To/Cc/Bcc lists. Otherwise one
// payload is yielded per recipient, in order, each addressed to that
// recipient alone. msg itself is never modified.
func (r *Renderer) Stream(msg *mail.Message) *Stream {
	base := msg.Clone()
	emailID := base.EmailID()

	return &Stream{seq: func(yield func(Rendered) bool) {
		if len(base.Recipients) == 0 {
			yield(r.renderAll(base, emailID))
			return
		}
		for i, rcpt := range base.Recipients {
			if !yield(r.renderOne(i, base, emailID, rcpt)) {
				return
			}
		}
	}}
}

func (r *Renderer) renderAll(base *mail.Message, emailID string) Rendered {
	m := base.Clone()
	out := Rendered{Index: 0, Addresses: m.AllAddresses()}
	if len(out.Addresses) > 0 {
		out.Address = out.Addresses[0]
	}
	return r.finish(m, emailID, nil, out)
}

func (r *Renderer) renderOne(i int, base *mail.Message, emailID string, rcpt mail.Recipient) Rendered {
	out := Rendered{Index: i, Address: rcpt.Address, Addresses: []string{rcpt.Address}}

	m := base.Clone()
	m.Recipients = nil
	m.To = []mail.Address{{Address: rcpt.Address, Name: rcpt.Name}}
	if rcpt.HashID != "" {
		m.SetHeader(HeaderHashID, rcpt.HashID)
	}
	if rcpt.EmailID != "" && !m.HasHeader(mail.HeaderEmailID) {
		m.AddHeader(mail.HeaderEmailID, rcpt.EmailID)
	}

	if err := m.ApplyTokens(rcpt.Tokens); err != nil {
		out.Err = fmt.Errorf("applying tokens for %s: %w", rcpt.Address, err)
		return out
	}
	return r.finish(m, emailID, rcpt.Tokens, out)
}

// finish translates headers, fills the destination and renders the MIME body.
func (r *Renderer) finish(m *mail.Message, emailID string, tokens map[string]string, out Rendered) Rendered {
	r.translator.ApplyProfile(m, emailID)
	in := &sesv2.SendEmailInput{}
	r.translator.Apply(m, emailID, tokens, in)
	in.Destination = &types.Destination{
		ToAddresses:  mail.Strings(m.To),
		CcAddresses:  mail.Strings(m.Cc),
		BccAddresses: mail.Strings(m.Bcc),
	}

	raw, err := m.Raw()
	if err != nil {
		out.Err = fmt.Errorf("rendering message for %s: %w", out.Address, err)
		return out
	}
	in.Content = &types.EmailContent{Raw: &types.RawMessage{Data: raw}}
	out.Input = in
	return out
}
