package dispatch

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/profile"
)

// Control headers consumed by the translator and never sent to recipients.
const (
	HeaderFeedbackForwardingAddress     = "X-SES-FEEDBACK-FORWARDING-EMAIL-ADDRESS"
	HeaderFeedbackForwardingIdentityARN = "X-SES-FEEDBACK-FORWARDING-EMAIL-ADDRESS-IDENTITYARN"
	HeaderFromIdentityARN               = "X-SES-FROM-EMAIL-ADDRESS-IDENTITYARN"
	HeaderConfigurationSet              = "X-SES-CONFIGURATION-SET"
	HeaderListUnsubscribe               = "List-Unsubscribe"
)

// UnsubscribeToken is the per-recipient token whose value replaces the
// List-Unsubscribe header.
const UnsubscribeToken = "{unsubscribe_url}"

// ProfileLookup finds the sender profile for an email id.
type ProfileLookup interface {
	Lookup(emailID string) (profile.Profile, bool)
}

// HeaderTranslator maps message headers and metadata onto SendEmail fields.
type HeaderTranslator struct {
	profiles         ProfileLookup
	configurationSet string
}

// NewHeaderTranslator returns a HeaderTranslator. profiles may be nil.
// configurationSet is used when a message carries no configuration-set header.
func NewHeaderTranslator(profiles ProfileLookup, configurationSet string) *HeaderTranslator {
	return &HeaderTranslator{profiles: profiles, configurationSet: configurationSet}
}

func (t *HeaderTranslator) lookup(emailID string) (profile.Profile, bool) {
	if t.profiles == nil || emailID == "" {
		return profile.Profile{}, false
	}
	return t.profiles.Lookup(emailID)
}

// ApplyProfile sets the sender identity and adds missing custom headers
// from the profile registered for emailID.
func (t *HeaderTranslator) ApplyProfile(msg *mail.Message, emailID string) {
	p, ok := t.lookup(emailID)
	if !ok {
		return
	}
	if p.FromAddress != "" {
		msg.From.Address = p.FromAddress
	}
	if p.FromName != "" {
		msg.From.Name = p.FromName
	}
	for _, name := range p.HeaderNames() {
		if !msg.HasHeader(name) {
			msg.AddHeader(name, p.Headers[name])
		}
	}
}

// Apply fills the sender, reply-to, tag and control fields of in from msg,
// removing consumed control headers from msg. tokens are the recipient's
// personalization tokens (nil for non-personalized sends).
func (t *HeaderTranslator) Apply(msg *mail.Message, emailID string, tokens map[string]string, in *sesv2.SendEmailInput) {
	in.FromEmailAddress = aws.String(msg.From.String())

	in.ReplyToAddresses = mail.Strings(msg.ReplyTo)
	if p, ok := t.lookup(emailID); ok && len(p.ReplyTo) > 0 {
		in.ReplyToAddresses = make([]string, 0, len(p.ReplyTo))
		for _, addr := range p.ReplyTo {
			in.ReplyToAddresses = append(in.ReplyToAddresses, strings.TrimSpace(addr))
		}
	}

	for _, tag := range msg.Tags {
		in.EmailTags = append(in.EmailTags, types.MessageTag{
			Name:  aws.String(tag.Name),
			Value: aws.String(tag.Value),
		})
	}

	if v, ok := take(msg, HeaderFeedbackForwardingAddress); ok {
		in.FeedbackForwardingEmailAddress = aws.String(v)
	}
	if v, ok := take(msg, HeaderFeedbackForwardingIdentityARN); ok {
		in.FeedbackForwardingEmailAddressIdentityArn = aws.String(v)
	}
	if v, ok := take(msg, HeaderFromIdentityARN); ok {
		in.FromEmailAddressIdentityArn = aws.String(v)
	}

	if msg.HasHeader(HeaderListUnsubscribe) {
		msg.DelHeader(HeaderListUnsubscribe)
		if url, ok := tokens[UnsubscribeToken]; ok && url != "" {
			msg.AddHeader(HeaderListUnsubscribe, "<"+url+">")
		}
	}

	if v, ok := take(msg, HeaderConfigurationSet); ok {
		in.ConfigurationSetName = aws.String(v)
	} else if t.configurationSet != "" {
		in.ConfigurationSetName = aws.String(t.configurationSet)
	}
}

// take returns the first value of header name and removes every header with that name.
func take(msg *mail.Message, name string) (string, bool) {
	v, ok := msg.Header(name)
	if ok {
		msg.DelHeader(name)
	}
	return v, ok
}
