package dispatch_test

import (
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/profile"
)

func TestHeaderTranslator_FromAddress(t *testing.T) {
	tests := []struct {
		name string
		from mail.Address
		want string
	}{
		{"with display name", mail.Address{Address: "a@example.com", Name: "Alice"}, "Alice <a@example.com>"},
		{"blank display name", mail.Address{Address: "a@example.com", Name: " "}, "a@example.com"},
		{"no display name", mail.Address{Address: "a@example.com"}, "a@example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := &sesv2.SendEmailInput{}
			dispatch.NewHeaderTranslator(nil, "").Apply(&mail.Message{From: tt.from}, "", nil, in)
			assert.Equal(t, tt.want, aws.ToString(in.FromEmailAddress))
		})
	}
}

func TestHeaderTranslator_ReplyTo(t *testing.T) {
	profiles := profile.NewRegistry(profile.Profile{EmailID: "9", ReplyTo: []string{"support@example.com", " help@example.com"}})
	tr := dispatch.NewHeaderTranslator(profiles, "")
	msg := &mail.Message{From: mail.Address{Address: "f@example.com"}, ReplyTo: []mail.Address{{Address: "own@example.com"}}}

	in := &sesv2.SendEmailInput{}
	tr.Apply(msg.Clone(), "", nil, in)
	assert.Equal(t, []string{"own@example.com"}, in.ReplyToAddresses)

	in = &sesv2.SendEmailInput{}
	tr.Apply(msg.Clone(), "9", nil, in)
	assert.Equal(t, []string{"support@example.com", "help@example.com"}, in.ReplyToAddresses)
}

func TestHeaderTranslator_TagsStayInMessage(t *testing.T) {
	msg := &mail.Message{
		From: mail.Address{Address: "f@example.com"},
		Tags: []mail.Tag{{Name: "campaign", Value: "spring"}, {Name: "segment", Value: "vip"}},
	}
	in := &sesv2.SendEmailInput{}

	dispatch.NewHeaderTranslator(nil, "").Apply(msg, "", nil, in)

	require.Len(t, in.EmailTags, 2)
	assert.Equal(t, "campaign", aws.ToString(in.EmailTags[0].Name))
	assert.Equal(t, "spring", aws.ToString(in.EmailTags[0].Value))
	assert.Equal(t, "segment", aws.ToString(in.EmailTags[1].Name))
	assert.Len(t, msg.Tags, 2)
}

func TestHeaderTranslator_ControlHeadersMoveToPayload(t *testing.T) {
	msg := &mail.Message{
		From: mail.Address{Address: "f@example.com"},
		Headers: []mail.Header{
			{Name: "x-ses-feedback-forwarding-email-address", Value: "bounces@example.com"},
			{Name: dispatch.HeaderFeedbackForwardingIdentityARN, Value: "arn:fwd"},
			{Name: dispatch.HeaderFromIdentityARN, Value: "arn:from"},
			{Name: dispatch.HeaderConfigurationSet, Value: "marketing"},
			{Name: "X-Keep", Value: "yes"},
		},
	}
	in := &sesv2.SendEmailInput{}

	dispatch.NewHeaderTranslator(nil, "default-set").Apply(msg, "", nil, in)

	assert.Equal(t, "bounces@example.com", aws.ToString(in.FeedbackForwardingEmailAddress))
	assert.Equal(t, "arn:fwd", aws.ToString(in.FeedbackForwardingEmailAddressIdentityArn))
	assert.Equal(t, "arn:from", aws.ToString(in.FromEmailAddressIdentityArn))
	assert.Equal(t, "marketing", aws.ToString(in.ConfigurationSetName))
	assert.Equal(t, []mail.Header{{Name: "X-Keep", Value: "yes"}}, msg.Headers)
	assert.Nil(t, in.ListManagementOptions)
}

func TestHeaderTranslator_DefaultConfigurationSet(t *testing.T) {
	in := &sesv2.SendEmailInput{}
	dispatch.NewHeaderTranslator(nil, "default-set").Apply(&mail.Message{From: mail.Address{Address: "f@example.com"}}, "", nil, in)
	assert.Equal(t, "default-set", aws.ToString(in.ConfigurationSetName))

	in = &sesv2.SendEmailInput{}
	dispatch.NewHeaderTranslator(nil, "").Apply(&mail.Message{From: mail.Address{Address: "f@example.com"}}, "", nil, in)
	assert.Nil(t, in.ConfigurationSetName)
}

func TestHeaderTranslator_ListUnsubscribe(t *testing.T) {
	tests := []struct {
		name    string
		headers []mail.Header
		tokens  map[string]string
		want    []mail.Header
	}{
		{
			name:    "replaced from token",
			headers: []mail.Header{{Name: "List-Unsubscribe", Value: "<https://old>"}},
			tokens:  map[string]string{"{unsubscribe_url}": "https://example.com/u/1"},
			want:    []mail.Header{{Name: "List-Unsubscribe", Value: "<https://example.com/u/1>"}},
		},
		{
			name:    "removed without token",
			headers: []mail.Header{{Name: "List-Unsubscribe", Value: "<https://old>"}},
			tokens:  map[string]string{"{name}": "x"},
			want:    nil,
		},
		{
			name:    "not added when absent",
			headers: nil,
			tokens:  map[string]string{"{unsubscribe_url}": "https://example.com/u/1"},
			want:    nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := &mail.Message{From: mail.Address{Address: "f@example.com"}, Headers: tt.headers}
			in := &sesv2.SendEmailInput{}

			dispatch.NewHeaderTranslator(nil, "").Apply(msg, "", tt.tokens, in)

			if tt.want == nil {
				assert.Empty(t, msg.Headers)
			} else {
				assert.Equal(t, tt.want, msg.Headers)
			}
			assert.Nil(t, in.ListManagementOptions)
		})
	}
}

func TestHeaderTranslator_ApplyProfile(t *testing.T) {
	profiles := profile.NewRegistry(profile.Profile{
		EmailID:     "5",
		FromAddress: "brand@example.com",
		FromName:    "Brand",
		Headers:     map[string]string{"X-Existing": "profile", "X-Added": "profile"},
	})
	msg := &mail.Message{
		From:    mail.Address{Address: "default@example.com"},
		Headers: []mail.Header{{Name: "X-Existing", Value: "message"}},
	}

	dispatch.NewHeaderTranslator(profiles, "").ApplyProfile(msg, "5")

	assert.Equal(t, mail.Address{Address: "brand@example.com", Name: "Brand"}, msg.From)
	v, _ := msg.Header("X-Existing")
	assert.Equal(t, "message", v)
	v, _ = msg.Header("X-Added")
	assert.Equal(t, "profile", v)
}

func TestRenderer_ControlHeadersNotInRawMessage(t *testing.T) {
	msg := personalized(1)
	msg.Headers = append(msg.Headers,
		mail.Header{Name: dispatch.HeaderConfigurationSet, Value: "marketing"},
		mail.Header{Name: dispatch.HeaderFromIdentityARN, Value: "arn:from"},
	)

	got := collect(dispatch.NewRenderer(dispatch.NewHeaderTranslator(nil, "")).Stream(msg))

	raw := rawOf(got[0].Input)
	assert.Empty(t, headerLines(raw, dispatch.HeaderConfigurationSet))
	assert.Empty(t, headerLines(raw, dispatch.HeaderFromIdentityARN))
	unsub := headerLines(raw, "List-Unsubscribe")
	require.Len(t, unsub, 1)
	assert.Contains(t, unsub[0], "https://example.com/u/user0@example.com")
	assert.Equal(t, "marketing", aws.ToString(got[0].Input.ConfigurationSetName))
}
