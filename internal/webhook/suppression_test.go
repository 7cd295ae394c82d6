package webhook_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/logger"
	"github.com/shaharia-lab/sesrelay/internal/webhook"
)

func TestComplaintReason(t *testing.T) {
	tests := []struct {
		feedback, sub string
		want          string
	}{
		{"abuse", "", "Unsolicited email or some other kind of email abuse."},
		{"virus", "ignored", "A virus was found in the originating message."},
		{"something-new", "", "Unknown complaint reason."},
		{"", "OnAccountSuppressionList", "OnAccountSuppressionList"},
		{"", "", "Unknown complaint reason."},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, webhook.ComplaintReason(tt.feedback, tt.sub), "%q/%q", tt.feedback, tt.sub)
	}
}

func TestBounceReason(t *testing.T) {
	assert.Equal(t, "550 5.1.1 AWS bounce type: Permanent bounce subtype:General",
		webhook.BounceReason("550 5.1.1", "Permanent", "General"))
	assert.Equal(t, "unknown AWS bounce type: Transient bounce subtype:General",
		webhook.BounceReason("", "Transient", "General"))
}

type countingSuppressor struct {
	n   int
	err error
}

func (s countingSuppressor) Suppress(context.Context, string, webhook.SuppressionEntry) (int, error) {
	return s.n, s.err
}

func TestMutator_Apply(t *testing.T) {
	entry := webhook.SuppressionEntry{Address: "a@example.com", Reason: webhook.ReasonBounced}

	assert.NoError(t, webhook.NewMutator(countingSuppressor{n: 2}, logger.Discard()).Apply(context.Background(), entry))
	assert.NoError(t, webhook.NewMutator(countingSuppressor{n: 0}, logger.Discard()).Apply(context.Background(), entry))

	boom := errors.New("boom")
	err := webhook.NewMutator(countingSuppressor{err: boom}, logger.Discard()).Apply(context.Background(), entry)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "a@example.com")
}

func TestKind(t *testing.T) {
	assert.Equal(t, webhook.KindBounce, webhook.ParseKind("Bounce"))
	assert.Equal(t, webhook.KindUnknown, webhook.ParseKind("bounce"))
	assert.Equal(t, webhook.KindUnknown, webhook.ParseKind("Foo"))
	assert.Equal(t, "SubscriptionConfirmation", webhook.KindSubscriptionConfirmation.String())
	assert.Equal(t, "Unknown", webhook.KindUnknown.String())
}

func TestDecodeEnvelope(t *testing.T) {
	env, err := webhook.DecodeEnvelope([]byte(`{"Type":"SubscriptionConfirmation","SubscribeURL":"https://x","Count":3}`))
	require.NoError(t, err)
	assert.Equal(t, webhook.KindSubscriptionConfirmation, env.Kind)
	assert.Equal(t, "https://x", env.String("SubscribeURL"))
	assert.Empty(t, env.String("Count"))
	assert.Empty(t, env.String("Missing"))

	_, err = webhook.DecodeEnvelope([]byte(`{}`))
	assert.ErrorIs(t, err, webhook.ErrInvalidPayloadType)

	_, err = webhook.DecodeEnvelope([]byte(`nope`))
	assert.ErrorIs(t, err, webhook.ErrPayloadDecode)

	env, err = webhook.DecodeEnvelope([]byte(`{"Type":"Notification","Message":"{\"eventType\":\"Bounce\"}"}`))
	require.NoError(t, err)
	nested, err := env.Nested()
	require.NoError(t, err)
	assert.Equal(t, webhook.KindBounce, nested.Kind)

	env, err = webhook.DecodeEnvelope([]byte(`{"Type":"Notification","Message":"{}"}`))
	require.NoError(t, err)
	_, err = env.Nested()
	assert.ErrorIs(t, err, webhook.ErrNotificationJSONInvalid)
	assert.ErrorIs(t, err, webhook.ErrInvalidPayloadType)
}
