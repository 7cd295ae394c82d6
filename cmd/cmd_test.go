package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/sesrelay/internal/config"
	"github.com/shaharia-lab/sesrelay/internal/dispatch"
	"github.com/shaharia-lab/sesrelay/internal/mail"
	"github.com/shaharia-lab/sesrelay/internal/service"
	"github.com/shaharia-lab/sesrelay/internal/ses"
)

func TestRootCmd_RegistersSubcommands(t *testing.T) {
	root := newRootCmd(&config.AppConfig{Port: 8990})

	names := make([]string, 0)
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "send", "quota", "version"})
}

func TestVersionCmd(t *testing.T) {
	root := newRootCmd(&config.AppConfig{})
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "sesrelay dev")
}

func TestReadMessage(t *testing.T) {
	const body = `{"subject":"Hi","from":{"address":"news@example.com"},"recipients":[{"address":"a@example.com"}]}`

	t.Run("stdin", func(t *testing.T) {
		msg, err := readMessage(strings.NewReader(body), "-")
		require.NoError(t, err)
		assert.Equal(t, "Hi", msg.Subject)
		assert.Equal(t, []string{"a@example.com"}, msg.RecipientAddresses())
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "msg.json")
		require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
		msg, err := readMessage(nil, path)
		require.NoError(t, err)
		assert.Equal(t, "news@example.com", msg.From.Address)
	})

	t.Run("invalid JSON", func(t *testing.T) {
		_, err := readMessage(strings.NewReader("{"), "-")
		assert.Error(t, err)
	})
}

func TestWriteMessageRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "retry.json")
	msg := &mail.Message{
		Subject:    "Hi",
		From:       mail.Address{Address: "news@example.com"},
		Recipients: []mail.Recipient{{Address: "b@example.com", Tokens: map[string]string{"{name}": "Bob"}}},
	}

	require.NoError(t, writeMessage(path, msg))
	got, err := readMessage(nil, path)
	require.NoError(t, err)
	assert.Equal(t, msg.Recipients, got.Recipients)
}

func TestPrintSendReport(t *testing.T) {
	var out bytes.Buffer
	printSendReport(&out, &service.SendReport{
		ID:        "s-1",
		Rate:      14,
		Delivered: []dispatch.Delivery{{Address: "a@example.com"}},
		Failed:    []service.FailedRecipient{{Address: "b@example.com", Reason: "MessageRejected"}},
	})

	text := out.String()
	assert.Contains(t, text, "s-1")
	assert.Contains(t, text, "partial failure")
	assert.Contains(t, text, "b@example.com")
	assert.Contains(t, text, "MessageRejected")
}

func TestPrintQuotaReport(t *testing.T) {
	var out bytes.Buffer
	printQuotaReport(&out, &service.QuotaReport{
		Region:        "eu-west-1",
		Quota:         &ses.Quota{MaxSendRate: 14, Max24HourSend: 50000, SendingEnabled: true},
		EffectiveRate: 14,
		RateSource:    ses.SourceProvider,
	})

	text := out.String()
	assert.Contains(t, text, "eu-west-1")
	assert.Contains(t, text, "14.00/s")
	assert.Contains(t, text, "14/s (provider)")
}
