package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"
)

// SMTPProvider delivers notifications via SMTP using the go-mail library.
type SMTPProvider struct {
	config SMTPConfig
}

// NewSMTPProvider creates a new SMTPProvider with the given configuration.
func NewSMTPProvider(config SMTPConfig) *SMTPProvider {
	return &SMTPProvider{config: config}
}

// Name returns the provider identifier.
func (p *SMTPProvider) Name() string { return "smtp" }

// Recipients returns the configured alert recipients.
func (p *SMTPProvider) Recipients() []string { return p.config.Recipients() }

// Send delivers msg using the configured SMTP server.
func (p *SMTPProvider) Send(ctx context.Context, msg Message) error {
	m, err := p.buildMsg(msg)
	if err != nil {
		return err
	}

	opts := []mail.Option{
		mail.WithPort(p.config.Port),
		mail.WithTLSPolicy(tlsPolicyFromEncryption(p.config.Encryption)),
	}
	if p.config.Encryption == "ssl_tls" {
		opts = append(opts, mail.WithSSL())
	}
	if p.config.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(p.config.Username),
			mail.WithPassword(p.config.Password),
		)
	}

	c, err := mail.NewClient(p.config.Host, opts...)
	if err != nil {
		return fmt.Errorf("failed to create mail client: %w", err)
	}
	return c.DialAndSendWithContext(ctx, m)
}

func (p *SMTPProvider) buildMsg(msg Message) (*mail.Msg, error) {
	m := mail.NewMsg()
	if err := m.From(p.config.FromAddr); err != nil {
		return nil, fmt.Errorf("invalid from address: %w", err)
	}

	recipients := p.config.Recipients()
	if len(recipients) == 0 {
		return nil, errors.New("no alert recipients configured")
	}
	for _, r := range recipients {
		if err := m.AddTo(r); err != nil {
			return nil, fmt.Errorf("invalid recipient %q: %w", r, err)
		}
	}

	m.Subject(msg.Subject)

	// Plain-text fallback for clients that don't render HTML.
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	if html, err := buildEmailHTML(msg.Subject, msg.Body); err == nil {
		m.AddAlternativeString(mail.TypeTextHTML, html)
	}
	return m, nil
}

// tlsPolicyFromEncryption converts the encryption string to a go-mail TLSPolicy.
func tlsPolicyFromEncryption(enc string) mail.TLSPolicy {
	switch enc {
	case "ssl_tls":
		return mail.TLSMandatory
	case "starttls":
		return mail.TLSOpportunistic
	default:
		return mail.NoTLS
	}
}
