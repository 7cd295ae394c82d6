package webhook

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DefaultConfirmTimeout bounds the confirmation GET when no timeout is configured.
const DefaultConfirmTimeout = 5 * time.Second

var snsHostPattern = regexp.MustCompile(`^sns(\.[a-z0-9-]+)?\.amazonaws\.com(\.cn)?$`)

// ValidateCallbackURL checks that raw is an SNS subscription confirmation URL
// that is safe to request. It returns *UntrustedCallbackURLError on rejection.
func ValidateCallbackURL(raw string) (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, &UntrustedCallbackURLError{Reason: "url is not absolute"}
	}
	host := strings.ToLower(u.Hostname())
	if u.Scheme != "https" {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "scheme must be https"}
	}
	if u.User != nil {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "user info not allowed"}
	}
	if port := u.Port(); port != "" && port != "443" {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "port must be 443"}
	}
	if host == "localhost" || strings.HasSuffix(host, ".localhost") {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "localhost not allowed"}
	}
	if net.ParseIP(host) != nil {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "ip literal not allowed"}
	}
	if !snsHostPattern.MatchString(host) {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "host is not an SNS endpoint"}
	}
	if !hasConfirmAction(u.Query()) {
		return nil, &UntrustedCallbackURLError{Host: host, Reason: "Action=ConfirmSubscription missing"}
	}
	return u, nil
}

func hasConfirmAction(q url.Values) bool {
	for key, values := range q {
		if !strings.EqualFold(key, "Action") {
			continue
		}
		for _, v := range values {
			if strings.EqualFold(v, "ConfirmSubscription") {
				return true
			}
		}
	}
	return false
}

// Confirmer completes the SNS subscription handshake.
type Confirmer struct {
	client *http.Client
	logger *slog.Logger
}

// ConfirmerOption configures a Confirmer.
type ConfirmerOption func(*http.Client)

// WithTransport replaces the base transport wrapped by the tracing transport.
func WithTransport(rt http.RoundTripper) ConfirmerOption {
	return func(c *http.Client) { c.Transport = otelhttp.NewTransport(rt) }
}

// NewConfirmer returns a Confirmer whose GET requests time out after timeout.
func NewConfirmer(timeout time.Duration, logger *slog.Logger, opts ...ConfirmerOption) *Confirmer {
	if timeout <= 0 {
		timeout = DefaultConfirmTimeout
	}
	client := &http.Client{
		Timeout:   timeout,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		// Redirects are not followed: the target must stay on the validated host.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	for _, opt := range opts {
		opt(client)
	}
	return &Confirmer{client: client, logger: logger}
}

// Confirm validates rawURL and, if it is trusted, requests it. Only a 200
// response counts as confirmed.
func (c *Confirmer) Confirm(ctx context.Context, rawURL string) error {
	u, err := ValidateCallbackURL(rawURL)
	if err != nil {
		c.logger.Warn("refusing subscription confirmation", "error", err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("building confirmation request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Error("subscription confirmation failed", "host", u.Hostname(), "error", err)
		return fmt.Errorf("confirming subscription: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode != http.StatusOK {
		c.logger.Error("subscription confirmation rejected", "host", u.Hostname(), "status", resp.StatusCode)
		return fmt.Errorf("confirming subscription: unexpected status %d", resp.StatusCode)
	}
	c.logger.Info("subscription confirmed", "host", u.Hostname())
	return nil
}
