package dispatch_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	"github.com/shaharia-lab/sesrelay/internal/mail"
)

// fakeSender records every call and fails destinations listed in fail.
type fakeSender struct {
	mu       sync.Mutex
	inputs   []*sesv2.SendEmailInput
	fail     map[string]bool
	delay    time.Duration
	inflight atomic.Int32
	maxSeen  atomic.Int32
	ctxErrs  atomic.Int32
}

func newFakeSender(fail ...string) *fakeSender {
	f := &fakeSender{fail: map[string]bool{}}
	for _, a := range fail {
		f.fail[a] = true
	}
	return f
}

func (f *fakeSender) SendEmail(ctx context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	n := f.inflight.Add(1)
	defer f.inflight.Add(-1)
	for {
		seen := f.maxSeen.Load()
		if n <= seen || f.maxSeen.CompareAndSwap(seen, n) {
			break
		}
	}

	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if ctx.Err() != nil {
		f.ctxErrs.Add(1)
	}

	f.mu.Lock()
	f.inputs = append(f.inputs, in)
	f.mu.Unlock()

	to := mail.Normalize(in.Destination.ToAddresses[0])
	if f.fail[to] {
		return nil, errors.New("MessageRejected: address blacklisted")
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-" + to)}, nil
}

func (f *fakeSender) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inputs)
}

// fixedRate is a RateSource returning a constant.
type fixedRate int

func (r fixedRate) EffectiveRate(context.Context) (int, string) { return int(r), "override" }

func personalized(n int) *mail.Message {
	m := &mail.Message{
		Subject:  "Hello {name}",
		TextBody: "Hi {name}, unsubscribe at {unsubscribe_url}",
		From:     mail.Address{Address: "news@example.com", Name: "News"},
		Headers:  []mail.Header{{Name: "List-Unsubscribe", Value: "<https://example.com/static>"}},
	}
	for i := 0; i < n; i++ {
		addr := fmt.Sprintf("user%d@example.com", i)
		m.Recipients = append(m.Recipients, mail.Recipient{
			Address: addr,
			Name:    fmt.Sprintf("User %d", i),
			Tokens: map[string]string{
				"{name}":            fmt.Sprintf("User%d", i),
				"{unsubscribe_url}": "https://example.com/u/" + addr,
			},
		})
	}
	return m
}

func rawOf(in *sesv2.SendEmailInput) string {
	return string(in.Content.Raw.Data)
}

func headerLines(raw, name string) []string {
	var out []string
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.HasPrefix(strings.ToLower(line), strings.ToLower(name)+":") {
			out = append(out, line)
		}
	}
	return out
}
