package dispatch

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"golang.org/x/sync/errgroup"
)

// Sender issues one SendEmail call.
type Sender interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Delivery is a payload accepted by the provider.
type Delivery struct {
	Index     int    `json:"-"`
	Address   string `json:"address"`
	MessageID string `json:"message_id"`
}

// Result aggregates the outcomes of one send.
type Result struct {
	Delivered []Delivery
	Failures  []*TransportError
	// Rate is the effective rate the send ran with.
	Rate int
}

// FailedAddresses returns the failed destinations in stream order, without duplicates.
func (r Result) FailedAddresses() []string {
	seen := make(map[string]struct{}, len(r.Failures))
	out := make([]string, 0, len(r.Failures))
	for _, f := range r.Failures {
		key := strings.ToLower(f.Address)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, f.Address)
	}
	return out
}

func (r Rendered) destinations() []string {
	if len(r.Addresses) > 0 {
		return r.Addresses
	}
	return []string{r.Address}
}

// OK reports whether every payload was accepted.
func (r Result) OK() bool { return len(r.Failures) == 0 }

// Pool executes rendered payloads as concurrent provider calls.
type Pool struct {
	sender  Sender
	pacer   *Pacer
	logger  *slog.Logger
	metrics *Metrics
}

// NewPool returns a Pool issuing calls through sender, paced by pacer.
func NewPool(sender Sender, pacer *Pacer, logger *slog.Logger, metrics *Metrics) *Pool {
	return &Pool{sender: sender, pacer: pacer, logger: logger, metrics: metrics}
}

type indexedFailure struct {
	index int
	err   *TransportError
}

// Run consumes stream, keeping at most concurrency calls in flight, and
// returns once every issued call has completed. Issued calls are never
// cancelled. If ctx ends before a payload is issued, that payload is
// recorded as failed with the context error and is not sent.
func (p *Pool) Run(ctx context.Context, stream *Stream, concurrency int) Result {
	var g errgroup.Group
	g.SetLimit(max(1, concurrency))

	callCtx := context.WithoutCancel(ctx)

	var (
		mu        sync.Mutex
		delivered []Delivery
		failures  []indexedFailure
	)
	// fail records one TransportError per destination of r, sharing err.
	fail := func(r Rendered, err error) {
		dests := r.destinations()
		errs := make([]indexedFailure, 0, len(dests))
		for _, addr := range dests {
			errs = append(errs, indexedFailure{index: r.Index, err: &TransportError{Address: addr, Err: err}})
		}
		mu.Lock()
		failures = append(failures, errs...)
		mu.Unlock()
		p.metrics.observePayload(outcomeFailed)
		p.logger.Error("payload rejected", "to", r.Address, "destinations", len(dests), "reason", errs[0].err.Reason())
	}

	for r := range stream.All() {
		if r.Err != nil {
			fail(r, r.Err)
			continue
		}
		if err := p.pacer.Wait(ctx); err != nil {
			fail(r, err)
			continue
		}

		g.Go(func() error {
			out, err := p.sender.SendEmail(callCtx, r.Input)
			if err != nil {
				fail(r, err)
				return nil
			}
			var messageID string
			if out != nil {
				messageID = aws.ToString(out.MessageId)
			}
			mu.Lock()
			for _, addr := range r.destinations() {
				delivered = append(delivered, Delivery{Index: r.Index, Address: addr, MessageID: messageID})
			}
			mu.Unlock()
			p.metrics.observePayload(outcomeSent)
			return nil
		})
	}
	_ = g.Wait()

	slices.SortStableFunc(delivered, func(a, b Delivery) int { return cmp.Compare(a.Index, b.Index) })
	slices.SortStableFunc(failures, func(a, b indexedFailure) int { return cmp.Compare(a.index, b.index) })

	res := Result{Delivered: delivered}
	for _, f := range failures {
		res.Failures = append(res.Failures, f.err)
	}
	return res
}
