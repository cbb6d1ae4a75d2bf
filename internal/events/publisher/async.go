package publisher

import (
	"context"
	"log/slog"

	"veriflow/internal/events"
	"veriflow/internal/platform/metrics"
	dErrors "veriflow/pkg/errors"
)

// envelope pairs an encoded event with the receipt its caller holds.
type envelope struct {
	topic   events.Topic
	key     string
	kind    string
	payload []byte
	receipt *Receipt
}

// AsyncPublisher hands events to a background worker and returns immediately.
// The caller's receipt resolves once the worker delivers or gives up; the
// caller's own request handling is never held open waiting for delivery.
type AsyncPublisher struct {
	sender  Sender
	inbox   chan envelope
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// AsyncOption configures an async publisher.
type AsyncOption func(*AsyncPublisher)

// WithAsyncLogger sets the structured logger.
func WithAsyncLogger(logger *slog.Logger) AsyncOption {
	return func(p *AsyncPublisher) {
		p.logger = logger
	}
}

// WithAsyncMetrics sets the metrics sink.
func WithAsyncMetrics(m *metrics.Metrics) AsyncOption {
	return func(p *AsyncPublisher) {
		p.metrics = m
	}
}

// WithBuffer sets the inbox capacity.
func WithBuffer(size int) AsyncOption {
	return func(p *AsyncPublisher) {
		p.inbox = make(chan envelope, size)
	}
}

// NewAsync builds a queued publisher over the given sender. Run must be
// started before events flow.
func NewAsync(sender Sender, opts ...AsyncOption) *AsyncPublisher {
	p := &AsyncPublisher{
		sender: sender,
		inbox:  make(chan envelope, 256),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *AsyncPublisher) Publish(ctx context.Context, e events.Event) *Receipt {
	payload, err := events.Marshal(e)
	if err != nil {
		return resolved(err)
	}

	receipt := newReceipt()
	env := envelope{
		topic:   e.Topic(),
		key:     e.Key(),
		kind:    e.Kind(),
		payload: payload,
		receipt: receipt,
	}

	select {
	case p.inbox <- env:
		if p.metrics != nil {
			p.metrics.EventsPublished.WithLabelValues(string(e.Topic()), "async").Inc()
		}
	case <-ctx.Done():
		receipt.resolve(dErrors.Wrap(ctx.Err(), dErrors.CodePublishFailure, "publish queue unavailable"))
	}
	return receipt
}

// Run drains the inbox until ctx is cancelled, delivering each envelope and
// resolving its receipt. Failures are logged and surfaced on the receipt
// only; the primary write they followed is already committed.
func (p *AsyncPublisher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env := <-p.inbox:
			err := p.sender.Send(ctx, env.topic, env.key, env.payload)
			if err != nil {
				p.logger.ErrorContext(ctx, "async event delivery failed",
					"topic", env.topic,
					"kind", env.kind,
					"key", env.key,
					"error", err,
				)
				if p.metrics != nil {
					p.metrics.PublishFailures.WithLabelValues(string(env.topic)).Inc()
				}
				env.receipt.resolve(dErrors.Wrap(err, dErrors.CodePublishFailure, "transport rejected event"))
				continue
			}
			env.receipt.resolve(nil)
		}
	}
}
