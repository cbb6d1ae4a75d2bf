// Package publisher turns typed domain events into transport messages and
// hands them to a configured delivery mode. Delivery is deliberately not
// transactional with the primary write: a crash between the primary commit
// and a successful publish leaves secondary stores stale until the transport
// retries. Callers may ignore the returned receipt (fire-and-forget) or wait
// on it.
package publisher

import (
	"context"
	"log/slog"

	"veriflow/internal/events"
	"veriflow/internal/platform/metrics"
	dErrors "veriflow/pkg/errors"
)

// Sender delivers one encoded payload to a topic. Implementations: in-memory
// recorder (tests), webhook HTTP poster, Kafka producer, NATS publisher.
type Sender interface {
	Send(ctx context.Context, topic events.Topic, key string, payload []byte) error
}

// Publisher is the capability services hold to emit domain events.
type Publisher interface {
	Publish(ctx context.Context, e events.Event) *Receipt
}

// Receipt is a future resolving to the delivery acknowledgement.
type Receipt struct {
	done chan struct{}
	err  error
}

func newReceipt() *Receipt {
	return &Receipt{done: make(chan struct{})}
}

func (r *Receipt) resolve(err error) {
	r.err = err
	close(r.done)
}

// Done is closed once delivery succeeded or failed.
func (r *Receipt) Done() <-chan struct{} {
	return r.done
}

// Err returns the delivery error. Only valid after Done is closed.
func (r *Receipt) Err() error {
	return r.err
}

// Wait blocks until delivery resolves or ctx expires.
func (r *Receipt) Wait(ctx context.Context) error {
	select {
	case <-r.done:
		return r.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// resolved builds an already-settled receipt.
func resolved(err error) *Receipt {
	r := newReceipt()
	r.resolve(err)
	return r
}

// Option configures a publisher.
type Option func(*SyncPublisher)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *SyncPublisher) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *SyncPublisher) {
		p.metrics = m
	}
}

// SyncPublisher encodes and delivers each event before returning. The
// receipt it hands back is always already resolved.
type SyncPublisher struct {
	sender  Sender
	mode    string
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewSync builds a blocking publisher over the given sender.
func NewSync(sender Sender, opts ...Option) *SyncPublisher {
	p := &SyncPublisher{
		sender: sender,
		mode:   "sync",
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *SyncPublisher) Publish(ctx context.Context, e events.Event) *Receipt {
	payload, err := events.Marshal(e)
	if err != nil {
		return resolved(err)
	}

	if err := p.sender.Send(ctx, e.Topic(), e.Key(), payload); err != nil {
		wrapped := dErrors.Wrap(err, dErrors.CodePublishFailure, "transport rejected event")
		p.logger.ErrorContext(ctx, "event publish failed",
			"topic", e.Topic(),
			"kind", e.Kind(),
			"key", e.Key(),
			"error", err,
		)
		if p.metrics != nil {
			p.metrics.PublishFailures.WithLabelValues(string(e.Topic())).Inc()
		}
		return resolved(wrapped)
	}

	if p.metrics != nil {
		p.metrics.EventsPublished.WithLabelValues(string(e.Topic()), p.mode).Inc()
	}
	return resolved(nil)
}
