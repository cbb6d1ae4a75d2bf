// Package ingest applies domain events to the secondary stores. Application
// is idempotent per event: replays resolve to the same rows, so at-least-once
// delivery over any transport is safe.
package ingest

import (
	"context"
	"log/slog"

	"veriflow/internal/events"
	"veriflow/internal/platform/metrics"
	dErrors "veriflow/pkg/errors"
)

// Ingestor applies raw event payloads from one topic.
type Ingestor interface {
	Topic() events.Topic
	Apply(ctx context.Context, payload []byte) error
}

// Router dispatches payloads to the ingestor registered for their topic.
type Router struct {
	ingestors map[events.Topic]Ingestor
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

type RouterOption func(*Router)

func WithRouterLogger(logger *slog.Logger) RouterOption {
	return func(r *Router) {
		r.logger = logger
	}
}

func WithRouterMetrics(m *metrics.Metrics) RouterOption {
	return func(r *Router) {
		r.metrics = m
	}
}

func NewRouter(opts ...RouterOption) *Router {
	r := &Router{
		ingestors: make(map[events.Topic]Ingestor),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds an ingestor for its topic.
func (r *Router) Register(ing Ingestor) {
	r.ingestors[ing.Topic()] = ing
}

// Apply routes the payload to the topic's ingestor.
func (r *Router) Apply(ctx context.Context, topic events.Topic, payload []byte) error {
	ing, ok := r.ingestors[topic]
	if !ok {
		return dErrors.Newf(dErrors.CodeInternal, "no ingestor registered for topic %s", topic)
	}
	if err := ing.Apply(ctx, payload); err != nil {
		reason := "apply"
		if dErrors.HasCode(err, dErrors.CodeMalformedPayload) {
			reason = "malformed"
		}
		if r.metrics != nil {
			r.metrics.IngestFailures.WithLabelValues(string(topic), reason).Inc()
		}
		r.logger.ErrorContext(ctx, "event ingestion failed",
			"topic", topic,
			"reason", reason,
			"error", err,
		)
		return err
	}
	if r.metrics != nil {
		r.metrics.IngestSuccess.WithLabelValues(string(topic)).Inc()
	}
	return nil
}
