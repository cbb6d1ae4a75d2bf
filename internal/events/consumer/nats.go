// Package consumer drains broker transports into the ingest router. It is
// the receiving half of the kafka and nats publish modes; the webhook modes
// need no consumer because the HTTP handlers ingest directly.
package consumer

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"veriflow/internal/events"
	"veriflow/internal/ingest"
)

// NATSConsumer subscribes one handler per topic subject and applies every
// message through the ingest router. Failed applications are logged and
// dropped; NATS core has no redelivery, and ingestion stays idempotent if an
// operator replays the event by hand.
type NATSConsumer struct {
	conn   *nats.Conn
	router *ingest.Router
	logger *slog.Logger
	subs   []*nats.Subscription
}

func NewNATSConsumer(url string, router *ingest.Router, logger *slog.Logger) (*NATSConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSConsumer{conn: conn, router: router, logger: logger}, nil
}

// Subscribe registers a subscription for every event topic.
func (c *NATSConsumer) Subscribe(ctx context.Context) error {
	for _, topic := range events.Topics {
		topic := topic
		sub, err := c.conn.Subscribe(string(topic), func(msg *nats.Msg) {
			if err := c.router.Apply(ctx, topic, msg.Data); err != nil {
				c.logger.ErrorContext(ctx, "dropping undeliverable message",
					"topic", topic,
					"error", err,
				)
			}
		})
		if err != nil {
			return fmt.Errorf("subscribe to %s: %w", topic, err)
		}
		c.subs = append(c.subs, sub)
	}
	c.logger.InfoContext(ctx, "subscribed to event subjects", "subjects", len(c.subs))
	return nil
}

// Close unsubscribes and drops the connection.
func (c *NATSConsumer) Close() {
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	if c.conn != nil {
		c.conn.Close()
	}
}
