package publisher

import (
	"context"
	"fmt"

	"github.com/nats-io/nats.go"

	"veriflow/internal/events"
)

// NATSSender publishes events to NATS subjects named after their topics.
type NATSSender struct {
	conn *nats.Conn
}

// NewNATSSender connects to the given NATS URL.
func NewNATSSender(url string) (*NATSSender, error) {
	conn, err := nats.Connect(url)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSSender{conn: conn}, nil
}

func (s *NATSSender) Send(_ context.Context, topic events.Topic, _ string, payload []byte) error {
	if err := s.conn.Publish(string(topic), payload); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// Close drains and closes the connection.
func (s *NATSSender) Close() {
	if s.conn != nil {
		s.conn.Close()
	}
}
