package publisher

import (
	"context"
	"fmt"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"veriflow/internal/events"
)

// KafkaSender produces events to Kafka, one topic per event family. The
// aggregate id is the record key, so all events for one verification request
// land on one partition and arrive in order there; cross-partition ordering
// is still not guaranteed and ingestion does not depend on it.
type KafkaSender struct {
	client *kgo.Client
}

// NewKafkaSender connects a producer to the given comma-separated brokers.
func NewKafkaSender(brokers string) (*KafkaSender, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka producer: %w", err)
	}
	return &KafkaSender{client: client}, nil
}

func (s *KafkaSender) Send(ctx context.Context, topic events.Topic, key string, payload []byte) error {
	record := &kgo.Record{
		Topic: string(topic),
		Key:   []byte(key),
		Value: payload,
	}
	if err := s.client.ProduceSync(ctx, record).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", topic, err)
	}
	return nil
}

// Close flushes and releases the producer.
func (s *KafkaSender) Close() {
	s.client.Close()
}
