package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/twmb/franz-go/pkg/kgo"

	"veriflow/internal/events"
	"veriflow/internal/ingest"
)

const consumerGroup = "veriflow-ingest"

// KafkaConsumer polls all event topics in one consumer group and applies
// records through the ingest router. Offsets commit only after a successful
// apply, so a crash replays uncommitted records; ingestion is idempotent,
// which makes the replay harmless.
type KafkaConsumer struct {
	client *kgo.Client
	router *ingest.Router
	logger *slog.Logger
}

func NewKafkaConsumer(brokers string, router *ingest.Router, logger *slog.Logger) (*KafkaConsumer, error) {
	if logger == nil {
		logger = slog.Default()
	}
	topics := make([]string, 0, len(events.Topics))
	for _, t := range events.Topics {
		topics = append(topics, string(t))
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(strings.Split(brokers, ",")...),
		kgo.ConsumerGroup(consumerGroup),
		kgo.ConsumeTopics(topics...),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("connect kafka consumer: %w", err)
	}
	return &KafkaConsumer{client: client, router: router, logger: logger}, nil
}

// Run polls until the context is cancelled.
func (c *KafkaConsumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() || errors.Is(ctx.Err(), context.Canceled) {
			return nil
		}
		fetches.EachError(func(topic string, partition int32, err error) {
			c.logger.ErrorContext(ctx, "fetch error",
				"topic", topic,
				"partition", partition,
				"error", err,
			)
		})

		var applied []*kgo.Record
		fetches.EachRecord(func(record *kgo.Record) {
			if err := c.router.Apply(ctx, events.Topic(record.Topic), record.Value); err != nil {
				c.logger.ErrorContext(ctx, "record not applied, leaving offset uncommitted",
					"topic", record.Topic,
					"partition", record.Partition,
					"offset", record.Offset,
					"error", err,
				)
				return
			}
			applied = append(applied, record)
		})
		if len(applied) > 0 {
			if err := c.client.CommitRecords(ctx, applied...); err != nil {
				c.logger.ErrorContext(ctx, "offset commit failed", "error", err)
			}
		}
	}
}

// Close leaves the group and releases the client.
func (c *KafkaConsumer) Close() {
	c.client.Close()
}
