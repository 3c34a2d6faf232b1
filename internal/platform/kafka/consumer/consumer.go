// Package consumer wraps the franz-go consumer group client.
//
// Handlers receive one message at a time and decide its fate by return
// value: nil commits the offset, any error leaves the message uncommitted so
// the group redelivers it. Delivery is at least once; handlers own
// idempotency.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/twmb/franz-go/pkg/kgo"
)

// Message is the unit handed to handlers.
type Message struct {
	Topic string
	Key   []byte
	Value []byte
}

// Handler processes a single message. Returning nil commits; returning an
// error triggers redelivery.
type Handler interface {
	Handle(ctx context.Context, msg *Message) error
}

// Consumer runs a consumer group loop against one topic.
type Consumer struct {
	client  *kgo.Client
	handler Handler
	logger  *slog.Logger
}

// New builds a consumer group member. Offsets are committed manually, one
// record at a time, after the handler returns nil.
func New(brokers []string, group, topic string, handler Handler, logger *slog.Logger) (*Consumer, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ConsumerGroup(group),
		kgo.ConsumeTopics(topic),
		kgo.DisableAutoCommit(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka consumer: %w", err)
	}
	return &Consumer{client: client, handler: handler, logger: logger}, nil
}

// Run polls until ctx is cancelled. Records are processed in order within a
// partition; on a handler error the partition is rewound to the failed record
// so the broker redelivers it, and later records on that partition wait.
// Other partitions are unaffected.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		fetches := c.client.PollFetches(ctx)
		if fetches.IsClientClosed() {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		fetches.EachError(func(topic string, partition int32, err error) {
			if !errors.Is(err, context.Canceled) {
				c.logger.Error("kafka fetch error",
					"topic", topic,
					"partition", partition,
					"error", err,
				)
			}
		})

		fetches.EachPartition(func(p kgo.FetchTopicPartition) {
			for _, record := range p.Records {
				msg := &Message{Topic: record.Topic, Key: record.Key, Value: record.Value}
				if err := c.handler.Handle(ctx, msg); err != nil {
					c.logger.Warn("message handling failed, rewinding for redelivery",
						"topic", record.Topic,
						"partition", record.Partition,
						"offset", record.Offset,
						"key", string(record.Key),
						"error", err,
					)
					c.client.SetOffsets(map[string]map[int32]kgo.EpochOffset{
						record.Topic: {record.Partition: {
							Epoch:  record.LeaderEpoch,
							Offset: record.Offset,
						}},
					})
					return
				}
				if err := c.client.CommitRecords(ctx, record); err != nil {
					c.logger.Error("offset commit failed",
						"topic", record.Topic,
						"key", string(record.Key),
						"error", err,
					)
				}
			}
		})
	}
}

// Close leaves the group and releases the client.
func (c *Consumer) Close() {
	c.client.Close()
}
