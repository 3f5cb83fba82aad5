// internal/common/messaging/consumer.go
package messaging

import (
	"context"
	"fmt"
	"time"

	"loanflow/internal/common/config"

	"github.com/segmentio/kafka-go"
)

// Message is the unit handed to consumers: the raw payload plus enough
// position information to log and commit.
type Message struct {
	Key       []byte
	Value     []byte
	Partition int
	Offset    int64

	raw kafka.Message
}

// Consumer wraps a kafka-go Reader in consumer-group mode with explicit
// offset commits. Fetch blocks until a message is available or the context is
// canceled; the offset only advances when Commit is called, so a crash between
// Fetch and Commit re-delivers the message on restart (at-least-once).
type Consumer struct {
	reader *kafka.Reader
}

// NewConsumer constructs a Consumer joining the configured consumer group on
// the application topic.
func NewConsumer(cfg config.KafkaConfig) (*Consumer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if cfg.Topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}
	if cfg.GroupID == "" {
		return nil, fmt.Errorf("kafka: consumer group id required")
	}

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  500 * time.Millisecond,
		// StartOffset only applies when the group has no committed offset
		// yet; afterwards the committed offset wins.
		StartOffset: kafka.FirstOffset,
	})

	return &Consumer{reader: r}, nil
}

// Fetch returns the next unconsumed message without committing its offset.
func (c *Consumer) Fetch(ctx context.Context) (*Message, error) {
	m, err := c.reader.FetchMessage(ctx)
	if err != nil {
		return nil, err
	}
	return &Message{
		Key:       m.Key,
		Value:     m.Value,
		Partition: m.Partition,
		Offset:    m.Offset,
		raw:       m,
	}, nil
}

// Commit marks the message as consumed for the group. Call it only after the
// message's side effects are durable.
func (c *Consumer) Commit(ctx context.Context, msg *Message) error {
	return c.reader.CommitMessages(ctx, msg.raw)
}

// Close shuts down the reader and leaves the consumer group.
func (c *Consumer) Close() error {
	if c == nil || c.reader == nil {
		return nil
	}
	return c.reader.Close()
}
