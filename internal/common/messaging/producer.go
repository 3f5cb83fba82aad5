// internal/common/messaging/producer.go
package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loanflow/internal/common/config"

	"github.com/segmentio/kafka-go"
)

// Producer is a thin wrapper over the kafka-go Writer offering synchronous,
// acknowledged produce-with-retries behavior. A successful Publish means the
// message was acknowledged by the writer pipeline before returning.
type Producer struct {
	writer      *kafka.Writer
	topic       string
	maxAttempts int
}

// NewProducer constructs a Producer for the given topic. The key-hash
// balancer keeps all messages for one applicant on the same partition, which
// preserves per-identity ordering.
func NewProducer(cfg config.KafkaConfig, topic string) (*Producer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("kafka: at least one broker required")
	}
	if topic == "" {
		return nil, fmt.Errorf("kafka: topic required")
	}

	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	writeTimeout := config.GetDuration(cfg.WriteTimeout)
	if writeTimeout == 0 {
		writeTimeout = 10 * time.Second
	}

	w := kafka.NewWriter(kafka.WriterConfig{
		Brokers:      cfg.Brokers,
		Topic:        topic,
		Balancer:     &kafka.Hash{},
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: writeTimeout,
		// Async=false ensures WriteMessages returns only after the message
		// was acknowledged (within WriteTimeout).
		Async: false,
	})

	return &Producer{
		writer:      w,
		topic:       topic,
		maxAttempts: maxAttempts,
	}, nil
}

// Publish writes a single message with the given key and value. On transient
// failure it retries with exponential backoff up to the configured attempt
// budget, then reports the last error.
func (p *Producer) Publish(ctx context.Context, key, value []byte) error {
	var lastErr error
	backoff := 100 * time.Millisecond

	for attempt := 1; attempt <= p.maxAttempts; attempt++ {
		msg := kafka.Message{
			Key:   key,
			Value: value,
			Time:  time.Now().UTC(),
		}

		// Per-attempt context with timeout to avoid indefinite hangs.
		ctxAttempt, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := p.writer.WriteMessages(ctxAttempt, msg)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		lastErr = err
		time.Sleep(backoff)
		if backoff < 2*time.Second {
			backoff *= 2
		}
	}

	return fmt.Errorf("publish failed after %d attempts: %w", p.maxAttempts, lastErr)
}

// PublishJSON marshals v into compact JSON and publishes it as the message
// value. key may be nil.
func (p *Producer) PublishJSON(ctx context.Context, key []byte, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	return p.Publish(ctx, key, b)
}

// Close shuts down the underlying writer and releases resources.
func (p *Producer) Close() error {
	if p == nil || p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
