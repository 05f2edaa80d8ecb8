package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// MessageReader is the subset of *kafka.Reader used by Consumer.
type MessageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Close() error
}

// ConsumerConfig holds configuration for a Consumer.
type ConsumerConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic is the Kafka topic for search events.
	Topic string
	// GroupID is the consumer group ID. Empty reads without a group.
	GroupID string
}

// NewKafkaReader creates the reader for cfg.
func NewKafkaReader(cfg ConsumerConfig) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:  cfg.Brokers,
		Topic:    cfg.Topic,
		GroupID:  cfg.GroupID,
		MinBytes: 1,
		MaxBytes: 10e6,
		MaxWait:  3 * time.Second,
	})
}

// Consumer reads search.completed events.
type Consumer struct {
	reader MessageReader
	logger zerolog.Logger
}

// NewConsumer creates a consumer over reader.
func NewConsumer(reader MessageReader, logger zerolog.Logger) *Consumer {
	return &Consumer{
		reader: reader,
		logger: logger.With().Str("component", "kafka_consumer").Logger(),
	}
}

// Run reads until ctx is cancelled and calls handle for every
// search.completed event. Other event types and undecodable messages are
// logged and skipped. A handler error stops the loop.
func (c *Consumer) Run(ctx context.Context, handle func(SearchCompleted) error) error {
	for {
		msg, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				c.logger.Debug().Msg("consumer stopped via context cancellation")
				return ctx.Err()
			}
			c.logger.Error().Err(err).Msg("failed to read message from Kafka")
			continue
		}

		if t := header(msg, HeaderEventType); t != "" && t != domain.EventTypeSearchCompleted {
			c.logger.Debug().Str("event_type", t).Msg("skipping event")
			continue
		}

		var event SearchCompleted
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			c.logger.Error().Err(err).
				Int("partition", msg.Partition).
				Int64("offset", msg.Offset).
				Msg("failed to unmarshal search event")
			continue
		}

		if err := handle(event); err != nil {
			return err
		}
	}
}

// Close closes the reader.
func (c *Consumer) Close() error {
	return c.reader.Close()
}

func header(msg kafka.Message, key string) string {
	for _, h := range msg.Headers {
		if h.Key == key {
			return string(h.Value)
		}
	}
	return ""
}
