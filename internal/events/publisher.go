package events

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/segmentio/kafka-go"

	"github.com/helixir/paper-discovery-service/internal/domain"
)

// Header keys set on every published message.
const (
	HeaderEventType    = "event_type"
	HeaderEventVersion = "event_version"
	HeaderSource       = "source"
	HeaderSessionID    = "session_id"
)

// Publisher delivers domain events.
type Publisher interface {
	Publish(ctx context.Context, event *domain.Event) error
	Close() error
}

// MessageWriter is the subset of *kafka.Writer used by KafkaPublisher.
// This interface allows for easy mocking in tests.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig holds configuration for the Kafka publisher.
type KafkaConfig struct {
	// Brokers is the list of Kafka broker addresses.
	Brokers []string
	// Topic receives every event.
	Topic string
	// BatchSize and BatchTimeout bound producer batching.
	BatchSize    int
	BatchTimeout time.Duration
}

// KafkaPublisher writes events to a Kafka topic keyed by session, so one
// session's events stay ordered within a partition.
type KafkaPublisher struct {
	writer MessageWriter
	source string
	logger zerolog.Logger
}

var _ Publisher = (*KafkaPublisher)(nil)

// NewKafkaWriter creates the producer for cfg.
func NewKafkaWriter(cfg KafkaConfig) *kafka.Writer {
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 100
	}
	batchTimeout := cfg.BatchTimeout
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		BatchSize:    batchSize,
		BatchTimeout: batchTimeout,
		RequiredAcks: kafka.RequireOne,
	}
}

// NewKafkaPublisher creates a publisher over writer. source is written to
// the source header.
func NewKafkaPublisher(writer MessageWriter, source string, logger zerolog.Logger) *KafkaPublisher {
	return &KafkaPublisher{
		writer: writer,
		source: source,
		logger: logger.With().Str("component", "kafka_publisher").Logger(),
	}
}

// Publish writes one event.
func (p *KafkaPublisher) Publish(ctx context.Context, event *domain.Event) error {
	msg := p.message(event)
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("kafka publish %s: %w", event.EventType, err)
	}

	p.logger.Debug().
		Str("event_id", event.EventID).
		Str("event_type", event.EventType).
		Msg("event published")
	return nil
}

// Close flushes pending messages and closes the writer.
func (p *KafkaPublisher) Close() error {
	return p.writer.Close()
}

func (p *KafkaPublisher) message(event *domain.Event) kafka.Message {
	key := event.SessionID
	if key == "" {
		key = event.AggregateID
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(event.EventType)},
		{Key: HeaderEventVersion, Value: []byte(strconv.Itoa(event.EventVersion))},
		{Key: HeaderSource, Value: []byte(p.source)},
	}
	if event.SessionID != "" {
		headers = append(headers, kafka.Header{Key: HeaderSessionID, Value: []byte(event.SessionID)})
	}

	return kafka.Message{
		Key:     []byte(key),
		Value:   event.Payload,
		Headers: headers,
		Time:    event.CreatedAt,
	}
}

// NopPublisher discards events.
type NopPublisher struct{}

var _ Publisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, *domain.Event) error { return nil }
func (NopPublisher) Close() error                                 { return nil }
