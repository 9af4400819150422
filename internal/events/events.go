// Package events publishes domain events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"
)

// Publisher emits domain events. Publishing is best-effort for callers: an
// order that reached the backend stays placed even if its event is lost.
type Publisher interface {
	Publish(ctx context.Context, eventType, key string, payload any) error
}

// Producer writes messages to Kafka.
// Satisfied by *kafka.Writer; narrow interface for testability.
type Producer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// Envelope is the JSON value of every published message.
type Envelope struct {
	Type       string          `json:"type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Payload    json.RawMessage `json:"payload"`
}

// KafkaPublisher publishes events to a single topic.
type KafkaPublisher struct {
	producer Producer
	topic    string
	logger   *zap.Logger
	now      func() time.Time
}

// NewKafkaPublisher creates a KafkaPublisher.
func NewKafkaPublisher(producer Producer, topic string, logger *zap.Logger) *KafkaPublisher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KafkaPublisher{producer: producer, topic: topic, logger: logger, now: time.Now}
}

// NewWriter creates a Kafka writer for brokers.
func NewWriter(brokers []string) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Balancer:     &kafka.LeastBytes{},
		RequiredAcks: kafka.RequireAll,
	}
}

func (p *KafkaPublisher) Publish(ctx context.Context, eventType, key string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", eventType, err)
	}
	value, err := json.Marshal(Envelope{Type: eventType, OccurredAt: p.now().UTC(), Payload: raw})
	if err != nil {
		return fmt.Errorf("encode %s envelope: %w", eventType, err)
	}

	msg := kafka.Message{
		Topic:   p.topic,
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: "event_type", Value: []byte(eventType)}},
	}
	if err := p.producer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("event publish failed", zap.String("type", eventType), zap.String("key", key), zap.Error(err))
		return fmt.Errorf("publish %s: %w", eventType, err)
	}
	p.logger.Debug("event published", zap.String("type", eventType), zap.String("key", key))
	return nil
}

// Nop discards every event. Used when no brokers are configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, string, any) error { return nil }
