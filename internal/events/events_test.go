package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/JustIkra/tg-restorants-bot/internal/enum"
	"github.com/segmentio/kafka-go"
)

type mockProducer struct {
	msgs []kafka.Message
	err  error
}

func (m *mockProducer) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if m.err != nil {
		return m.err
	}
	m.msgs = append(m.msgs, msgs...)
	return nil
}

func TestKafkaPublisher_Publish(t *testing.T) {
	prod := &mockProducer{}
	p := NewKafkaPublisher(prod, "lunch-events", nil)
	p.now = func() time.Time { return time.Date(2024, 5, 20, 10, 0, 0, 0, time.UTC) }

	err := p.Publish(context.Background(), enum.EventOrderSubmitted, "42", map[string]int{"order_id": 42})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(prod.msgs) != 1 {
		t.Fatalf("messages: got %d, want 1", len(prod.msgs))
	}

	msg := prod.msgs[0]
	if msg.Topic != "lunch-events" || string(msg.Key) != "42" {
		t.Errorf("topic/key: got %s/%s", msg.Topic, msg.Key)
	}
	if len(msg.Headers) != 1 || msg.Headers[0].Key != "event_type" || string(msg.Headers[0].Value) != enum.EventOrderSubmitted {
		t.Errorf("headers: got %+v", msg.Headers)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		t.Fatalf("decode envelope: %v", err)
	}
	if env.Type != enum.EventOrderSubmitted || !env.OccurredAt.Equal(p.now()) {
		t.Errorf("envelope: got %+v", env)
	}
	if string(env.Payload) != `{"order_id":42}` {
		t.Errorf("payload: got %s", env.Payload)
	}
}

func TestKafkaPublisher_ProducerError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewKafkaPublisher(&mockProducer{err: boom}, "t", nil)

	err := p.Publish(context.Background(), enum.EventCafeDeleted, "1", nil)
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped producer error, got %v", err)
	}
}

func TestKafkaPublisher_UnencodablePayload(t *testing.T) {
	prod := &mockProducer{}
	p := NewKafkaPublisher(prod, "t", nil)

	if err := p.Publish(context.Background(), enum.EventUserDeleted, "1", make(chan int)); err == nil {
		t.Fatal("expected encode error")
	}
	if len(prod.msgs) != 0 {
		t.Error("nothing should be written")
	}
}

func TestNop(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), "x", "y", 1); err != nil {
		t.Fatalf("nop publish: %v", err)
	}
}
