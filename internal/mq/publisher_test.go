package mq

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// recordingSink запоминает последнюю публикацию.
type recordingSink struct {
	exchange Exchange
	key      RoutingKey
	msg      amqp.Publishing
	calls    int
}

func (s *recordingSink) publish(_ context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error {
	s.exchange = exchange
	s.key = key
	s.msg = msg
	s.calls++
	return nil
}

func newTestPublisher(sink eventSink) *Publisher {
	return &Publisher{
		sink:   sink,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestPublishRunCreated(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPublisher(sink)

	payload := RunCreatedPayload{
		RunID:      uuid.New(),
		WorkflowID: uuid.New(),
		Trigger:    "manual",
	}
	if err := p.PublishRunCreated(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.exchange != ExchangeEvents {
		t.Errorf("expected exchange %s, got %s", ExchangeEvents, sink.exchange)
	}
	if sink.key != RoutingKeyRunCreated {
		t.Errorf("expected routing key %s, got %s", RoutingKeyRunCreated, sink.key)
	}
	if sink.msg.ContentType != "application/json" {
		t.Errorf("unexpected content type: %s", sink.msg.ContentType)
	}
	if sink.msg.DeliveryMode != amqp.Persistent {
		t.Error("expected persistent delivery mode")
	}

	var msg Message
	if err := json.Unmarshal(sink.msg.Body, &msg); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	if msg.Type != MessageTypeRunCreated {
		t.Errorf("expected type %s, got %s", MessageTypeRunCreated, msg.Type)
	}
	if msg.ID == "" {
		t.Error("message id not set")
	}
	if sink.msg.MessageId != msg.ID {
		t.Error("amqp message id must match envelope id")
	}
}

func TestPublishRunFinished(t *testing.T) {
	sink := &recordingSink{}
	p := newTestPublisher(sink)

	payload := RunFinishedPayload{
		RunID:      uuid.New(),
		WorkflowID: uuid.New(),
		Status:     "failed",
		DurationMs: 1500,
	}
	if err := p.PublishRunFinished(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if sink.key != RoutingKeyRunFinished {
		t.Errorf("expected routing key %s, got %s", RoutingKeyRunFinished, sink.key)
	}

	var msg Message
	if err := json.Unmarshal(sink.msg.Body, &msg); err != nil {
		t.Fatalf("unmarshal body: %v", err)
	}
	inner, err := json.Marshal(msg.Payload)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	var got RunFinishedPayload
	if err := json.Unmarshal(inner, &got); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if got != payload {
		t.Errorf("payload mismatch: got %+v, want %+v", got, payload)
	}
}

func TestPublisher_NilIsNoop(t *testing.T) {
	var p *Publisher

	if err := p.PublishRunCreated(context.Background(), RunCreatedPayload{}); err != nil {
		t.Errorf("nil publisher must be no-op, got %v", err)
	}
	if err := p.PublishRunFinished(context.Background(), RunFinishedPayload{}); err != nil {
		t.Errorf("nil publisher must be no-op, got %v", err)
	}
}

func TestBroker_PublishAfterClose(t *testing.T) {
	b := &Broker{url: "amqp://unused", logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	if err := b.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	// Повторный Close безопасен.
	if err := b.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}

	err := b.publish(context.Background(), ExchangeEvents, RoutingKeyRunCreated, amqp.Publishing{})
	if err != ErrBrokerClosed {
		t.Errorf("expected ErrBrokerClosed, got %v", err)
	}
}
