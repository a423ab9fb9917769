package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// MessageType — тип сообщения в очереди.
type MessageType string

// Типы сообщений.
const (
	MessageTypeRunCreated  MessageType = "run.created"
	MessageTypeRunFinished MessageType = "run.finished"
)

// eventSink — исходящий канал публикации. Реализуется Broker.
type eventSink interface {
	publish(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error
}

// Publisher публикует события жизненного цикла runs в RabbitMQ.
//
// nil *Publisher безопасен: все методы публикации становятся no-op.
// Это позволяет запускать сервер без RabbitMQ (локальная разработка).
type Publisher struct {
	sink   eventSink
	logger *slog.Logger
}

// NewPublisher создаёт новый Publisher поверх Broker.
func NewPublisher(broker *Broker, logger *slog.Logger) *Publisher {
	return &Publisher{
		sink:   broker,
		logger: logger,
	}
}

// Message — сообщение для публикации.
type Message struct {
	// ID — уникальный идентификатор сообщения.
	ID string `json:"id"`

	// Type — тип сообщения.
	Type MessageType `json:"type"`

	// Payload — полезная нагрузка.
	Payload any `json:"payload"`

	// Timestamp — время создания.
	Timestamp time.Time `json:"timestamp"`
}

// RunCreatedPayload — payload события о созданном run.
type RunCreatedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	Trigger    string    `json:"trigger"`
}

// RunFinishedPayload — payload события о завершённом run.
type RunFinishedPayload struct {
	RunID      uuid.UUID `json:"run_id"`
	WorkflowID uuid.UUID `json:"workflow_id"`
	Status     string    `json:"status"` // succeeded или failed
	DurationMs int64     `json:"duration_ms"`
}

// Publish публикует сообщение в указанный exchange с routing key.
func (p *Publisher) Publish(ctx context.Context, exchange Exchange, routingKey RoutingKey, msg *Message) error {
	if p == nil {
		return nil
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	err = p.sink.publish(ctx, exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // сообщение переживёт рестарт RabbitMQ
		MessageId:    msg.ID,
		Timestamp:    msg.Timestamp,
		Body:         body,
	})
	if err != nil {
		return err
	}

	p.logger.Debug("published message",
		"exchange", exchange,
		"routing_key", routingKey,
		"message_id", msg.ID,
		"type", msg.Type,
	)

	return nil
}

// PublishRunCreated публикует событие о созданном run.
func (p *Publisher) PublishRunCreated(ctx context.Context, payload RunCreatedPayload) error {
	if p == nil {
		return nil
	}

	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunCreated,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyRunCreated, msg)
}

// PublishRunFinished публикует событие о завершённом run.
func (p *Publisher) PublishRunFinished(ctx context.Context, payload RunFinishedPayload) error {
	if p == nil {
		return nil
	}

	msg := &Message{
		ID:        uuid.New().String(),
		Type:      MessageTypeRunFinished,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	return p.Publish(ctx, ExchangeEvents, RoutingKeyRunFinished, msg)
}
