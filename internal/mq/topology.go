package mq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Exchange — тип для имени обменника.
type Exchange string

// Queue — тип для имени очереди.
type Queue string

// RoutingKey — тип для ключа маршрутизации.
type RoutingKey string

// Топология событий.
//
// Сервер публикует события жизненного цикла runs в topic exchange;
// внешние потребители (нотификации, аудит) вешают свои очереди на
// "run.*". Одна очередь events.runs объявляется самим сервером для
// удобства локальной разработки.
const (
	ExchangeEvents Exchange = "cascade.events"

	QueueRunEvents Queue = "events.runs"

	RoutingKeyRunCreated  RoutingKey = "run.created"
	RoutingKeyRunFinished RoutingKey = "run.finished"
)

// declareTopology объявляет exchange и очередь событий на канале.
// Объявления идемпотентны и повторяются при каждом переподключении.
func declareTopology(ch *amqp.Channel) error {
	err := ch.ExchangeDeclare(
		string(ExchangeEvents), // name
		"topic",                // type
		true,                   // durable
		false,                  // auto-deleted
		false,                  // internal
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange %s: %w", ExchangeEvents, err)
	}

	_, err = ch.QueueDeclare(
		string(QueueRunEvents), // name
		true,                   // durable
		false,                  // delete when unused
		false,                  // exclusive
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", QueueRunEvents, err)
	}

	err = ch.QueueBind(
		string(QueueRunEvents), // queue name
		"run.*",                // routing key
		string(ExchangeEvents), // exchange
		false,                  // no-wait
		nil,                    // arguments
	)
	if err != nil {
		return fmt.Errorf("bind queue %s: %w", QueueRunEvents, err)
	}

	return nil
}
