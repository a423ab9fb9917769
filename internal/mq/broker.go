package mq

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	amqp "github.com/rabbitmq/amqp091-go"
)

// ErrBrokerClosed возвращается при публикации после Close.
var ErrBrokerClosed = fmt.Errorf("mq: broker is closed")

// Broker — исходящее подключение к RabbitMQ.
//
// Сервер выполняет runs сам и только публикует события их жизненного
// цикла, подписок нет. Поэтому фонового наблюдателя за соединением
// тоже нет: канал пересоздаётся лениво при следующей публикации после
// обрыва, топология объявляется заново при каждом подключении.
type Broker struct {
	url    string
	logger *slog.Logger

	mu     sync.Mutex
	conn   *amqp.Connection
	ch     *amqp.Channel
	closed bool
}

// Dial подключается к RabbitMQ и объявляет топологию событий.
func Dial(url string, logger *slog.Logger) (*Broker, error) {
	b := &Broker{url: url, logger: logger}

	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.ensure(); err != nil {
		return nil, err
	}
	return b, nil
}

// ensure открывает соединение и канал, если их нет. Вызывается под mu.
func (b *Broker) ensure() error {
	if b.closed {
		return ErrBrokerClosed
	}
	if b.ch != nil && !b.conn.IsClosed() {
		return nil
	}

	conn, err := amqp.Dial(b.url)
	if err != nil {
		return fmt.Errorf("dial amqp: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		conn.Close()
		return err
	}

	b.conn = conn
	b.ch = ch
	b.logger.Info("connected to RabbitMQ")
	return nil
}

// reset сбрасывает соединение после ошибки публикации.
// Вызывается под mu.
func (b *Broker) reset() {
	if b.conn != nil {
		b.conn.Close()
	}
	b.conn = nil
	b.ch = nil
}

// publish отправляет сообщение в exchange. При обрыве канала делает
// одну повторную попытку на свежем соединении.
func (b *Broker) publish(ctx context.Context, exchange Exchange, key RoutingKey, msg amqp.Publishing) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err := b.ensure(); err != nil {
		return err
	}

	err := b.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, msg)
	if err == nil {
		return nil
	}

	b.logger.Warn("publish failed, reconnecting", "error", err)
	b.reset()

	if err := b.ensure(); err != nil {
		return err
	}
	if err := b.ch.PublishWithContext(ctx, string(exchange), string(key), false, false, msg); err != nil {
		return fmt.Errorf("publish to %s/%s: %w", exchange, key, err)
	}
	return nil
}

// Close закрывает соединение. Повторный вызов безопасен.
func (b *Broker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	if b.conn != nil {
		if err := b.conn.Close(); err != nil {
			return fmt.Errorf("close connection: %w", err)
		}
	}
	b.conn = nil
	b.ch = nil
	return nil
}
