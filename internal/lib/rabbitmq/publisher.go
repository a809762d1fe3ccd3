package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/streadway/amqp"
)

// Channel часть *amqp.Channel, нужная для публикации.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// PublishMessage сериализует message в JSON и публикует его как постоянное сообщение.
// Каждому сообщению присваивается уникальный MessageId.
func PublishMessage(ch Channel, exchange string, routingKey string, message any) error {
	const op = "rabbitmq.PublishMessage"
	body, err := json.Marshal(message)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	err = ch.Publish(
		exchange,
		routingKey,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			MessageId:    uuid.NewString(),
			Timestamp:    time.Now().UTC(),
		},
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Publisher публикует сообщения в обменник уведомлений.
type Publisher struct {
	ch       Channel
	exchange string
}

// NewPublisher создаёт Publisher поверх канала.
func NewPublisher(ch Channel) *Publisher {
	return &Publisher{ch: ch, exchange: Exchange}
}

// Publish отправляет message с ключом routingKey.
func (p *Publisher) Publish(ctx context.Context, routingKey string, message any) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("rabbitmq.Publish: %w", err)
	}
	return PublishMessage(p.ch, p.exchange, routingKey, message)
}
