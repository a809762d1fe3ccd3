package rabbitmq

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
)

// maxInFlight ограничивает число одновременно обрабатываемых сообщений.
const maxInFlight = 10

// ConsumerMessage читает очередь queueName и передаёт тело каждого сообщения handler.
// Успешно обработанные сообщения подтверждаются, при ошибке возвращаются в очередь.
// Чтение прекращается при отмене ctx или закрытии канала.
func ConsumerMessage(ctx context.Context, ch *amqp.Channel, queueName string, log *slog.Logger, handler func(context.Context, []byte) error) error {
	const op = "rabbitmq.ConsumerMessage"
	delivery, err := ch.Consume(
		queueName,
		"",
		false,
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	sem := make(chan struct{}, maxInFlight)
	go func() {
		for {
			select {
			case d, ok := <-delivery:
				if !ok {
					return
				}
				sem <- struct{}{}
				go func(d amqp.Delivery) {
					defer func() { <-sem }()
					handle(ctx, d, log, handler)
				}(d)
			case <-ctx.Done():
				return
			}
		}
	}()
	return nil
}

func handle(ctx context.Context, d amqp.Delivery, log *slog.Logger, handler func(context.Context, []byte) error) {
	log = log.With(slog.String("message_id", d.MessageId))
	if err := handler(ctx, d.Body); err != nil {
		log.Error("failed to handle message", sl.Err(err))
		// В очередь сообщение возвращается только один раз.
		if nackErr := d.Nack(false, !d.Redelivered); nackErr != nil {
			log.Error("failed to nack message", sl.Err(nackErr))
		}
		return
	}
	if ackErr := d.Ack(false); ackErr != nil {
		log.Error("failed to ack message", sl.Err(ackErr))
	}
}
