// Package sender собирает процесс, который читает очередь уведомлений и отправляет письма.
package sender

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	senderservice "github.com/magabrotheeeer/sales-tracker/internal/services/sender"
)

// App представляет приложение отправки писем.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	metrics       *http.Server
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New подключается к брокеру и готовит SMTP-транспорт.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	transport := smtp.NewTransport(cfg.SMTP, logger)
	senderService := senderservice.NewService(transport, collector, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		metrics:       metrics.NewServer(cfg.AddressHTTP, registry),
		senderService: senderService,
		logger:        logger,
	}, nil
}

// MessageHandler оборачивает отправку так, чтобы негодные сообщения
// подтверждались и не возвращались в очередь.
func MessageHandler(send func(context.Context, []byte) error, logger *slog.Logger) func(context.Context, []byte) error {
	return func(ctx context.Context, body []byte) error {
		err := send(ctx, body)
		if errors.Is(err, senderservice.ErrBadNotice) {
			logger.Warn("dropping malformed notice", sl.Err(err))
			return nil
		}
		return err
	}
}

// Run читает очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.QueueUpcoming, a.logger,
		MessageHandler(a.senderService.SendExpiryNotice, a.logger))
	if err != nil {
		a.logger.Error("failed to start consumer", slog.String("queue", rabbitmq.QueueUpcoming), sl.Err(err))
		return err
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("sender service shutting down gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}
	return nil
}
