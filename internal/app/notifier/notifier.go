// Package notifier собирает процесс, который по расписанию публикует
// напоминания об истекающих подписках в RabbitMQ.
package notifier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	"github.com/magabrotheeeer/sales-tracker/internal/services/scheduler"
	"github.com/magabrotheeeer/sales-tracker/internal/storage"
)

// App представляет приложение планировщика уведомлений.
type App struct {
	scheduler *scheduler.Service
	schedule  string
	metrics   *http.Server
	db        *storage.Storage
	conn      *amqp.Connection
	ch        *amqp.Channel
	logger    *slog.Logger
}

func waitForDB(ctx context.Context, db *storage.Storage) error {
	for range 10 {
		err := storage.CheckDatabaseReady(ctx, db)
		if err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	return fmt.Errorf("database not ready after retries")
}

// New подключает брокер и базу и готовит планировщик.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetNotificationQueues())
	if err != nil {
		closeResources(nil, conn, logger)
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		closeResources(ch, conn, logger)
		return nil, fmt.Errorf("failed to connect storage: %w", err)
	}
	// Миграции применяет панель продаж, здесь только ждём схему.
	if err := waitForDB(ctx, db); err != nil {
		_ = db.Close()
		closeResources(ch, conn, logger)
		return nil, err
	}

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	svc := scheduler.NewService(db, rabbitmq.NewPublisher(ch), collector, cfg.WindowDays, time.Now, logger)

	return &App{
		scheduler: svc,
		schedule:  cfg.NotifyCron,
		metrics:   metrics.NewServer(cfg.AddressHTTP, registry),
		db:        db,
		conn:      conn,
		ch:        ch,
		logger:    logger,
	}, nil
}

func closeResources(ch *amqp.Channel, conn *amqp.Connection, logger *slog.Logger) {
	if ch != nil {
		if err := ch.Close(); err != nil {
			logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if conn != nil {
		if err := conn.Close(); err != nil {
			logger.Error("failed to close connection", sl.Err(err))
		}
	}
}

// Run запускает cron и работает до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	if err := a.scheduler.Start(ctx, a.schedule); err != nil {
		return err
	}

	go func() {
		a.logger.Info("metrics server starting on", slog.String("address", a.metrics.Addr))
		if err := a.metrics.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", sl.Err(err))
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutting down expiry notifier")

	// Дожидаемся текущего прогона, чтобы не закрыть канал посреди публикации.
	<-a.scheduler.Stop().Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.metrics.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("failed to stop metrics server", sl.Err(err))
	}

	closeResources(a.ch, a.conn, a.logger)
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
	return nil
}
