// Package scheduler по расписанию отбирает истекающие подписки
// и публикует напоминания в очередь уведомлений.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/sales-tracker/internal/expiry"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// SaleRepository возвращает журнал продаж.
type SaleRepository interface {
	ListSales(ctx context.Context) ([]*models.Sale, error)
}

// Publisher отправляет сообщение в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Metrics учитывает итоги отбора и опубликованные уведомления.
type Metrics interface {
	RecordSelection(selected, excluded int)
	RecordNoticePublished()
}

// Service запускает отбор по cron-расписанию.
type Service struct {
	repo       SaleRepository
	publisher  Publisher
	metrics    Metrics
	windowDays int
	clock      func() time.Time
	cron       *cron.Cron
	log        *slog.Logger

	mu      sync.Mutex
	running bool
}

// NewService создаёт планировщик. Расписание интерпретируется в UTC.
func NewService(repo SaleRepository, publisher Publisher, metrics Metrics, windowDays int, clock func() time.Time, log *slog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:       repo,
		publisher:  publisher,
		metrics:    metrics,
		windowDays: windowDays,
		clock:      clock,
		cron:       cron.New(cron.WithLocation(time.UTC)),
		log:        log.With(slog.String("component", "expiry-notifier")),
	}
}

// Start регистрирует задачу по расписанию spec и запускает cron.
func (s *Service) Start(ctx context.Context, spec string) error {
	const op = "scheduler.Start"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("expiry notifier already running")
	}
	if _, err := s.cron.AddFunc(spec, func() { s.runScheduled(ctx) }); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.cron.Start()
	s.running = true
	s.log.Info("expiry notifier started", slog.String("schedule", spec), slog.Int("window_days", s.windowDays))
	return nil
}

// Stop останавливает cron; возвращённый контекст закрывается после завершения текущих задач.
func (s *Service) Stop() context.Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	s.running = false
	s.log.Info("stopping expiry notifier")
	return s.cron.Stop()
}

func (s *Service) runScheduled(ctx context.Context) {
	if _, err := s.RunNow(ctx); err != nil {
		s.log.Error("expiry notification run failed", sl.Err(err))
	}
}

// RunNow отбирает истекающие подписки и публикует по уведомлению на каждую с адресом почты.
// Возвращает число опубликованных уведомлений. Ошибка публикации одного
// уведомления не прерывает остальные.
func (s *Service) RunNow(ctx context.Context) (int, error) {
	const op = "scheduler.RunNow"

	list, err := s.repo.ListSales(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	today := calendar.Today(s.clock())

	records := make([]models.Sale, 0, len(list))
	for _, sale := range list {
		records = append(records, *sale)
	}
	sel := expiry.SelectExpiringSoon(records, today, s.windowDays)
	s.metrics.RecordSelection(len(sel.Items), sel.Excluded)

	log := s.log.With(slog.String("today", today.String()))
	if sel.Excluded > 0 {
		log.Warn("sales without resolvable end date skipped", slog.Int("excluded", sel.Excluded))
	}
	if len(sel.Items) == 0 {
		log.Info("no expiring subscriptions found")
		return 0, nil
	}

	published := 0
	for _, item := range sel.Items {
		if item.Email == nil || strings.TrimSpace(*item.Email) == "" {
			log.Debug("sale has no email, skipping", slog.Int("sale_id", item.ID))
			continue
		}
		notice := models.ExpiryNotice{
			SaleID:        item.ID,
			ProductName:   item.ProductName,
			Customer:      item.Customer,
			Email:         strings.TrimSpace(*item.Email),
			EndDate:       item.EffectiveEndDate,
			DaysRemaining: item.DaysRemaining,
		}
		if err := s.publisher.Publish(ctx, rabbitmq.RoutingKeyUpcoming, notice); err != nil {
			log.Error("failed to publish message", slog.Int("sale_id", item.ID), sl.Err(err))
			continue
		}
		s.metrics.RecordNoticePublished()
		published++
	}
	log.Info("expiry notices published", slog.Int("found", len(sel.Items)), slog.Int("published", published))
	return published, nil
}
