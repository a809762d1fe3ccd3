// Package sender отправляет клиентам письма-напоминания об окончании подписки.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"strings"

	"github.com/magabrotheeeer/sales-tracker/internal/expiry"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/smtp"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// ErrBadNotice возвращается для сообщений, которые невозможно отправить.
var ErrBadNotice = errors.New("bad expiry notice")

// Metrics учитывает результат отправки.
type Metrics interface {
	RecordNotificationSent(err error)
}

// Service превращает уведомления из очереди в письма.
type Service struct {
	transport smtp.TransportInterface
	metrics   Metrics
	log       *slog.Logger
}

// NewService создаёт отправителя.
func NewService(transport smtp.TransportInterface, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		transport: transport,
		metrics:   metrics,
		log:       log,
	}
}

// SendExpiryNotice разбирает тело сообщения и отправляет напоминание.
func (s *Service) SendExpiryNotice(_ context.Context, body []byte) error {
	const op = "sender.SendExpiryNotice"

	var notice models.ExpiryNotice
	if err := json.Unmarshal(body, &notice); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: %w: %w", op, ErrBadNotice, err)
	}
	if !validation.IsEmail(notice.Email) {
		return fmt.Errorf("%s: %w: invalid email %q", op, ErrBadNotice, notice.Email)
	}

	subject, text := Compose(notice)
	err := s.sendEmail(notice.Email, subject, text)
	s.metrics.RecordNotificationSent(err)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("expiry reminder sent", slog.Int("sale_id", notice.SaleID), slog.Int("days_remaining", notice.DaysRemaining))
	return nil
}

// Compose возвращает тему и текст письма для уведомления.
func Compose(n models.ExpiryNotice) (subject, body string) {
	end := n.EndDate
	days := expiry.FormatDaysRemaining(n.DaysRemaining)
	product := n.ProductName
	if product == "" {
		product = expiry.Placeholder
	}

	const footer = "\n\nPlease contact us to renew it in time."
	date := expiry.FormatDate(&end)
	if n.DaysRemaining <= 0 {
		subject = fmt.Sprintf("Your %s subscription ends today", product)
		body = fmt.Sprintf("Hello, %s!\n\nYour %s subscription ends today, %s.", n.Customer, product, date) + footer
		return subject, body
	}
	subject = fmt.Sprintf("Your %s subscription ends in %s", product, days)
	body = fmt.Sprintf("Hello, %s!\n\nYour %s subscription ends on %s (%s left).", n.Customer, product, date, days) + footer
	return subject, body
}

func (s *Service) sendEmail(to, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + to,
		"Subject: " + mime.QEncoding.Encode("utf-8", subject),
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect()
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	if err := client.Rcpt(to); err != nil {
		s.log.Error("failed to set RCPT TO", sl.Err(err))
		return err
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}
	return nil
}
