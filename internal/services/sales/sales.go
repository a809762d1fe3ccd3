// Package sales содержит бизнес-логику учёта проданных подписок:
// запись продажи, журнал, отбор истекающих и выгрузку в CSV.
package sales

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/sales-tracker/internal/expiry"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/calendar"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sanitize"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// maxDurationMonths ограничивает срок так, чтобы дата окончания оставалась в пределах 9999 года.
const maxDurationMonths = 12 * 9999

// utf8BOM нужен Excel, чтобы открыть выгрузку в UTF-8.
const utf8BOM = "\xEF\xBB\xBF"

// ExportHeader столбцы CSV-выгрузки.
var ExportHeader = []string{
	"product_name", "duration", "customer", "gmail", "purchase_date",
	"end_date", "seller", "note", "price", "profit",
}

// SaleRepository определяет методы хранилища для продаж.
type SaleRepository interface {
	CreateSale(ctx context.Context, sale models.Sale) (int, error)
	ListSales(ctx context.Context) ([]*models.Sale, error)
}

// Metrics учитывает продажи и итоги отбора.
type Metrics interface {
	RecordSaleCreated()
	RecordSelection(selected, excluded int)
}

// Service реализует операции с продажами.
type Service struct {
	repo       SaleRepository
	metrics    Metrics
	windowDays int
	clock      func() time.Time
	log        *slog.Logger
}

// NewService создаёт сервис продаж. clock задаёт источник текущего времени;
// nil означает time.Now.
func NewService(repo SaleRepository, metrics Metrics, windowDays int, clock func() time.Time, log *slog.Logger) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:       repo,
		metrics:    metrics,
		windowDays: windowDays,
		clock:      clock,
		log:        log,
	}
}

// Create проверяет данные продажи и сохраняет её.
// Если дата окончания не передана, она вычисляется из даты покупки и срока.
// Ошибки по полям возвращаются как *validation.Error.
func (s *Service) Create(ctx context.Context, req models.SaleRequest) (int, error) {
	const op = "sales.Create"

	sale, err := buildSale(req)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateSale(ctx, sale)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.RecordSaleCreated()
	s.log.Info("sale created",
		slog.Int("id", id),
		slog.String("product_name", sale.ProductName),
		slog.String("end_date", sale.EndDate.String()),
	)
	return id, nil
}

// List возвращает журнал продаж.
func (s *Service) List(ctx context.Context) ([]*models.Sale, error) {
	const op = "sales.List"
	list, err := s.repo.ListSales(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return list, nil
}

// ExpiringSoon отбирает подписки, истекающие в настроенном окне.
// Текущая дата фиксируется один раз на весь вызов.
func (s *Service) ExpiringSoon(ctx context.Context) (expiry.Selection, error) {
	const op = "sales.ExpiringSoon"

	list, err := s.repo.ListSales(ctx)
	if err != nil {
		return expiry.Selection{}, fmt.Errorf("%s: %w", op, err)
	}
	today := calendar.Today(s.clock())

	records := make([]models.Sale, 0, len(list))
	for _, sale := range list {
		records = append(records, *sale)
	}
	sel := expiry.SelectExpiringSoon(records, today, s.windowDays)

	s.metrics.RecordSelection(len(sel.Items), sel.Excluded)
	if sel.Excluded > 0 {
		s.log.Warn("sales without resolvable end date skipped", slog.Int("excluded", sel.Excluded))
	}
	return sel, nil
}

// ExportCSV пишет журнал продаж в w в формате CSV с BOM.
// Отсутствующие значения выводятся пустыми ячейками.
func (s *Service) ExportCSV(ctx context.Context, w io.Writer) error {
	const op = "sales.ExportCSV"

	list, err := s.repo.ListSales(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	if _, err := io.WriteString(w, utf8BOM); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(ExportHeader); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	for _, sale := range list {
		if err := cw.Write(exportRow(sale)); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func exportRow(sale *models.Sale) []string {
	endDate := ""
	if sale.EndDate != nil {
		endDate = sale.EndDate.String()
	}
	return []string{
		sale.ProductName,
		strconv.Itoa(sale.Duration),
		sale.Customer,
		deref(sale.Email),
		sale.PurchaseDate.String(),
		endDate,
		deref(sale.Seller),
		deref(sale.Note),
		strconv.FormatFloat(sale.Price, 'f', -1, 64),
		strconv.FormatFloat(sale.Profit, 'f', -1, 64),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func buildSale(req models.SaleRequest) (models.Sale, error) {
	v := validation.New()
	maxChars := fmt.Sprintf("Max %d characters.", validation.MaxVarchar)

	product := sanitize.Text(req.ProductName)
	switch {
	case product == "":
		v.Add("product_name", "Product is required.")
	case validation.TooLong(product, validation.MaxVarchar):
		v.Add("product_name", maxChars)
	}

	switch {
	case req.Duration < 1:
		v.Add("duration", "Duration must be an integer ≥ 1 (months).")
	case req.Duration > maxDurationMonths:
		v.Add("duration", "Duration is too long.")
	}

	customer := sanitize.Text(req.Customer)
	switch {
	case customer == "":
		v.Add("customer", "Customer is required.")
	case validation.TooLong(customer, validation.MaxVarchar):
		v.Add("customer", maxChars)
	}

	purchase, err := calendar.Parse(strings.TrimSpace(req.PurchaseDate))
	if err != nil {
		v.Add("purchase_date", "Purchase date must be YYYY-MM-DD.")
	}

	var email *string
	if e := strings.TrimSpace(req.Email); e != "" {
		if !validation.IsEmail(e) {
			v.Add("gmail", "Invalid email address.")
		}
		email = &e
	}

	seller := sanitize.Optional(req.Seller)
	if seller != nil && validation.TooLong(*seller, validation.MaxVarchar) {
		v.Add("seller", maxChars)
	}
	note := sanitize.Optional(req.Note)
	if note != nil && validation.TooLong(*note, validation.MaxText) {
		v.Add("note", "Note is too long.")
	}

	if req.Price == nil || *req.Price < 0 || math.IsNaN(*req.Price) {
		v.Add("price", "Price must be a number ≥ 0.")
	}
	if req.Profit == nil || math.IsNaN(*req.Profit) {
		v.Add("profit", "Profit must be provided (number).")
	}

	var endDate *calendar.Date
	if raw := strings.TrimSpace(req.EndDate); raw != "" {
		d, err := calendar.Parse(raw)
		if err != nil {
			v.Add("end_date", "Expired date must be YYYY-MM-DD.")
		} else {
			endDate = &d
		}
	}

	// Вычисленная дата окончания должна укладываться в 1..9999 год.
	if endDate == nil && !v.Has("purchase_date") && !v.Has("duration") {
		end, err := expiry.ResolveEndDate(models.Sale{PurchaseDate: purchase, Duration: req.Duration})
		if err != nil || !end.Valid() {
			v.Add("duration", "Subscription must end no later than 9999-12-31.")
		} else {
			endDate = &end
		}
	}

	if err := v.Err(); err != nil {
		return models.Sale{}, err
	}

	sale := models.Sale{
		ProductName:  product,
		Duration:     req.Duration,
		Customer:     customer,
		Email:        email,
		PurchaseDate: purchase,
		EndDate:      endDate,
		Seller:       seller,
		Note:         note,
		Price:        roundMoney(*req.Price),
		Profit:       roundMoney(*req.Profit),
	}
	return sale, nil
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
