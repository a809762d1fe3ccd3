// Package catalog содержит бизнес-логику каталога товаров.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/magabrotheeeer/sales-tracker/internal/lib/sanitize"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// OptionsCacheKey ключ кеша со списком товаров для формы продажи.
const OptionsCacheKey = "products:options"

// OptionsCacheTTL время жизни закешированного списка.
const OptionsCacheTTL = time.Hour

var (
	durationSuffix = regexp.MustCompile(`(?i)\s*(?:-\s*\d+\s*M|\(\s*\d+\s*m\s*\))+$`)
	whitespace     = regexp.MustCompile(`\s+`)
	httpScheme     = regexp.MustCompile(`(?i)^https?://`)
)

// ProductRepository определяет методы хранилища для каталога.
type ProductRepository interface {
	CreateProduct(ctx context.Context, p models.Product) (int, error)
	ListProducts(ctx context.Context) ([]*models.Product, error)
	ListProductOptions(ctx context.Context) ([]*models.ProductOption, error)
}

// Cache описывает методы для кеширования данных.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, key string) error
}

// Metrics учитывает созданные товары.
type Metrics interface {
	RecordProductCreated()
}

// Service реализует операции каталога.
type Service struct {
	repo    ProductRepository
	cache   Cache
	metrics Metrics
	log     *slog.Logger
}

// NewService создаёт сервис каталога.
func NewService(repo ProductRepository, cache Cache, metrics Metrics, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

// Create проверяет и нормализует товар, сохраняет его и сбрасывает кеш списка.
// Ошибки по полям возвращаются как *validation.Error.
func (s *Service) Create(ctx context.Context, req models.ProductRequest) (int, error) {
	const op = "catalog.Create"

	product, err := buildProduct(req)
	if err != nil {
		return 0, err
	}

	id, err := s.repo.CreateProduct(ctx, product)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	s.metrics.RecordProductCreated()
	s.log.Info("product created", slog.Int("id", id), slog.String("product_name", product.ProductName))

	if err := s.cache.Invalidate(ctx, OptionsCacheKey); err != nil {
		s.log.Warn("failed to invalidate cache", slog.String("key", OptionsCacheKey), sl.Err(err))
	}
	return id, nil
}

// List возвращает весь каталог.
func (s *Service) List(ctx context.Context) ([]*models.Product, error) {
	const op = "catalog.List"
	products, err := s.repo.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return products, nil
}

// Options возвращает сокращённый каталог, по возможности из кеша.
// Ошибки кеша не прерывают запрос: данные берутся из хранилища.
func (s *Service) Options(ctx context.Context) ([]*models.ProductOption, error) {
	const op = "catalog.Options"

	var cached []*models.ProductOption
	found, err := s.cache.Get(ctx, OptionsCacheKey, &cached)
	if err != nil {
		s.log.Warn("failed to read cache", slog.String("key", OptionsCacheKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	options, err := s.repo.ListProductOptions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, OptionsCacheKey, options, OptionsCacheTTL); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", OptionsCacheKey), sl.Err(err))
	}
	return options, nil
}

func buildProduct(req models.ProductRequest) (models.Product, error) {
	v := validation.New()

	base := sanitize.Text(req.ProductName)
	if base == "" {
		v.Add("product_name", "Product name is required.")
	}
	if req.Duration < 1 {
		v.Add("duration", "Duration must be an integer ≥ 1.")
	}
	name := base
	if base != "" && req.Duration >= 1 {
		name = FormatProductName(base, req.Duration)
	}
	if validation.TooLong(name, validation.MaxVarchar) {
		v.Add("product_name", fmt.Sprintf("Max %d characters.", validation.MaxVarchar))
	}

	supplier := sanitize.Optional(req.Supplier)
	if supplier != nil && validation.TooLong(*supplier, validation.MaxVarchar) {
		v.Add("supplier", fmt.Sprintf("Max %d characters.", validation.MaxVarchar))
	}

	var wc, retail float64
	if req.WCPrice == nil || *req.WCPrice < 0 || math.IsNaN(*req.WCPrice) {
		v.Add("wc_price", "WC price must be a number ≥ 0.")
	} else {
		wc = roundMoney(*req.WCPrice)
	}
	if req.RetailPrice == nil || math.IsNaN(*req.RetailPrice) {
		v.Add("retail_price", "Retail price is required.")
	} else {
		retail = roundMoney(*req.RetailPrice)
		if !v.Has("wc_price") && retail <= wc {
			v.Add("retail_price", "Retail must be greater than WC price.")
		}
	}

	link, ok := NormalizeLink(req.Link)
	if !ok {
		v.Add("link", fmt.Sprintf("Link must be a valid http(s) URL (≤ %d chars).", validation.MaxURL))
	}

	if err := v.Err(); err != nil {
		return models.Product{}, err
	}
	return models.Product{
		ProductName: name,
		Duration:    req.Duration,
		Supplier:    supplier,
		WCPrice:     wc,
		RetailPrice: retail,
		Notes:       sanitize.Optional(req.Notes),
		Link:        link,
	}, nil
}

// FormatProductName приводит название к виду "<base> - <N>M",
// снимая ранее добавленные суффиксы срока вроде " - 3M" или "(3m)".
func FormatProductName(raw string, duration int) string {
	base := strings.TrimSpace(durationSuffix.ReplaceAllString(strings.TrimSpace(raw), ""))
	return base + " - " + strconv.Itoa(duration) + "M"
}

// NormalizeLink дополняет ссылку схемой https:// и кодирует пробелы.
// Пустая ссылка допустима и даёт nil; ok=false означает некорректный URL.
func NormalizeLink(raw string) (*string, bool) {
	link := strings.TrimSpace(raw)
	if link == "" {
		return nil, true
	}
	if !httpScheme.MatchString(link) {
		link = "https://" + link
	}
	link = whitespace.ReplaceAllString(link, "%20")

	if validation.TooLong(link, validation.MaxURL) {
		return nil, false
	}
	u, err := url.Parse(link)
	if err != nil || u.Host == "" {
		return nil, false
	}
	if scheme := strings.ToLower(u.Scheme); scheme != "http" && scheme != "https" {
		return nil, false
	}
	return &link, true
}

func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
