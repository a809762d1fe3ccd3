package salestracker

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/auth/login"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/health"
	productcreate "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/product/create"
	productlist "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/product/list"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/product/options"
	salecreate "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/create"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/expiring"
	"github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/export"
	salelist "github.com/magabrotheeeer/sales-tracker/internal/http/handlers/sale/list"
	"github.com/magabrotheeeer/sales-tracker/internal/http/middlewarectx"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// CatalogService операции каталога, доступные через HTTP.
type CatalogService interface {
	productcreate.Service
	productlist.Service
	options.Service
}

// SalesService операции журнала продаж, доступные через HTTP.
type SalesService interface {
	salecreate.Service
	salelist.Service
	export.Service
	expiring.Service
}

// Deps зависимости маршрутов.
type Deps struct {
	Auth      login.Service
	Catalog   CatalogService
	Sales     SalesService
	Tokens    middlewarectx.TokenParser
	Pinger    health.Pinger
	Gatherer  prometheus.Gatherer
	RateLimit float64
	RateBurst int
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	// Глобальные middleware
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
		middleware.URLFormat,
	)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarectx.RateLimitMiddleware(logger, deps.RateLimit, deps.RateBurst))

		// Открытые конечные точки
		r.Post("/login", login.New(logger, deps.Auth).ServeHTTP)
		r.Get("/health", health.New(logger, deps.Pinger).ServeHTTP)

		// Группа с JWT аутентификацией
		r.Group(func(r chi.Router) {
			r.Use(middlewarectx.JWTMiddleware(deps.Tokens, logger))
			r.Use(middlewarectx.RequireRole(logger, models.RoleAdmin, models.RoleStaff))

			r.Get("/products", productlist.New(logger, deps.Catalog).ServeHTTP)
			r.Post("/products", productcreate.New(logger, deps.Catalog).ServeHTTP)
			r.Get("/products/options", options.New(logger, deps.Catalog).ServeHTTP)

			r.Get("/sales", salelist.New(logger, deps.Sales).ServeHTTP)
			r.Post("/sales", salecreate.New(logger, deps.Sales).ServeHTTP)
			r.Get("/sales/expiring", expiring.New(logger, deps.Sales).ServeHTTP)
			r.Get("/sales/export", export.New(logger, deps.Sales).ServeHTTP)
		})
	})

	r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
