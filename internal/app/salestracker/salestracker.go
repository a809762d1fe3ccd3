// Package salestracker собирает HTTP-приложение панели продаж.
package salestracker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"

	"github.com/magabrotheeeer/sales-tracker/internal/cache"
	"github.com/magabrotheeeer/sales-tracker/internal/config"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	"github.com/magabrotheeeer/sales-tracker/internal/migrations"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
	authservice "github.com/magabrotheeeer/sales-tracker/internal/services/auth"
	"github.com/magabrotheeeer/sales-tracker/internal/services/catalog"
	"github.com/magabrotheeeer/sales-tracker/internal/services/sales"
	"github.com/magabrotheeeer/sales-tracker/internal/storage"
)

// App HTTP-сервер панели продаж со всеми зависимостями.
type App struct {
	server *http.Server
	logger *slog.Logger
	db     *storage.Storage
	cache  *cache.Cache
}

// New подключает хранилище и кеш, применяет миграции и регистрирует маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "salestracker.New"

	if cfg.JWTSecretKey == "" {
		return nil, fmt.Errorf("%s: jwt secret key is not set", op)
	}

	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	registry := metrics.NewRegistry()
	collector := metrics.NewCollector(registry)

	jwtMaker := jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	authService := authservice.NewService(db, jwtMaker, logger)
	if err = bootstrapAdmin(ctx, cfg, authService, logger); err != nil {
		_ = cacheRedis.Close()
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	catalogService := catalog.NewService(db, cacheRedis, collector, logger)
	salesService := sales.NewService(db, collector, cfg.WindowDays, time.Now, logger)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Deps{
		Auth:      authService,
		Catalog:   catalogService,
		Sales:     salesService,
		Tokens:    jwtMaker,
		Pinger:    db,
		Gatherer:  registry,
		RateLimit: cfg.RateLimit,
		RateBurst: cfg.RateBurst,
	})

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server: srv,
		logger: logger,
		db:     db,
		cache:  cacheRedis,
	}, nil
}

// bootstrapAdmin создаёт администратора из конфига, если его ещё нет.
func bootstrapAdmin(ctx context.Context, cfg *config.Config, auth *authservice.Service, logger *slog.Logger) error {
	if cfg.AdminUsername == "" || cfg.AdminPassword == "" {
		logger.Warn("admin credentials are not configured, skipping bootstrap")
		return nil
	}
	created, err := auth.EnsureUser(ctx, cfg.AdminUsername, cfg.AdminPassword, models.RoleAdmin)
	if err != nil {
		return err
	}
	if created {
		logger.Info("admin user created", slog.String("username", cfg.AdminUsername))
	}
	return nil
}

// Run обслуживает запросы до отмены ctx, затем корректно останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.closeResources()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.closeResources()
		return err
	}
}

func (a *App) closeResources() {
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close database", sl.Err(err))
	}
}
