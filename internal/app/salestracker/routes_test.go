package salestracker

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/sales-tracker/internal/expiry"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/jwt"
	"github.com/magabrotheeeer/sales-tracker/internal/metrics"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

type stubAuth struct{}

func (stubAuth) Login(_ context.Context, username, _ string) (string, string, error) {
	return "token-" + username, models.RoleStaff, nil
}

type stubCatalog struct{}

func (stubCatalog) Create(context.Context, models.ProductRequest) (int, error) { return 1, nil }
func (stubCatalog) List(context.Context) ([]*models.Product, error)           { return []*models.Product{}, nil }
func (stubCatalog) Options(context.Context) ([]*models.ProductOption, error) {
	return []*models.ProductOption{}, nil
}

type stubSales struct{}

func (stubSales) Create(context.Context, models.SaleRequest) (int, error) { return 1, nil }
func (stubSales) List(context.Context) ([]*models.Sale, error)           { return []*models.Sale{}, nil }
func (stubSales) ExportCSV(_ context.Context, w io.Writer) error {
	_, err := io.WriteString(w, "ID\n")
	return err
}
func (stubSales) ExpiringSoon(context.Context) (expiry.Selection, error) {
	return expiry.Selection{}, nil
}

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error { return nil }

func newRouter(t *testing.T, maker *jwt.Maker) http.Handler {
	t.Helper()
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)
	collector.RecordSaleCreated()

	r := chi.NewRouter()
	RegisterRoutes(r, slog.New(slog.NewTextHandler(io.Discard, nil)), Deps{
		Auth:      stubAuth{},
		Catalog:   stubCatalog{},
		Sales:     stubSales{},
		Tokens:    maker,
		Pinger:    stubPinger{},
		Gatherer:  registry,
		RateLimit: 1000,
		RateBurst: 1000,
	})
	return r
}

func TestRoutes_Public(t *testing.T) {
	router := newRouter(t, jwt.NewMaker("secret", time.Hour))

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/v1/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/v1/login",
		bytes.NewBufferString(`{"username":"kate","password":"pw"}`)))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "token-kate")

	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "sales_created_total 1")
}

func TestRoutes_ProtectedRequireToken(t *testing.T) {
	router := newRouter(t, jwt.NewMaker("secret", time.Hour))

	for _, path := range []string{"/api/v1/products", "/api/v1/sales", "/api/v1/sales/expiring", "/api/v1/sales/export"} {
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusUnauthorized, rr.Code, path)
	}
}

func TestRoutes_ProtectedWithToken(t *testing.T) {
	maker := jwt.NewMaker("secret", time.Hour)
	router := newRouter(t, maker)

	staffToken, err := maker.GenerateToken("kate", models.RoleStaff)
	require.NoError(t, err)
	guestToken, err := maker.GenerateToken("bob", "guest")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/sales/expiring", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"OK","data":{"items":[],"excluded":0}}`, rr.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/api/v1/sales/export", nil)
	req.Header.Set("Authorization", "Bearer "+staffToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, strings.HasPrefix(rr.Header().Get("Content-Type"), "text/csv"))

	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", bytes.NewBufferString(`{}`))
	req.Header.Set("Authorization", "Bearer "+guestToken)
	rr = httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusForbidden, rr.Code)
}
