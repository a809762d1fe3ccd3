// Package options отдаёт сокращённый каталог для формы продажи.
package options

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Service возвращает варианты товаров.
type Service interface {
	Options(ctx context.Context) ([]*models.ProductOption, error)
}

// Handler отдаёт варианты товаров.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Варианты товаров для формы продажи
// @Tags Products
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /products/options [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.product.options"

	options, err := h.service.Options(r.Context())
	if err != nil {
		h.log.Error("failed to load product options",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load product options"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(options))
}
