// Package list отдаёт журнал продаж.
package list

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

// Service возвращает все продажи.
type Service interface {
	List(ctx context.Context) ([]*models.Sale, error)
}

// Handler отдаёт журнал продаж.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Журнал продаж
// @Description Все продажи, начиная с последних по дате покупки.
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Failure 500 {object} response.ErrorResponse
// @Router /sales [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.list"

	sales, err := h.service.List(r.Context())
	if err != nil {
		h.log.Error("failed to list sales",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load sales"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(sales))
}
