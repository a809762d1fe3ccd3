// Package expiring отдаёт подписки, которые скоро закончатся.
package expiring

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/expiry"
	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Service отбирает истекающие подписки.
type Service interface {
	ExpiringSoon(ctx context.Context) (expiry.Selection, error)
}

// Data тело успешного ответа.
type Data struct {
	Items    []models.ExpiringSale `json:"items"`
	Excluded int                   `json:"excluded"`
}

// Handler отдаёт список «скоро истекает».
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Подписки, которые скоро закончатся
// @Description Продажи, до окончания которых осталось меньше окна в днях, начиная с ближайших.
// @Description excluded: число записей, для которых не удалось определить дату окончания.
// @Tags Sales
// @Produce  json
// @Security BearerAuth
// @Success 200 {object} response.Response{data=Data}
// @Failure 500 {object} response.ErrorResponse
// @Router /sales/expiring [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.expiring"

	sel, err := h.service.ExpiringSoon(r.Context())
	if err != nil {
		h.log.Error("failed to select expiring sales",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not load expiring subscriptions"))
		return
	}

	render.JSON(w, r, response.StatusOKWithData(Data{
		Items:    expiry.Present(sel.Items),
		Excluded: sel.Excluded,
	}))
}
