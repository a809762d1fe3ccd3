// Package create реализует HTTP-обработчик регистрации продажи.
package create

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/validation"
	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Service описывает регистрацию продажи.
type Service interface {
	Create(ctx context.Context, req models.SaleRequest) (int, error)
}

// Handler принимает новую продажу.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Зарегистрировать продажу
// @Description Сохраняет проданную подписку. Если end_date не передан, он вычисляется из даты покупки и срока.
// @Tags Sales
// @Accept  json
// @Produce  json
// @Security BearerAuth
// @Param request body models.SaleRequest true "Продажа"
// @Success 201 {object} response.Response "ID созданной продажи"
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 422 {object} response.Response "Ошибки по полям"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /sales [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.sale.create"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SaleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	id, err := h.service.Create(r.Context(), req)
	var verr *validation.Error
	if errors.As(err, &verr) {
		log.Info("validation failed", slog.Any("fields", verr.Fields))
		render.Status(r, http.StatusUnprocessableEntity)
		render.JSON(w, r, response.FieldErrors(verr.Fields))
		return
	}
	if err != nil {
		log.Error("failed to create sale", sl.Err(err))
		render.Status(r, http.StatusInternalServerError)
		render.JSON(w, r, response.Error("could not save sale"))
		return
	}

	log.Info("sale created", slog.Int("id", id))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"id": id,
	}))
}
