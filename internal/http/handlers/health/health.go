// Package health отвечает на проверки живости сервиса.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/sales-tracker/internal/http/response"
	"github.com/magabrotheeeer/sales-tracker/internal/lib/sl"
)

const pingTimeout = 2 * time.Second

// Pinger проверяет доступность зависимости.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Handler сообщает о состоянии сервиса и базы данных.
type Handler struct {
	log *slog.Logger
	db  Pinger
}

// New создаёт Handler.
func New(log *slog.Logger, db Pinger) *Handler {
	return &Handler{
		log: log,
		db:  db,
	}
}

// ServeHTTP godoc
// @Summary Проверка состояния
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse "База данных недоступна"
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"

	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database is unavailable",
			slog.String("op", op),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			sl.Err(err),
		)
		render.Status(r, http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("database unavailable"))
		return
	}
	render.JSON(w, r, response.StatusOKWithData(map[string]any{
		"status": "ok",
	}))
}
